package services

import (
	"context"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/walletgate/origo/domain"
	serrors "github.com/walletgate/origo/errors"
	"github.com/walletgate/origo/platform"
)

// CallbackService manages webhook registrations. The signing secret is
// handed to the platform at registration time and never retained or
// returned afterwards.
type CallbackService struct {
	api platform.API
}

// NewCallbackService creates the registry.
func NewCallbackService(api platform.API) *CallbackService {
	return &CallbackService{api: api}
}

// Register validates and submits a webhook subscription. The endpoint must
// be HTTPS, and httpHeader/secret must be set together or not at all.
func (s *CallbackService) Register(ctx context.Context, callbackURL string, filter domain.EventFilter, httpHeader, secret string) (*domain.CallbackRegistration, error) {
	parsed, err := url.Parse(callbackURL)
	if err != nil || parsed.Host == "" {
		return nil, serrors.NewValidationError("url", "callback url is not a valid URL")
	}
	if parsed.Scheme != "https" {
		return nil, serrors.NewValidationError("url", "callback url must use https")
	}
	if (httpHeader == "") != (secret == "") {
		return nil, serrors.NewValidationError("httpHeader", "httpHeader and secret must be provided together")
	}

	reg, err := s.api.RegisterCallback(ctx, domain.CallbackRegistration{
		URL:        callbackURL,
		Filter:     filter,
		HTTPHeader: httpHeader,
		Secret:     secret,
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("registration_id", reg.ID).
		Str("url", callbackURL).
		Strs("event_types", filter.EventTypes).
		Bool("signed", httpHeader != "").
		Msg("callback registered")

	redacted := reg.Redacted()
	return &redacted, nil
}

// List returns all current registrations with secrets redacted.
func (s *CallbackService) List(ctx context.Context) ([]domain.CallbackRegistration, error) {
	regs, err := s.api.ListCallbacks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CallbackRegistration, len(regs))
	for i, reg := range regs {
		out[i] = reg.Redacted()
	}
	return out, nil
}

// Delete removes a registration. An unknown id is a not-found error:
// registrations are removed outright, never soft-marked.
func (s *CallbackService) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteCallback(ctx, id); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("registration_id", id).Msg("callback deleted")
	return nil
}
