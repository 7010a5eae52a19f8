package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/walletgate/origo/domain"
	serrors "github.com/walletgate/origo/errors"
	"github.com/walletgate/origo/platform"
)

// UserService is a thin passthrough over the platform's SCIM user surface.
// The credential lifecycle itself treats user ids as opaque; this exists so
// a user record can be created before the first pass is issued.
type UserService struct {
	api platform.API
}

func NewUserService(api platform.API) *UserService {
	return &UserService{api: api}
}

// CreateUser registers a user. externalId and email are required by the
// platform contract.
func (s *UserService) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.ExternalID == "" {
		return nil, serrors.NewValidationError("externalId", "externalId is required")
	}
	if user.Email == "" {
		return nil, serrors.NewValidationError("email", "at least one email is required")
	}
	created, err := s.api.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().
		Str("user_id", created.ID).
		Str("external_id", created.ExternalID).
		Msg("user created")
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.api.GetUser(ctx, userID)
}

// DeleteUser removes a user; the platform invalidates any passes bound to
// them and reports that through lifecycle events.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.api.DeleteUser(ctx, userID); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("user_id", userID).Msg("user deleted")
	return nil
}
