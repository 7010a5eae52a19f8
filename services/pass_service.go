package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/walletgate/origo/domain"
	serrors "github.com/walletgate/origo/errors"
	"github.com/walletgate/origo/platform"
)

// PassService drives the pass lifecycle state machine against the platform.
// Mutations on the same pass id are serialized relative to each other;
// different passes proceed in parallel.
type PassService struct {
	api platform.API

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPassService creates the lifecycle engine.
func NewPassService(api platform.API) *PassService {
	return &PassService{
		api:   api,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutation lock for one pass id.
func (s *PassService) lockFor(passID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[passID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[passID] = l
	}
	return l
}

// CreatePass allocates a pass in PENDING for an existing user. On failure no
// partial pass is left visible locally; the error wraps the underlying
// cause.
func (s *PassService) CreatePass(ctx context.Context, userID, passTemplateID string) (*domain.Pass, error) {
	if userID == "" {
		return nil, serrors.NewValidationError("userId", "userId is required")
	}
	if passTemplateID == "" {
		return nil, serrors.NewValidationError("passTemplateId", "passTemplateId is required")
	}

	pass, err := s.api.CreatePass(ctx, userID, passTemplateID)
	if err != nil {
		if serrors.CodeOf(err) == serrors.CodeValidation || serrors.CodeOf(err) == serrors.CodeNetwork {
			return nil, serrors.NewCredentialError("pass creation failed", err)
		}
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("pass_id", pass.ID).
		Str("user_id", userID).
		Str("template_id", passTemplateID).
		Msg("pass created")
	return pass, nil
}

// GetPass fetches the current pass representation. Safe to retry.
func (s *PassService) GetPass(ctx context.Context, passID string) (*domain.Pass, error) {
	return s.api.GetPass(ctx, passID)
}

// IssuanceToken obtains a fresh one-time provisioning secret for a pass that
// is not yet terminal. The token must be used immediately: it is not cached
// here and every call may return a distinct value.
func (s *PassService) IssuanceToken(ctx context.Context, passID string) (*domain.IssuanceToken, error) {
	token, err := s.api.IssuanceToken(ctx, passID)
	if err != nil {
		return nil, err
	}
	// Deliberately no token value in the log.
	log.Ctx(ctx).Info().Str("pass_id", passID).Msg("issuance token generated")
	return token, nil
}

// SuspendPass moves an ACTIVE pass to SUSPENDED. Suspending an already
// suspended pass is a no-op success, tolerating retried requests; any other
// starting state is an invalid transition.
func (s *PassService) SuspendPass(ctx context.Context, passID string) (*domain.Pass, error) {
	return s.transition(ctx, passID, domain.ActionSuspend, domain.PassStatusSuspended)
}

// ResumePass moves a SUSPENDED pass back to ACTIVE. Resuming an already
// active pass is a no-op success.
func (s *PassService) ResumePass(ctx context.Context, passID string) (*domain.Pass, error) {
	return s.transition(ctx, passID, domain.ActionResume, domain.PassStatusActive)
}

// transition applies one suspend/resume action under the per-pass lock,
// consulting the legality table. Reaching the target state counts as
// success even when no PATCH was needed.
func (s *PassService) transition(ctx context.Context, passID string, action domain.PassAction, target domain.PassStatus) (*domain.Pass, error) {
	l := s.lockFor(passID)
	l.Lock()
	defer l.Unlock()

	pass, err := s.api.GetPass(ctx, passID)
	if err != nil {
		return nil, err
	}
	if pass.Status == target {
		// Idempotent from the target state's perspective.
		return pass, nil
	}
	if _, ok := domain.NextStatus(pass.Status, action); !ok {
		return nil, serrors.NewInvalidStateTransition(passID, string(pass.Status), string(action))
	}

	updated, err := s.api.UpdatePassStatus(ctx, passID, target)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().
		Str("pass_id", passID).
		Str("from", string(pass.Status)).
		Str("to", string(updated.Status)).
		Msg("pass status changed")
	return updated, nil
}

// CancelPass withdraws a pass that was never activated (PENDING ends
// CANCELLED). Cancelling an unknown or already cancelled pass is a no-op
// success; any other state is an invalid transition.
func (s *PassService) CancelPass(ctx context.Context, passID string) error {
	l := s.lockFor(passID)
	l.Lock()
	defer l.Unlock()

	pass, err := s.api.GetPass(ctx, passID)
	if err != nil {
		if serrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if pass.Status == domain.PassStatusCancelled {
		return nil
	}
	if _, ok := domain.NextStatus(pass.Status, domain.ActionCancel); !ok {
		return serrors.NewInvalidStateTransition(passID, string(pass.Status), string(domain.ActionCancel))
	}

	if err := s.api.DeletePass(ctx, passID); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("pass_id", passID).Msg("pass cancelled")
	return nil
}

// DeletePass removes a pass from any non-terminal state (a PENDING pass ends
// CANCELLED, otherwise DELETED). Deleting an unknown or already deleted pass
// succeeds as a no-op: the caller's intent is already satisfied.
func (s *PassService) DeletePass(ctx context.Context, passID string) error {
	l := s.lockFor(passID)
	l.Lock()
	defer l.Unlock()

	err := s.api.DeletePass(ctx, passID)
	if err != nil {
		if serrors.IsNotFound(err) {
			log.Ctx(ctx).Debug().Str("pass_id", passID).Msg("delete of unknown pass, treating as no-op")
			return nil
		}
		return err
	}
	log.Ctx(ctx).Info().Str("pass_id", passID).Msg("pass deleted")
	return nil
}
