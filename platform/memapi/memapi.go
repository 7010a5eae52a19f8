// Package memapi is the in-memory implementation of the platform surface,
// used in local mode and by tests. It honors the same error contract as the
// networked client so callers cannot tell the two apart.
package memapi

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/walletgate/origo/domain"
	serrors "github.com/walletgate/origo/errors"
)

// Platform is a self-contained fake of the remote platform. It implements
// both platform.Authenticator and platform.API.
type Platform struct {
	mu           sync.Mutex
	passes       map[string]*domain.Pass
	users        map[string]*domain.User
	callbacks    map[string]*domain.CallbackRegistration
	failedEvents []*domain.CloudEvent

	// Exchanges counts credential exchanges, for single-flight assertions.
	exchanges int

	now func() time.Time
}

// New creates an empty in-memory platform.
func New() *Platform {
	return &Platform{
		passes:    make(map[string]*domain.Pass),
		users:     make(map[string]*domain.User),
		callbacks: make(map[string]*domain.CallbackRegistration),
		now:       time.Now,
	}
}

// WithClock overrides the platform clock, for tests.
func (p *Platform) WithClock(now func() time.Time) *Platform {
	p.now = now
	return p
}

// ExchangeCredentials implements platform.Authenticator with a synthetic
// bearer token.
func (p *Platform) ExchangeCredentials(_ context.Context) (*domain.TokenState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchanges++
	return &domain.TokenState{
		AccessToken: "mem_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		ObtainedAt:  p.now(),
	}, nil
}

// ExchangeCount returns how many credential exchanges were performed.
func (p *Platform) ExchangeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchanges
}

// CreatePass allocates a pass in PENDING with one template credential.
func (p *Platform) CreatePass(_ context.Context, userID, passTemplateID string) (*domain.Pass, error) {
	if userID == "" || passTemplateID == "" {
		return nil, serrors.NewValidationError("pass", "userId and passTemplateId are required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	pass := &domain.Pass{
		ID:             "pass-" + uuid.NewString(),
		UserID:         userID,
		PassTemplateID: passTemplateID,
		Status:         domain.PassStatusPending,
		Credentials:    []domain.Credential{{ID: "cred-" + uuid.NewString()[:8], Type: "SEOS"}},
		CreatedAt:      p.now(),
	}
	p.passes[pass.ID] = pass
	return clonePass(pass), nil
}

func (p *Platform) GetPass(_ context.Context, passID string) (*domain.Pass, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pass, ok := p.passes[passID]
	if !ok {
		return nil, serrors.NewNotFound("pass", passID)
	}
	return clonePass(pass), nil
}

// IssuanceToken mints a fresh single-use provisioning token. A new value is
// produced on every call; a consumed or expired token is never reissued.
func (p *Platform) IssuanceToken(_ context.Context, passID string) (*domain.IssuanceToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pass, ok := p.passes[passID]
	if !ok {
		return nil, serrors.NewNotFound("pass", passID)
	}
	if pass.Status.Terminal() {
		return nil, serrors.NewInvalidStateTransition(passID, string(pass.Status), "issue a token for")
	}
	return &domain.IssuanceToken{
		Token:     "IT_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		PassID:    passID,
		ExpiresAt: p.now().Add(5 * time.Minute),
	}, nil
}

// UpdatePassStatus applies a PATCH the way the remote platform does: the
// target status must be reachable from the current one.
func (p *Platform) UpdatePassStatus(_ context.Context, passID string, status domain.PassStatus) (*domain.Pass, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pass, ok := p.passes[passID]
	if !ok {
		return nil, serrors.NewNotFound("pass", passID)
	}

	var action domain.PassAction
	switch status {
	case domain.PassStatusSuspended:
		action = domain.ActionSuspend
	case domain.PassStatusActive:
		action = domain.ActionResume
	default:
		return nil, serrors.NewValidationError("status", "PATCH supports SUSPENDED or ACTIVE")
	}

	next, ok := domain.NextStatus(pass.Status, action)
	if !ok {
		return nil, serrors.NewInvalidStateTransition(passID, string(pass.Status), string(action))
	}
	pass.Status = next
	return clonePass(pass), nil
}

// DeletePass removes a pass. A PENDING pass ends CANCELLED, anything else
// non-terminal ends DELETED. Unknown or already-terminal ids report
// not-found, mirroring the remote 404.
func (p *Platform) DeletePass(_ context.Context, passID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	pass, ok := p.passes[passID]
	if !ok || pass.Status.Terminal() {
		return serrors.NewNotFound("pass", passID)
	}
	if pass.Status == domain.PassStatusPending {
		pass.Status = domain.PassStatusCancelled
	} else {
		pass.Status = domain.PassStatusDeleted
	}
	return nil
}

// ActivatePass simulates the remote provisioning confirmation
// (PROVISIONING -> ACTIVE), advancing through PROVISIONING when needed.
// Test helper; the networked platform does this on its own.
func (p *Platform) ActivatePass(passID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	pass, ok := p.passes[passID]
	if !ok {
		return serrors.NewNotFound("pass", passID)
	}
	if pass.Status == domain.PassStatusPending {
		pass.Status = domain.PassStatusProvisioning
	}
	next, ok2 := domain.NextStatus(pass.Status, domain.ActionActivate)
	if !ok2 {
		return serrors.NewInvalidStateTransition(passID, string(pass.Status), string(domain.ActionActivate))
	}
	pass.Status = next
	return nil
}

// RegisterCallback stores a registration and assigns its id.
func (p *Platform) RegisterCallback(_ context.Context, reg domain.CallbackRegistration) (*domain.CallbackRegistration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	reg.ID = "cb-" + uuid.NewString()
	reg.CreatedAt = p.now()
	stored := reg
	p.callbacks[reg.ID] = &stored
	return &reg, nil
}

// ListCallbacks returns registrations with secrets withheld, as the remote
// platform does.
func (p *Platform) ListCallbacks(_ context.Context) ([]domain.CallbackRegistration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	regs := make([]domain.CallbackRegistration, 0, len(p.callbacks))
	for _, reg := range p.callbacks {
		regs = append(regs, reg.Redacted())
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].ID < regs[j].ID })
	return regs, nil
}

func (p *Platform) DeleteCallback(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.callbacks[id]; !ok {
		return serrors.NewNotFound("callback", id)
	}
	delete(p.callbacks, id)
	return nil
}

// ShelveFailedEvent records an event as a failed delivery, recoverable via
// FailedEvents. Test and local-mode helper.
func (p *Platform) ShelveFailedEvent(ev *domain.CloudEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failedEvents = append(p.failedEvents, ev)
}

// FailedEvents returns shelved events at or after since. Order is
// unspecified on purpose: the pipeline must sort before replay.
func (p *Platform) FailedEvents(_ context.Context, since time.Time) ([]*domain.CloudEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*domain.CloudEvent
	for _, ev := range p.failedEvents {
		if !ev.Time.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (p *Platform) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	if user.ExternalID == "" || user.Email == "" {
		return nil, serrors.NewValidationError("user", "externalId and email are required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	user.ID = "usr-" + uuid.NewString()
	user.CreatedAt = p.now()
	user.LastModified = user.CreatedAt
	stored := user
	p.users[user.ID] = &stored
	return &user, nil
}

func (p *Platform) GetUser(_ context.Context, userID string) (*domain.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.users[userID]
	if !ok {
		return nil, serrors.NewNotFound("user", userID)
	}
	u := *user
	return &u, nil
}

func (p *Platform) DeleteUser(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.users[userID]; !ok {
		return serrors.NewNotFound("user", userID)
	}
	delete(p.users, userID)
	return nil
}

func clonePass(pass *domain.Pass) *domain.Pass {
	cp := *pass
	cp.Credentials = append([]domain.Credential(nil), pass.Credentials...)
	return &cp
}
