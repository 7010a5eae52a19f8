// Package platform defines the capability set of the remote credential
// issuance platform. Two implementations exist: a networked client in
// httpapi and an in-memory fake in memapi, selected by injection at
// construction time.
package platform

import (
	"context"
	"net/http"
	"time"

	"github.com/walletgate/origo/domain"
)

// Authenticator performs the OAuth2 client-credentials exchange. It is the
// only platform call that does not itself require bearer headers.
type Authenticator interface {
	ExchangeCredentials(ctx context.Context) (*domain.TokenState, error)
}

// HeaderProvider supplies the authenticated header set for platform calls.
// Implemented by services.TokenManager.
type HeaderProvider interface {
	Headers(ctx context.Context) (http.Header, error)
}

// API is the authenticated platform surface consumed by the lifecycle
// engine, the callback registry and the event pipeline.
type API interface {
	// Pass / credential management.
	CreatePass(ctx context.Context, userID, passTemplateID string) (*domain.Pass, error)
	GetPass(ctx context.Context, passID string) (*domain.Pass, error)
	IssuanceToken(ctx context.Context, passID string) (*domain.IssuanceToken, error)
	UpdatePassStatus(ctx context.Context, passID string, status domain.PassStatus) (*domain.Pass, error)
	DeletePass(ctx context.Context, passID string) error

	// Callback registrations.
	RegisterCallback(ctx context.Context, reg domain.CallbackRegistration) (*domain.CallbackRegistration, error)
	ListCallbacks(ctx context.Context) ([]domain.CallbackRegistration, error)
	DeleteCallback(ctx context.Context, id string) error

	// Failed-delivery recovery query.
	FailedEvents(ctx context.Context, since time.Time) ([]*domain.CloudEvent, error)

	// SCIM user management.
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	DeleteUser(ctx context.Context, userID string) error
}
