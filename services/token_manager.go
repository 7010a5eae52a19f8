package services

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/walletgate/origo/domain"
	"github.com/walletgate/origo/platform"
	"golang.org/x/sync/singleflight"
)

// TokenManager owns the single cached bearer credential used by every
// authenticated platform call. Refresh is lazy: a token is exchanged only
// when a caller needs one and none is valid, and concurrent callers collapse
// onto one in-flight exchange.
type TokenManager struct {
	auth       platform.Authenticator
	appID      string
	appVersion string
	buffer     time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	token *domain.TokenState

	group singleflight.Group
}

// TokenManagerOption adjusts construction defaults.
type TokenManagerOption func(*TokenManager)

// WithExpiryBuffer overrides the safety buffer subtracted from the declared
// token lifetime.
func WithExpiryBuffer(buffer time.Duration) TokenManagerOption {
	return func(m *TokenManager) { m.buffer = buffer }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) { m.now = now }
}

// NewTokenManager creates a manager with no cached token. appID and
// appVersion are stamped on every authenticated header set.
func NewTokenManager(auth platform.Authenticator, appID, appVersion string, opts ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		auth:       auth,
		appID:      appID,
		appVersion: appVersion,
		buffer:     domain.DefaultExpiryBuffer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Authenticate performs a credential exchange unconditionally and caches the
// resulting token. It does not retry; on failure the previously cached
// token, if any, stays intact and usable until it independently expires.
func (m *TokenManager) Authenticate(ctx context.Context) (*domain.TokenState, error) {
	token, err := m.auth.ExchangeCredentials(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("credential exchange failed")
		return nil, err
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return token, nil
}

// Token returns a currently valid access token, exchanging credentials if
// none is cached or the cached one fails the expiry check. Concurrent
// callers with no valid token trigger exactly one exchange; the rest await
// its result. Each caller's context still governs its own wait.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if !token.Expired(m.now(), m.buffer) {
		return token.AccessToken, nil
	}

	ch := m.group.DoChan("refresh", func() (any, error) {
		// Re-check under the flight: a refresh that finished between the
		// caller's check and this flight starting already did the work.
		m.mu.RLock()
		cached := m.token
		m.mu.RUnlock()
		if !cached.Expired(m.now(), m.buffer) {
			return cached, nil
		}
		return m.Authenticate(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(*domain.TokenState).AccessToken, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Headers returns the fixed header set required by all platform calls.
func (m *TokenManager) Headers(ctx context.Context) (http.Header, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return nil, err
	}
	hdr := make(http.Header, 4)
	hdr.Set("Authorization", "Bearer "+token)
	hdr.Set("Application-ID", m.appID)
	hdr.Set("Application-Version", m.appVersion)
	hdr.Set("Content-Type", "application/json")
	return hdr, nil
}
