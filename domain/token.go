package domain

import "time"

// DefaultExpiryBuffer is subtracted from the platform-declared token expiry
// to guard against clock skew and in-flight request latency.
const DefaultExpiryBuffer = 60 * time.Second

// TokenState is one bearer credential obtained from the platform's token
// endpoint. A successful exchange always produces a fresh TokenState; an
// existing one is never mutated in place.
type TokenState struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"` // seconds
	IDToken     string    `json:"id_token,omitempty"`
	ObtainedAt  time.Time `json:"-"`
}

// Expired reports whether the token is unusable at now, applying the safety
// buffer before the declared expiry.
func (t *TokenState) Expired(now time.Time, buffer time.Duration) bool {
	if t == nil || t.ObtainedAt.IsZero() {
		return true
	}
	lifetime := time.Duration(t.ExpiresIn)*time.Second - buffer
	return now.Sub(t.ObtainedAt) >= lifetime
}
