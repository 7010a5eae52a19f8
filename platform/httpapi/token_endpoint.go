package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/walletgate/origo/domain"
	serrors "github.com/walletgate/origo/errors"
)

// TokenEndpoint performs the client-credentials exchange. It is a separate
// type from Client because it is the one platform call issued without bearer
// headers: the token manager depends on it, everything else depends on the
// token manager.
type TokenEndpoint struct {
	cfg  Config
	http *http.Client
}

// NewTokenEndpoint creates the exchange client for the configured
// organization.
func NewTokenEndpoint(cfg Config) *TokenEndpoint {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.CallTimeout}
	}
	return &TokenEndpoint{cfg: cfg, http: hc}
}

// URL returns the organization-scoped token endpoint.
func (t *TokenEndpoint) URL() string {
	return t.cfg.BaseURL + "/authentication/customer/" + t.cfg.OrganizationID + "/token"
}

// ExchangeCredentials implements platform.Authenticator. The request body is
// form-urlencoded, not JSON. Failures are not retried here; that decision
// belongs to the caller.
func (t *TokenEndpoint) ExchangeCredentials(ctx context.Context) (*domain.TokenState, error) {
	form := url.Values{
		"client_id":     {t.cfg.ClientID},
		"client_secret": {t.cfg.ClientSecret},
		"grant_type":    {"client_credentials"},
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.CallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, serrors.NewNetworkError("token exchange", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, serrors.NewNetworkError("token exchange", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, serrors.NewAuthenticationError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token domain.TokenState
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, serrors.NewAuthenticationError(resp.StatusCode, "unparsable token response: "+err.Error())
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	if token.ExpiresIn == 0 {
		token.ExpiresIn = 3600
	}
	token.ObtainedAt = time.Now()

	log.Ctx(ctx).Debug().
		Str("token_type", token.TokenType).
		Int("expires_in", token.ExpiresIn).
		Msg("credential exchange succeeded")

	return &token, nil
}
