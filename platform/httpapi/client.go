// Package httpapi is the networked implementation of the platform surface.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	serrors "github.com/walletgate/origo/errors"
	"github.com/walletgate/origo/platform"
)

const defaultCallTimeout = 30 * time.Second

// Config holds connection settings for the platform API.
type Config struct {
	BaseURL        string // e.g. "https://api.origo.hidglobal.com"
	OrganizationID string
	ClientID       string
	ClientSecret   string
	CallTimeout    time.Duration // per-call budget, defaults to 30s
	HTTPClient     *http.Client  // optional override, mainly for tests
}

// Client implements platform.API against the remote platform. All calls
// except the token exchange carry headers from the injected HeaderProvider.
type Client struct {
	cfg     Config
	http    *http.Client
	headers platform.HeaderProvider
}

// NewClient creates a platform API client. The HeaderProvider is typically a
// services.TokenManager.
func NewClient(cfg Config, headers platform.HeaderProvider) *Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.CallTimeout}
	}
	return &Client{cfg: cfg, http: hc, headers: headers}
}

// do issues an authenticated JSON call and decodes the response into out
// (when out is non-nil). resource and id feed the not-found error so the
// caller learns which identifier was unknown.
func (c *Client) do(ctx context.Context, method, path string, body, out any, resource, id string) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		payload = bytes.NewReader(buf)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}

	hdr, err := c.headers.Headers(ctx)
	if err != nil {
		return err
	}
	req.Header = hdr

	resp, err := c.http.Do(req)
	if err != nil {
		return serrors.NewNetworkError(method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapStatus(resp, method, path, resource, id)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// mapStatus translates a non-2xx response into the error taxonomy. 4xx is a
// request defect and never retryable; 5xx is a transient upstream condition.
func (c *Client) mapStatus(resp *http.Response, method, path, resource, id string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))

	log.Ctx(resp.Request.Context()).Debug().
		Int("status", resp.StatusCode).
		Str("method", method).
		Str("path", path).
		Msg("platform call failed")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return serrors.NewNotFound(resource, id)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return serrors.NewAuthenticationError(resp.StatusCode, msg)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		verr := serrors.NewValidationError(resource, msg)
		verr.Status = resp.StatusCode
		return verr
	default:
		nerr := serrors.NewNetworkError(method+" "+path, fmt.Errorf("upstream status %d", resp.StatusCode))
		nerr.Status = resp.StatusCode
		return nerr
	}
}
