// Package echo exposes the inbound webhook surface for platform events.
package echo

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	serrors "github.com/walletgate/origo/errors"
	"github.com/walletgate/origo/services"
)

// cloudEventsBatchType is the content type the platform posts event batches
// with.
const cloudEventsBatchType = "application/cloudevents-batch+json"

// WebhookAPI receives CloudEvents batches. The platform only considers a
// delivery acknowledged on a 200 response; anything else is retained on its
// side for later recovery.
type WebhookAPI struct {
	pipeline *services.EventPipeline

	// Shared-secret check configured at callback registration time. Both
	// empty disables the check.
	header string
	secret string
}

// NewWebhookAPI creates the receiver. header/secret must match the values
// used when registering the callback with the platform.
func NewWebhookAPI(pipeline *services.EventPipeline, header, secret string) *WebhookAPI {
	return &WebhookAPI{pipeline: pipeline, header: header, secret: secret}
}

// RegisterRoutes registers the webhook routes.
func (w *WebhookAPI) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/origo", w.HandleBatch)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

type eventResult struct {
	EventID string `json:"eventId,omitempty"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// HandleBatch ingests one CloudEvents batch. An unparsable batch is the
// sender's defect (400); a handler failure returns 500 so the platform marks
// the delivery failed and the events stay recoverable.
func (w *WebhookAPI) HandleBatch(c echo.Context) error {
	if !w.authorized(c.Request()) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.Contains(contentType, cloudEventsBatchType) && !strings.Contains(contentType, echo.MIMEApplicationJSON) {
		return c.JSON(http.StatusUnsupportedMediaType, map[string]string{"error": "expected " + cloudEventsBatchType})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable body"})
	}

	var rawEvents []json.RawMessage
	if err := json.Unmarshal(body, &rawEvents); err != nil {
		// Tolerate a single bare event object.
		var single map[string]any
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "body is not a CloudEvents batch"})
		}
		rawEvents = []json.RawMessage{body}
	}

	ctx := c.Request().Context()
	results := make([]eventResult, 0, len(rawEvents))
	failed := false
	for _, raw := range rawEvents {
		interp, err := w.pipeline.Ingest(ctx, raw)
		switch {
		case err == nil:
			results = append(results, eventResult{EventID: interp.EventID, Status: "processed"})
		case isMalformed(err):
			// A malformed envelope will never become processable; report it
			// but do not fail the whole delivery over it.
			log.Ctx(ctx).Warn().Err(err).Msg("dropping malformed event")
			results = append(results, eventResult{Status: "malformed", Error: err.Error()})
		default:
			failed = true
			results = append(results, eventResult{Status: "failed", Error: err.Error()})
		}
	}

	status := http.StatusOK
	if failed {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, map[string]any{"results": results})
}

func (w *WebhookAPI) authorized(r *http.Request) bool {
	if w.header == "" {
		return true
	}
	got := r.Header.Get(w.header)
	return subtle.ConstantTimeCompare([]byte(got), []byte(w.secret)) == 1
}

func isMalformed(err error) bool {
	var e *serrors.Error
	return errors.As(err, &e) && e.Code == serrors.CodeMalformedEvent
}
