package echo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walletgate/origo/cache"
	"github.com/walletgate/origo/domain"
	"github.com/walletgate/origo/platform/memapi"
	"github.com/walletgate/origo/services"
)

const (
	testHeader = "X-Hook-Secret"
	testSecret = "s3cret"
)

func newWebhookFixture(t *testing.T) *echo.Echo {
	t.Helper()
	ledger := cache.NewMemoryLedger(time.Hour)
	t.Cleanup(func() { _ = ledger.Close() })

	pipeline := services.NewEventPipeline(ledger, cache.NewMemoryStateStore(), memapi.New())
	api := NewWebhookAPI(pipeline, testHeader, testSecret)

	e := echo.New()
	api.RegisterRoutes(e)
	return e
}

func postBatch(e *echo.Echo, body string, withSecret bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/origo", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, "application/cloudevents-batch+json")
	if withSecret {
		req.Header.Set(testHeader, testSecret)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func batchOf(t *testing.T, events ...domain.CloudEvent) string {
	t.Helper()
	raw, err := json.Marshal(events)
	require.NoError(t, err)
	return string(raw)
}

func TestWebhookRejectsMissingSecret(t *testing.T) {
	e := newWebhookFixture(t)

	body := batchOf(t, domain.CloudEvent{
		ID: "evt-1", Type: domain.EventTypePassCreated, Subject: "pass/p1", Time: time.Now().UTC(),
	})
	rec := postBatch(e, body, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookProcessesBatch(t *testing.T) {
	e := newWebhookFixture(t)

	body := batchOf(t,
		domain.CloudEvent{
			ID: "evt-1", Type: domain.EventTypePassUpdated, Subject: "pass/p1",
			Time: time.Now().UTC(), Data: map[string]any{"status": "COMPLETED", "userId": "usr-1"},
		},
		domain.CloudEvent{
			ID: "evt-2", Type: domain.EventTypeUserCreated, Subject: "user/usr-2",
			Time: time.Now().UTC(),
		},
	)
	rec := postBatch(e, body, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []struct {
			EventID string `json:"eventId"`
			Status  string `json:"status"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	for _, res := range resp.Results {
		assert.Equal(t, "processed", res.Status)
	}

	// Redelivery of the same batch is acknowledged again without reprocessing.
	rec = postBatch(e, body, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookAcceptsSingleEventObject(t *testing.T) {
	e := newWebhookFixture(t)

	raw, err := json.Marshal(domain.CloudEvent{
		ID: "evt-1", Type: domain.EventTypePassCreated, Subject: "pass/p1", Time: time.Now().UTC(),
	})
	require.NoError(t, err)

	rec := postBatch(e, string(raw), true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRejectsUnparsableBody(t *testing.T) {
	e := newWebhookFixture(t)
	rec := postBatch(e, `{"id": "evt-1",`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsWrongContentType(t *testing.T) {
	e := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/origo", strings.NewReader("[]"))
	req.Header.Set(echo.HeaderContentType, "text/plain")
	req.Header.Set(testHeader, testSecret)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestWebhookDropsMalformedEventWithoutFailingDelivery(t *testing.T) {
	e := newWebhookFixture(t)

	body := batchOf(t,
		domain.CloudEvent{ // no id, malformed
			Type: domain.EventTypePassUpdated, Subject: "pass/p1", Time: time.Now().UTC(),
		},
		domain.CloudEvent{
			ID: "evt-2", Type: domain.EventTypePassUpdated, Subject: "pass/p2",
			Time: time.Now().UTC(), Data: map[string]any{"status": "COMPLETED"},
		},
	)
	rec := postBatch(e, body, true)
	require.Equal(t, http.StatusOK, rec.Code, "malformed events are dropped, not retried")

	var resp struct {
		Results []struct {
			Status string `json:"status"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "malformed", resp.Results[0].Status)
	assert.Equal(t, "processed", resp.Results[1].Status)
}

func TestHealthz(t *testing.T) {
	e := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
