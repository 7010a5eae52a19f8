package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/walletgate/origo/domain"
)

// FailedEventsPath is the platform's failed-delivery query surface.
const FailedEventsPath = "/events"

// RegisterCallback submits a webhook subscription. The signing secret is
// transmitted here and never read back.
func (c *Client) RegisterCallback(ctx context.Context, reg domain.CallbackRegistration) (*domain.CallbackRegistration, error) {
	var created domain.CallbackRegistration
	if err := c.do(ctx, http.MethodPost, "/callback", reg, &created, "callback", ""); err != nil {
		return nil, err
	}
	if created.URL == "" {
		// Some deployments answer with {id} only; keep the submitted shape.
		reg.ID = created.ID
		created = reg
	}
	return &created, nil
}

// ListCallbacks returns all registrations. The platform omits secrets from
// this response by contract.
func (c *Client) ListCallbacks(ctx context.Context) ([]domain.CallbackRegistration, error) {
	var regs []domain.CallbackRegistration
	if err := c.do(ctx, http.MethodGet, "/callback", nil, &regs, "callback", ""); err != nil {
		return nil, err
	}
	return regs, nil
}

// DeleteCallback removes a registration.
func (c *Client) DeleteCallback(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/callback/"+id, nil, nil, "callback", id)
}

// FailedEvents queries events whose webhook delivery failed at or after
// since, for replay through the ingestion pipeline.
func (c *Client) FailedEvents(ctx context.Context, since time.Time) ([]*domain.CloudEvent, error) {
	path := FailedEventsPath + "?status=failed&since=" + since.UTC().Format(time.RFC3339)
	var events []*domain.CloudEvent
	if err := c.do(ctx, http.MethodGet, path, nil, &events, "event", ""); err != nil {
		return nil, err
	}
	return events, nil
}
