package domain

import (
	"context"
	"time"
)

// PassState is the locally mirrored last-known state of a pass, derived from
// ingested events. The event timestamp decides which delivery is
// authoritative when live pushes race recovery replays.
type PassState struct {
	PassID    string     `bson:"_id"        json:"passId"`
	Status    PassStatus `bson:"status"     json:"status"`
	UserID    string     `bson:"user_id"    json:"userId,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}

// StateStore keeps the per-pass mirror. Apply commits state only when its
// UpdatedAt is not older than the stored one; a stale write returns false
// with no error so the caller can report the event as a detected no-op.
type StateStore interface {
	Apply(ctx context.Context, state PassState) (bool, error)
	Get(ctx context.Context, passID string) (*PassState, error)
}
