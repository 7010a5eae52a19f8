// Package cache holds the dedup ledger backends used by the event
// ingestion pipeline.
package cache

import "context"

// EntryStatus is the processing state of one event id.
type EntryStatus string

const (
	StatusProcessing EntryStatus = "processing"
	StatusProcessed  EntryStatus = "processed"
	StatusFailed     EntryStatus = "failed"
)

// Entry is the ledger record for one event id. Result carries the cached
// interpretation for processed events so replays can be answered without
// re-invoking handlers.
type Entry struct {
	EventID string      `json:"event_id"`
	Status  EntryStatus `json:"status"`
	Result  []byte      `json:"result,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// Ledger maps event ids to processing status within a bounded retention
// window. Begin is the single atomic check-and-mark step: when the id is
// new (or previously failed) it is marked processing and started is true;
// otherwise the existing entry is returned and started is false. Two
// concurrent deliveries of the same id can never both observe started.
type Ledger interface {
	Begin(ctx context.Context, eventID string) (entry *Entry, started bool, err error)
	Complete(ctx context.Context, eventID string, result []byte) error
	Fail(ctx context.Context, eventID string, reason string) error
	Close() error
}
