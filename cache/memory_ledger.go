package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryLedger implements Ledger using ttlcache for the bounded retention
// window. The mutex makes check-and-mark a single step.
type MemoryLedger struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, *Entry]
}

// NewMemoryLedger creates an in-memory ledger. Entries older than retention
// are evicted, after which a re-delivered event id is processed again.
//
//nolint:ireturn
func NewMemoryLedger(retention time.Duration) Ledger {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *Entry](retention),
		ttlcache.WithDisableTouchOnHit[string, *Entry](),
	)
	go cache.Start()

	return &MemoryLedger{cache: cache}
}

// Begin implements Ledger.Begin.
func (l *MemoryLedger) Begin(_ context.Context, eventID string) (*Entry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if item := l.cache.Get(eventID); item != nil {
		entry := item.Value()
		if entry.Status == StatusFailed {
			// A failed event is eligible for another attempt.
			entry.Status = StatusProcessing
			entry.Reason = ""
			return entry, true, nil
		}
		return entry, false, nil
	}

	entry := &Entry{EventID: eventID, Status: StatusProcessing}
	l.cache.Set(eventID, entry, ttlcache.DefaultTTL)
	return entry, true, nil
}

// Complete implements Ledger.Complete.
func (l *MemoryLedger) Complete(_ context.Context, eventID string, result []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	item := l.cache.Get(eventID)
	if item == nil {
		return fmt.Errorf("ledger entry %s expired before completion", eventID)
	}
	entry := item.Value()
	entry.Status = StatusProcessed
	entry.Result = result
	return nil
}

// Fail implements Ledger.Fail.
func (l *MemoryLedger) Fail(_ context.Context, eventID string, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	item := l.cache.Get(eventID)
	if item == nil {
		return fmt.Errorf("ledger entry %s expired before failure mark", eventID)
	}
	entry := item.Value()
	entry.Status = StatusFailed
	entry.Reason = reason
	return nil
}

// Close stops the eviction goroutine.
func (l *MemoryLedger) Close() error {
	l.cache.Stop()
	return nil
}
