package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/walletgate/origo/cache"
)

// beginScript atomically claims an event id: it stores a processing entry
// when the key is absent or holds a failed entry, and otherwise returns the
// existing entry untouched.
var beginScript = redis.NewScript(`
local existing = redis.call("GET", KEYS[1])
if existing then
  local entry = cjson.decode(existing)
  if entry.status ~= "failed" then
    return existing
  end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return false
`)

// EventLedger implements cache.Ledger on Redis, for deployments running more
// than one webhook receiver replica.
type EventLedger struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// NewEventLedger creates a redis-backed ledger. prefix namespaces the keys.
func NewEventLedger(client *redis.Client, prefix string, retention time.Duration) *EventLedger {
	return &EventLedger{client: client, prefix: prefix, retention: retention}
}

func (l *EventLedger) key(eventID string) string {
	return fmt.Sprintf("%s:event:%s", l.prefix, eventID)
}

// Begin implements cache.Ledger.Begin.
func (l *EventLedger) Begin(ctx context.Context, eventID string) (*cache.Entry, bool, error) {
	fresh := &cache.Entry{EventID: eventID, Status: cache.StatusProcessing}
	payload, err := json.Marshal(fresh)
	if err != nil {
		return nil, false, fmt.Errorf("encode ledger entry: %w", err)
	}

	res, err := beginScript.Run(ctx, l.client, []string{l.key(eventID)}, payload, l.retention.Milliseconds()).Result()
	if err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("ledger begin for %s: %w", eventID, err)
	}
	if res == nil || err == redis.Nil {
		// Key was claimed by this call.
		return fresh, true, nil
	}

	raw, ok := res.(string)
	if !ok {
		return nil, false, fmt.Errorf("unexpected ledger reply type %T", res)
	}
	var entry cache.Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, fmt.Errorf("decode ledger entry for %s: %w", eventID, err)
	}
	return &entry, false, nil
}

func (l *EventLedger) write(ctx context.Context, entry *cache.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}
	if err := l.client.Set(ctx, l.key(entry.EventID), payload, l.retention).Err(); err != nil {
		return fmt.Errorf("ledger write for %s: %w", entry.EventID, err)
	}
	return nil
}

// Complete implements cache.Ledger.Complete.
func (l *EventLedger) Complete(ctx context.Context, eventID string, result []byte) error {
	return l.write(ctx, &cache.Entry{EventID: eventID, Status: cache.StatusProcessed, Result: result})
}

// Fail implements cache.Ledger.Fail.
func (l *EventLedger) Fail(ctx context.Context, eventID string, reason string) error {
	return l.write(ctx, &cache.Entry{EventID: eventID, Status: cache.StatusFailed, Reason: reason})
}

// Close is a no-op; the redis client is owned by the caller.
func (l *EventLedger) Close() error { return nil }
