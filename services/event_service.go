package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/walletgate/origo/cache"
	"github.com/walletgate/origo/domain"
	serrors "github.com/walletgate/origo/errors"
	"github.com/walletgate/origo/platform"
)

// ActionKind names a backend action implied by an event. Interpreters only
// describe required actions; carrying them out (lifecycle write-backs,
// notifications, access-control sync) is the caller's job.
type ActionKind string

const (
	ActionMarkPassActive          ActionKind = "mark_pass_active"
	ActionNotifyUser              ActionKind = "notify_user"
	ActionDisablePhysicalAccess   ActionKind = "disable_physical_access"
	ActionAuditSuspension         ActionKind = "audit_suspension"
	ActionGenerateIssuanceToken   ActionKind = "generate_issuance_token"
	ActionProceedWithPassCreation ActionKind = "proceed_with_pass_creation"
	ActionCleanupUserRecords      ActionKind = "cleanup_user_records"
	ActionRevokePhysicalAccess    ActionKind = "revoke_physical_access"
	ActionNone                    ActionKind = "none"
)

// Interpretation is the structured "what happened / what is implied" result
// of ingesting one event.
type Interpretation struct {
	EventID    string            `json:"event_id"`
	EventType  string            `json:"event_type"`
	Subject    string            `json:"subject"`
	OccurredAt time.Time         `json:"occurred_at"`
	Summary    string            `json:"summary"`
	Actions    []ActionKind      `json:"actions"`
	PassStatus domain.PassStatus `json:"pass_status,omitempty"` // implied status for a pass subject
	UserID     string            `json:"user_id,omitempty"`

	// Applied is false when the event carried a pass status older than the
	// mirrored state: a detected stale no-op, not an error.
	Applied bool `json:"applied"`
	// Replayed is true when the result was answered from the dedup ledger
	// without invoking a handler again.
	Replayed bool `json:"replayed"`
}

// Interpreter maps one event to its interpretation. Implementations must be
// free of side effects.
type Interpreter func(ev *domain.CloudEvent) (*Interpretation, error)

// EventPipeline ingests CloudEvents pushed over webhooks or pulled during
// recovery, guaranteeing at-most-once handler invocation per event id and
// per-subject non-decreasing-time state commits.
type EventPipeline struct {
	ledger cache.Ledger
	mirror domain.StateStore
	api    platform.API

	mu       sync.RWMutex
	handlers map[string]Interpreter
	fallback Interpreter
}

// NewEventPipeline creates a pipeline with the default interpreter set
// registered. mirror may be nil when no local state tracking is wanted.
func NewEventPipeline(ledger cache.Ledger, mirror domain.StateStore, api platform.API) *EventPipeline {
	p := &EventPipeline{
		ledger:   ledger,
		mirror:   mirror,
		api:      api,
		handlers: make(map[string]Interpreter),
		fallback: interpretGeneric,
	}
	p.registerDefaults()
	return p
}

// RegisterInterpreter installs or replaces the handler for one event type.
// The type set is open; unregistered types fall back to the generic
// interpreter.
func (p *EventPipeline) RegisterInterpreter(eventType string, fn Interpreter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[eventType] = fn
}

func (p *EventPipeline) interpreterFor(eventType string) Interpreter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if fn, ok := p.handlers[eventType]; ok {
		return fn
	}
	return p.fallback
}

// parseEvent validates the envelope. A json time decode failure surfaces as
// a malformed-event error, as do missing id/type/subject.
func parseEvent(raw []byte) (*domain.CloudEvent, error) {
	var ev domain.CloudEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, serrors.NewMalformedEvent("unparsable event envelope: " + err.Error())
	}
	switch {
	case ev.ID == "":
		return nil, serrors.NewMalformedEvent("event id is required")
	case ev.Type == "":
		return nil, serrors.NewMalformedEvent("event type is required")
	case ev.Subject == "":
		return nil, serrors.NewMalformedEvent("event subject is required")
	case ev.Time.IsZero():
		return nil, serrors.NewMalformedEvent("event time is missing or unparsable")
	}
	return &ev, nil
}

// Ingest processes one raw CloudEvent. A previously processed id returns the
// cached interpretation without invoking any handler; a previously failed id
// is attempted again.
func (p *EventPipeline) Ingest(ctx context.Context, raw []byte) (*Interpretation, error) {
	ev, err := parseEvent(raw)
	if err != nil {
		return nil, err
	}

	entry, started, err := p.ledger.Begin(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	if !started {
		switch entry.Status {
		case cache.StatusProcessed:
			var cached Interpretation
			if err := json.Unmarshal(entry.Result, &cached); err != nil {
				return nil, serrors.NewMalformedEvent("corrupt cached interpretation for " + ev.ID)
			}
			cached.Replayed = true
			log.Ctx(ctx).Debug().Str("event_id", ev.ID).Msg("duplicate event answered from ledger")
			return &cached, nil
		default:
			return nil, serrors.NewEventInFlight(ev.ID)
		}
	}

	interp, err := p.interpreterFor(ev.Type)(ev)
	if err != nil {
		if ferr := p.ledger.Fail(ctx, ev.ID, err.Error()); ferr != nil {
			log.Ctx(ctx).Warn().Err(ferr).Str("event_id", ev.ID).Msg("failed to mark ledger entry failed")
		}
		return nil, err
	}
	interp.Applied = true

	if err := p.commitState(ctx, ev, interp); err != nil {
		if ferr := p.ledger.Fail(ctx, ev.ID, err.Error()); ferr != nil {
			log.Ctx(ctx).Warn().Err(ferr).Str("event_id", ev.ID).Msg("failed to mark ledger entry failed")
		}
		return nil, err
	}

	result, err := json.Marshal(interp)
	if err != nil {
		return nil, err
	}
	if err := p.ledger.Complete(ctx, ev.ID, result); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str("event_id", ev.ID).
		Str("event_type", ev.Type).
		Str("subject", ev.Subject).
		Bool("applied", interp.Applied).
		Msg("event ingested")
	return interp, nil
}

// commitState updates the pass-state mirror when the interpretation implies
// a status for a pass subject. The mirror rejects writes older than what it
// holds; such an event stays successfully processed but is flagged as a
// stale no-op.
func (p *EventPipeline) commitState(ctx context.Context, ev *domain.CloudEvent, interp *Interpretation) error {
	if p.mirror == nil || interp.PassStatus == "" {
		return nil
	}
	kind, id := ev.SubjectResource()
	if kind != "pass" || id == "" {
		return nil
	}

	applied, err := p.mirror.Apply(ctx, domain.PassState{
		PassID:    id,
		Status:    interp.PassStatus,
		UserID:    interp.UserID,
		UpdatedAt: ev.Time,
	})
	if err != nil {
		return err
	}
	interp.Applied = applied
	if !applied {
		log.Ctx(ctx).Debug().
			Str("event_id", ev.ID).
			Str("pass_id", id).
			Time("event_time", ev.Time).
			Msg("stale event, newer state already mirrored")
	}
	return nil
}

// RecoveryResult is the per-event outcome of one replay batch.
type RecoveryResult struct {
	EventID        string
	Interpretation *Interpretation
	Err            error
}

// Recover queries the platform for failed deliveries at or after since and
// replays them through Ingest in ascending time order, so that events for
// the same subject cannot apply a stale status over a newer one. Items are
// independent: one failure does not abort the batch.
func (p *EventPipeline) Recover(ctx context.Context, since time.Time) ([]RecoveryResult, error) {
	events, err := p.api.FailedEvents(ctx, since)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })

	results := make([]RecoveryResult, 0, len(events))
	for _, ev := range events {
		raw, err := json.Marshal(ev)
		if err != nil {
			results = append(results, RecoveryResult{EventID: ev.ID, Err: err})
			continue
		}
		interp, err := p.Ingest(ctx, raw)
		results = append(results, RecoveryResult{EventID: ev.ID, Interpretation: interp, Err: err})
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("event_id", ev.ID).Msg("recovery replay failed for event")
		}
	}

	log.Ctx(ctx).Info().
		Time("since", since).
		Int("replayed", len(results)).
		Msg("recovery batch finished")
	return results, nil
}
