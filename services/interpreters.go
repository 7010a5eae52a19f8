package services

import (
	"fmt"

	"github.com/walletgate/origo/domain"
)

// registerDefaults installs the built-in interpreter table. Callers may
// override any entry through RegisterInterpreter.
func (p *EventPipeline) registerDefaults() {
	p.handlers[domain.EventTypePassUpdated] = interpretPassUpdated
	p.handlers[domain.EventTypePassCreated] = interpretPassCreated
	p.handlers[domain.EventTypePassProvisioned] = interpretPassProvisioned
	p.handlers[domain.EventTypeUserCreated] = interpretUserCreated
	p.handlers[domain.EventTypeUserDeleted] = interpretUserDeleted
}

func baseInterpretation(ev *domain.CloudEvent) *Interpretation {
	return &Interpretation{
		EventID:    ev.ID,
		EventType:  ev.Type,
		Subject:    ev.Subject,
		OccurredAt: ev.Time,
		UserID:     ev.DataString("userId"),
	}
}

// interpretPassUpdated maps the provisioning status reported by the platform
// onto the implied local action set.
func interpretPassUpdated(ev *domain.CloudEvent) (*Interpretation, error) {
	interp := baseInterpretation(ev)
	status := ev.DataString("status")

	switch status {
	case "COMPLETED":
		interp.Summary = fmt.Sprintf("pass %s provisioning completed; user %s now holds an active credential", ev.Subject, interp.UserID)
		interp.Actions = []ActionKind{ActionMarkPassActive, ActionNotifyUser}
		interp.PassStatus = domain.PassStatusActive
	case "SUSPENDED":
		interp.Summary = fmt.Sprintf("pass %s has been suspended", ev.Subject)
		interp.Actions = []ActionKind{ActionDisablePhysicalAccess, ActionAuditSuspension}
		interp.PassStatus = domain.PassStatusSuspended
	default:
		interp.Summary = fmt.Sprintf("pass %s updated to status %s", ev.Subject, status)
		interp.Actions = []ActionKind{ActionNone}
		if s := domain.PassStatus(status); s.Valid() {
			interp.PassStatus = s
		}
	}
	return interp, nil
}

func interpretPassCreated(ev *domain.CloudEvent) (*Interpretation, error) {
	interp := baseInterpretation(ev)
	interp.Summary = fmt.Sprintf("new pass %s created for user %s", ev.Subject, interp.UserID)
	interp.Actions = []ActionKind{ActionGenerateIssuanceToken}
	interp.PassStatus = domain.PassStatusPending
	return interp, nil
}

func interpretPassProvisioned(ev *domain.CloudEvent) (*Interpretation, error) {
	interp := baseInterpretation(ev)
	interp.Summary = fmt.Sprintf("pass %s provisioned to the user's wallet", ev.Subject)
	interp.Actions = []ActionKind{ActionMarkPassActive, ActionNotifyUser}
	interp.PassStatus = domain.PassStatusActive
	return interp, nil
}

func interpretUserCreated(ev *domain.CloudEvent) (*Interpretation, error) {
	interp := baseInterpretation(ev)
	interp.Summary = fmt.Sprintf("user %s created on the platform", ev.Subject)
	interp.Actions = []ActionKind{ActionProceedWithPassCreation}
	return interp, nil
}

func interpretUserDeleted(ev *domain.CloudEvent) (*Interpretation, error) {
	interp := baseInterpretation(ev)
	interp.Summary = fmt.Sprintf("user %s deleted from the platform", ev.Subject)
	interp.Actions = []ActionKind{ActionCleanupUserRecords, ActionRevokePhysicalAccess}
	return interp, nil
}

// interpretGeneric is the fallback for event types with no dedicated
// handler.
func interpretGeneric(ev *domain.CloudEvent) (*Interpretation, error) {
	interp := baseInterpretation(ev)
	interp.Summary = fmt.Sprintf("event %s received for %s", ev.Type, ev.Subject)
	interp.Actions = []ActionKind{ActionNone}
	return interp, nil
}
