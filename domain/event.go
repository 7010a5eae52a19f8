package domain

import (
	"strings"
	"time"
)

// Event types delivered by the platform. The set is open: unknown types are
// still ingested and interpreted generically.
const (
	EventTypeUserCreated = "USER_CREATED"
	EventTypeUserUpdated = "USER_UPDATED"
	EventTypeUserDeleted = "USER_DELETED"

	EventTypePassCreated     = "PASS_CREATED"
	EventTypePassUpdated     = "PASS_UPDATED"
	EventTypePassDeleted     = "PASS_DELETED"
	EventTypePassProvisioned = "PASS_PROVISIONED"

	EventTypeCredentialSuspended = "CREDENTIAL_SUSPENDED"
	EventTypeCredentialResumed   = "CREDENTIAL_RESUMED"
)

// CloudEvent is the event envelope used for webhook payloads. Events are
// transient: constructed per delivery, not persisted beyond dedup
// bookkeeping.
type CloudEvent struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Subject     string         `json:"subject"` // resource locator, e.g. "pass/<id>"
	Time        time.Time      `json:"time"`
	Data        map[string]any `json:"data"`
	Source      string         `json:"source,omitempty"`
	SpecVersion string         `json:"specversion,omitempty"`
}

// SubjectResource splits the subject locator into resource kind and id.
// "pass/45d3d21e" yields ("pass", "45d3d21e"). A subject without a slash is
// returned as the id with an empty kind.
func (e *CloudEvent) SubjectResource() (kind, id string) {
	if i := strings.IndexByte(e.Subject, '/'); i >= 0 {
		return e.Subject[:i], e.Subject[i+1:]
	}
	return "", e.Subject
}

// DataString returns a string field from the event payload, or "" when the
// field is absent or not a string.
func (e *CloudEvent) DataString(key string) string {
	v, _ := e.Data[key].(string)
	return v
}
