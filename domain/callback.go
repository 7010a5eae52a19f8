package domain

import "time"

// EventFilter selects which event types a callback registration receives.
// An empty EventTypes slice subscribes to all types. Membership is evaluated
// by the platform at delivery time; locally the filter is only stored and
// transmitted.
type EventFilter struct {
	EventTypes []string `json:"eventTypes"`
}

// UserEventsFilter subscribes to user management events only.
func UserEventsFilter() EventFilter {
	return EventFilter{EventTypes: []string{
		EventTypeUserCreated, EventTypeUserUpdated, EventTypeUserDeleted,
	}}
}

// PassEventsFilter subscribes to pass/credential events only.
func PassEventsFilter() EventFilter {
	return EventFilter{EventTypes: []string{
		EventTypePassCreated, EventTypePassUpdated,
		EventTypePassDeleted, EventTypePassProvisioned,
	}}
}

// AllEventsFilter subscribes to every event type.
func AllEventsFilter() EventFilter {
	return EventFilter{}
}

// CallbackRegistration is a webhook subscription held by the platform.
// HTTPHeader and Secret form a paired signing credential: both present or
// both absent. The secret is transmitted at registration time only and is
// never returned by read operations.
type CallbackRegistration struct {
	ID         string      `json:"id,omitempty"`
	URL        string      `json:"url"`
	Filter     EventFilter `json:"filter"`
	HTTPHeader string      `json:"httpHeader,omitempty"`
	Secret     string      `json:"secret,omitempty"`
	CreatedAt  time.Time   `json:"created,omitempty"`
}

// Redacted returns a copy safe for listing: the signing secret is dropped,
// the header name is kept so operators can see that signing is configured.
func (r CallbackRegistration) Redacted() CallbackRegistration {
	r.Secret = ""
	return r
}
