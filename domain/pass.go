package domain

import "time"

// PassStatus is the lifecycle state of a pass.
type PassStatus string

const (
	PassStatusPending      PassStatus = "PENDING"      // Created, not yet provisioned
	PassStatusProvisioning PassStatus = "PROVISIONING" // Provisioning flow in progress
	PassStatusActive       PassStatus = "ACTIVE"       // Successfully provisioned
	PassStatusSuspended    PassStatus = "SUSPENDED"    // Temporarily disabled
	PassStatusCancelled    PassStatus = "CANCELLED"    // Deleted before activation
	PassStatusDeleted      PassStatus = "DELETED"      // Removed after activation
)

// Terminal reports whether no further transitions are possible from s.
func (s PassStatus) Terminal() bool {
	return s == PassStatusCancelled || s == PassStatusDeleted
}

// Valid reports whether s is a known lifecycle state.
func (s PassStatus) Valid() bool {
	switch s {
	case PassStatusPending, PassStatusProvisioning, PassStatusActive,
		PassStatusSuspended, PassStatusCancelled, PassStatusDeleted:
		return true
	}
	return false
}

// PassAction is a lifecycle operation applied to a pass.
type PassAction string

const (
	ActionProvision PassAction = "provision" // start the provisioning flow
	ActionActivate  PassAction = "activate"  // remote confirms provisioning
	ActionSuspend   PassAction = "suspend"
	ActionResume    PassAction = "resume"
	ActionCancel    PassAction = "cancel" // delete before activation
	ActionDelete    PassAction = "delete"
)

// passTransitions is the legality table for the pass state machine.
// Anything not listed here is an invalid transition.
var passTransitions = map[PassStatus]map[PassAction]PassStatus{
	PassStatusPending: {
		ActionProvision: PassStatusProvisioning,
		ActionCancel:    PassStatusCancelled,
	},
	PassStatusProvisioning: {
		ActionActivate: PassStatusActive,
		ActionDelete:   PassStatusDeleted,
	},
	PassStatusActive: {
		ActionSuspend: PassStatusSuspended,
		ActionDelete:  PassStatusDeleted,
	},
	PassStatusSuspended: {
		ActionResume: PassStatusActive,
		ActionDelete: PassStatusDeleted,
	},
}

// NextStatus resolves the state reached by applying action in the current
// state. The second return value is false when the transition is illegal.
func NextStatus(current PassStatus, action PassAction) (PassStatus, bool) {
	next, ok := passTransitions[current][action]
	return next, ok
}

// Credential is a sub-credential descriptor allocated under a pass.
type Credential struct {
	ID   string `bson:"id"   json:"id"`
	Type string `bson:"type" json:"type"` // e.g. "SEOS"
}

// Pass is a digital badge container issued to a user. The id is assigned by
// the platform at creation time and immutable afterwards.
type Pass struct {
	ID             string       `bson:"_id"              json:"id"`
	UserID         string       `bson:"user_id"          json:"userId"`
	PassTemplateID string       `bson:"pass_template_id" json:"passTemplateId"`
	Status         PassStatus   `bson:"status"           json:"status"`
	Platform       string       `bson:"platform,omitempty" json:"platform,omitempty"` // "APPLE" or "GOOGLE"
	Credentials    []Credential `bson:"credentials,omitempty" json:"credentials,omitempty"`
	CreatedAt      time.Time    `bson:"created_at"       json:"created,omitempty"`
}

// IssuanceToken is the one-time secret handed to the mobile SDK to provision
// a pass. It is short-lived and must never be persisted or logged.
type IssuanceToken struct {
	Token     string    `json:"issuanceToken"`
	PassID    string    `json:"passId"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}
