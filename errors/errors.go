// Package errors defines the integration's error taxonomy. Every failure
// carries the violated condition (which state, which field, which id) so a
// caller can distinguish "retry this" from "this request is wrong".
package errors

import (
	"errors"
	"fmt"
)

// Error codes. Validation, not-found and invalid-transition errors are never
// retryable; network errors are retryable with backoff.
const (
	CodeAuthentication   = "authentication_error"
	CodeCredential       = "credential_error"
	CodeValidation       = "validation_error"
	CodeNotFound         = "not_found"
	CodeInvalidState     = "invalid_state_transition"
	CodeMalformedEvent   = "malformed_event"
	CodeNetwork          = "network_error"
	CodeDeliveryFailure  = "delivery_failure"
	CodeEventInFlight    = "event_in_flight"
)

// Error is the standard error shape returned across the module.
type Error struct {
	Code     string `json:"error"`
	Message  string `json:"error_description,omitempty"`
	Resource string `json:"resource,omitempty"` // resource kind, e.g. "pass"
	ID       string `json:"id,omitempty"`       // offending identifier
	Status   int    `json:"-"`                  // upstream HTTP status, when known

	cause error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (%s %s)", e.Code, e.Message, e.Resource, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two taxonomy errors by code, so sentinel-style checks like
// errors.Is(err, &Error{Code: CodeNotFound}) work.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the failure is a transient transport condition.
// 4xx responses indicate a request defect and are never retryable.
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodeNetwork:
		return true
	case CodeAuthentication, CodeCredential:
		return e.Status == 0 || e.Status >= 500
	}
	return false
}

func NewAuthenticationError(status int, body string) *Error {
	return &Error{
		Code:    CodeAuthentication,
		Message: fmt.Sprintf("credential exchange rejected: %s", body),
		Status:  status,
	}
}

func NewCredentialError(msg string, cause error) *Error {
	return &Error{Code: CodeCredential, Message: msg, cause: cause}
}

func NewValidationError(field, msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Resource: field}
}

func NewNotFound(resource, id string) *Error {
	return &Error{
		Code:     CodeNotFound,
		Message:  "unknown " + resource,
		Resource: resource,
		ID:       id,
	}
}

func NewInvalidStateTransition(passID string, current, attempted string) *Error {
	return &Error{
		Code:     CodeInvalidState,
		Message:  fmt.Sprintf("cannot %s a pass in state %s", attempted, current),
		Resource: "pass",
		ID:       passID,
	}
}

func NewMalformedEvent(msg string) *Error {
	return &Error{Code: CodeMalformedEvent, Message: msg, Resource: "event"}
}

func NewNetworkError(op string, cause error) *Error {
	return &Error{
		Code:    CodeNetwork,
		Message: fmt.Sprintf("%s: %v", op, cause),
		cause:   cause,
	}
}

func NewEventInFlight(eventID string) *Error {
	return &Error{
		Code:     CodeEventInFlight,
		Message:  "event is currently being processed",
		Resource: "event",
		ID:       eventID,
	}
}

// IsNotFound reports whether err is a not-found taxonomy error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeNotFound
}

// IsRetryable reports whether err may be retried with backoff. Unknown error
// types are treated as not retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

// CodeOf extracts the taxonomy code of err, or "" for foreign errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
