// Package apperrors defines the typed error taxonomy surfaced by every
// core operation. Handlers branch on Kind, never on message text.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the stable machine-readable error class.
type Kind string

const (
	KindAuthenticationRequired Kind = "authentication_required"
	KindAccessDenied           Kind = "access_denied"
	KindCapacityExceeded       Kind = "capacity_exceeded"
	KindUniquenessViolation    Kind = "uniqueness_violation"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindNotFound               Kind = "not_found"
	KindValidation             Kind = "validation_error"
)

// Denial reasons carried by access_denied errors.
const (
	ReasonNotAMember         = "not_a_member"
	ReasonSuspended          = "suspended"
	ReasonInactive           = "inactive"
	ReasonMissingPermission  = "missing_permission"
	ReasonSecretaryProtected = "secretary_protected"
)

// Capacity kinds carried by capacity_exceeded errors.
const (
	CapacityMembers    = "members"
	CapacityExecutives = "executives"
)

// Error is a structured application error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`

	// Optional structured detail, populated per kind.
	Reason   string `json:"reason,omitempty"`   // access_denied, capacity_exceeded
	Entity   string `json:"entity,omitempty"`   // uniqueness, not_found, transitions
	Field    string `json:"field,omitempty"`    // uniqueness, validation
	From     string `json:"from,omitempty"`     // invalid_state_transition
	To       string `json:"to,omitempty"`       // invalid_state_transition
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AuthenticationRequired reports a request with no authenticated principal.
func AuthenticationRequired() *Error {
	return &Error{Kind: KindAuthenticationRequired, Message: "Authentication required."}
}

// AccessDenied reports a denied conference-scoped operation.
func AccessDenied(reason, message string) *Error {
	return &Error{Kind: KindAccessDenied, Reason: reason, Message: message}
}

// CapacityExceeded reports a full member or executive quota.
func CapacityExceeded(capacity string) *Error {
	return &Error{
		Kind:    KindCapacityExceeded,
		Reason:  capacity,
		Message: fmt.Sprintf("Conference %s capacity reached.", capacity),
	}
}

// Uniqueness reports a violated unique constraint.
func Uniqueness(entity, field, message string) *Error {
	return &Error{Kind: KindUniquenessViolation, Entity: entity, Field: field, Message: message}
}

// InvalidTransition reports a disallowed state machine transition.
func InvalidTransition(entity, from, to string) *Error {
	return &Error{
		Kind:    KindInvalidStateTransition,
		Entity:  entity,
		From:    from,
		To:      to,
		Message: fmt.Sprintf("%s cannot transition from %s to %s.", entity, from, to),
	}
}

// NotFound reports a missing entity.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: entity + " not found."}
}

// Validation reports an invalid field value.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// KindOf extracts the Kind from err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// AsError extracts the *Error from err, or nil.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
