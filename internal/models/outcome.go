package models

import (
	"errors"
	"fmt"
)

// AuthOutcome distinguishes expected endings of an orchestrator call.
type AuthOutcome string

const (
	OutcomeLoggedIn           AuthOutcome = "LOGGED_IN"
	OutcomeNotFound           AuthOutcome = "NOT_FOUND"
	OutcomeInsufficientParams AuthOutcome = "INSUFFICIENT_PARAMS"
)

// ErrorKind classifies every failure an orchestrator operation can report.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	// ExternalRejection: a remote service refused the request or was unreachable.
	ErrorKindExternalRejection
	// InvariantViolation: a credential was created but its user record was not.
	ErrorKindInvariantViolation
	// IncompleteIdentity: the provider flow did not yield usable identity data.
	ErrorKindIncompleteIdentity
	// NotRegistered: a valid external identity has no application user.
	ErrorKindNotRegistered
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindExternalRejection:
		return "ExternalRejection"
	case ErrorKindInvariantViolation:
		return "InvariantViolation"
	case ErrorKindIncompleteIdentity:
		return "IncompleteIdentity"
	case ErrorKindNotRegistered:
		return "NotRegistered"
	}
	return "Unknown"
}

// AuthError is the single error type returned by orchestrator operations.
type AuthError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError wraps err with a kind and the failing operation name.
func NewAuthError(kind ErrorKind, op string, err error) *AuthError {
	return &AuthError{Kind: kind, Op: op, Err: err}
}

// KindOf returns the ErrorKind carried by err, or ErrorKindUnknown.
func KindOf(err error) ErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ErrorKindUnknown
}

// AuthResult is returned by orchestrator operations. Transition is nil when
// the session must not change.
type AuthResult struct {
	Outcome    AuthOutcome
	User       *ApplicationUser
	Transition *SessionTransition
}
