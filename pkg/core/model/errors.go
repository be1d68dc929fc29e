package model

import (
	"errors"
	"fmt"
)

// ValidationError reports a named precondition that a requested operation
// violated. Condition is a stable machine-readable identifier; Message is
// human-readable.
type ValidationError struct {
	Condition string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Condition, e.Message)
}

// NewValidationError creates a ValidationError for the given condition
func NewValidationError(condition, message string) *ValidationError {
	return &ValidationError{Condition: condition, Message: message}
}

// AsValidationError unwraps err into a ValidationError if it is one
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// ConflictError reports that an optimistic-concurrency guard failed at write
// time: the record was no longer in the state the caller observed. Distinct
// from ValidationError so callers can refresh and retry.
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting update on %s %s: state changed since read", e.Resource, e.ID)
}

// IsConflict reports whether err is (or wraps) a ConflictError
func IsConflict(err error) bool {
	var cerr *ConflictError
	return errors.As(err, &cerr)
}

// CollaboratorError reports that a store or directory fetch failed. It is
// always terminal for the call that hit it; an empty result must never stand
// in for a failed fetch.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// NewCollaboratorError wraps a fetch failure from the named collaborator
func NewCollaboratorError(collaborator string, err error) *CollaboratorError {
	return &CollaboratorError{Collaborator: collaborator, Err: err}
}
