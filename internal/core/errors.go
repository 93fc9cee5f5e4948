package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the invoicing services. Adapters map them to
// transport status codes with errors.Is.
var (
	// ErrInvalidInput is returned before any write when submitted data is malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when no acting owner is present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned for unknown ids and tokens, and for rows owned by someone else.
	ErrNotFound = errors.New("not found")

	// ErrIllegalTransition is returned when a status change or edit violates the lifecycle.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrAllocationFailure is returned when the invoice number counter could not be advanced.
	ErrAllocationFailure = errors.New("invoice number allocation failed")

	// ErrDownstreamFailure is returned when the email provider or renderer fails.
	ErrDownstreamFailure = errors.New("downstream failure")
)

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TransitionError reports a rejected lifecycle change.
type TransitionError struct {
	From InvoiceStatus
	To   InvoiceStatus
	// Action is set for non-status operations such as "edit" or "send".
	Action string
}

func (e *TransitionError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("cannot %s invoice in status %s", e.Action, e.From)
	}
	return fmt.Sprintf("cannot move invoice from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}
