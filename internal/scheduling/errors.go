package scheduling

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOutOfRange is returned when a requested time range falls outside
	// the parent availability window.
	ErrOutOfRange = errors.New("requested time is outside the availability window")
	// ErrConflict is returned when a requested time range overlaps a
	// non-Rejected consultation on the same availability window.
	ErrConflict = errors.New("requested time overlaps an existing consultation")
	// ErrNotOwner is returned when a doctor attempts to transition a
	// consultation belonging to another doctor.
	ErrNotOwner = errors.New("consultation belongs to another doctor")
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports an illegal consultation status change.
type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}
