package component

import (
	"errors"
	"fmt"
)

// ErrUnknownEvent is returned by Dispatch when no handler is declared for
// the event name.
var ErrUnknownEvent = errors.New("unknown event")

// ViolationError represents a contract breach detected during commit.
//
// Violations include:
//   - In-place mutation: a value obtained from Cell.Read was mutated directly
//     instead of routed through Transition
//   - Unhashable state: a committed cell value contains the Absent marker
//   - Undeclared cell or memo reference during mount
//
// ViolationError includes structured fields for diagnostics. Violations are
// surfaced immediately and never retried: the model is deterministic, so a
// retry would reproduce the same result.
type ViolationError struct {
	// Code identifies the violation category.
	Code ViolationCode

	// Message is a human-readable description.
	Message string

	// Component identifies the affected instance.
	Component string

	// Cell identifies the affected state cell, when applicable.
	Cell string

	// Details contains additional context (e.g. expected vs observed hash).
	Details map[string]string
}

// ViolationCode categorizes contract violations.
type ViolationCode string

const (
	// ErrCodeMutatedInPlace indicates a read value was mutated directly
	// rather than transitioned.
	ErrCodeMutatedInPlace ViolationCode = "MUTATED_IN_PLACE"

	// ErrCodeUnhashableState indicates a committed cell value has no
	// canonical form (it contains the Absent marker or a forbidden type).
	ErrCodeUnhashableState ViolationCode = "UNHASHABLE_STATE"

	// ErrCodeUnknownCell indicates a behavior referenced a cell name the
	// declaration does not define.
	ErrCodeUnknownCell ViolationCode = "UNKNOWN_CELL"

	// ErrCodeBadMount indicates the behavior's mount hook failed to produce
	// a usable instance (no render function, duplicate handler, ...).
	ErrCodeBadMount ViolationCode = "BAD_MOUNT"
)

// Error implements the error interface.
func (e *ViolationError) Error() string {
	if e.Component != "" && e.Cell != "" {
		return fmt.Sprintf("%s: %s (component=%s, cell=%s)", e.Code, e.Message, e.Component, e.Cell)
	}
	if e.Component != "" {
		return fmt.Sprintf("%s: %s (component=%s)", e.Code, e.Message, e.Component)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsViolation reports whether err is a ViolationError with the given code.
func IsViolation(err error, code ViolationCode) bool {
	var v *ViolationError
	if errors.As(err, &v) {
		return v.Code == code
	}
	return false
}

// ThrownError wraps a panic or error raised by a handler or render function
// during dispatch. The simulator records it as a terminal trace entry; it is
// never silently swallowed.
type ThrownError struct {
	// Event is the event name whose dispatch raised.
	Event string

	// Phase is "handler", "commit", "memo", or "render".
	Phase string

	// Cause is the underlying error, or the recovered panic wrapped as one.
	Cause error
}

// Error implements the error interface.
func (e *ThrownError) Error() string {
	return fmt.Sprintf("thrown during dispatch of %q (%s): %v", e.Event, e.Phase, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ThrownError) Unwrap() error {
	return e.Cause
}
