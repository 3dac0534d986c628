package attendance

import (
	"errors"
	"fmt"
	"strings"
)

// State errors. These are expected outcomes of the daily clock machine,
// returned alongside the current record where one exists.
var (
	ErrAlreadyClockedIn  = errors.New("already clocked in today")
	ErrAlreadyClockedOut = errors.New("already clocked out today")
	ErrNotClockedIn      = errors.New("not clocked in today")
)

// ErrEmployeeNotFound is returned by a Directory for unknown employee ids.
var ErrEmployeeNotFound = errors.New("employee not found")

// IsStateError reports whether err is one of the clock state errors.
func IsStateError(err error) bool {
	return errors.Is(err, ErrAlreadyClockedIn) ||
		errors.Is(err, ErrAlreadyClockedOut) ||
		errors.Is(err, ErrNotClockedIn)
}

// ValidationError rejects malformed input before storage is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransientError wraps a storage or network failure. It is surfaced to the
// caller as is; nothing in this package retries.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

const maxEmployeeIDLen = 64

// ValidateEmployeeID checks that id is a usable opaque identifier.
func ValidateEmployeeID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return &ValidationError{Field: "employee_id", Reason: "required"}
	case len(id) > maxEmployeeIDLen:
		return &ValidationError{Field: "employee_id", Reason: "too long"}
	case strings.ContainsAny(id, " \t\r\n"):
		return &ValidationError{Field: "employee_id", Reason: "must not contain whitespace"}
	}
	return nil
}
