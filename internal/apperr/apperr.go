package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a caller-facing failure. Anything not carrying a Kind is
// treated as KindInternal at the HTTP boundary.
type Kind string

const (
	KindValidationFailed       Kind = "VALIDATION_FAILED"
	KindInvalidAddress         Kind = "INVALID_ADDRESS"
	KindNoPriceAvailable       Kind = "NO_PRICE_AVAILABLE"
	KindWeightRequired         Kind = "WEIGHT_REQUIRED"
	KindInvalidStateTransition Kind = "INVALID_STATE_TRANSITION"
	KindNotFound               Kind = "NOT_FOUND"
	KindInternal               Kind = "INTERNAL"
)

// Error is the single error type crossing service boundaries. Violations is
// only populated for validation failures and lists every violation found, not
// just the first.
type Error struct {
	Kind       Kind
	Message    string
	Violations []string
	Cause      error
}

func (e *Error) Error() string {
	if len(e.Violations) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Violations, "; "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a caller-facing error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a caller-facing error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation creates a VALIDATION_FAILED error carrying all violations found.
func Validation(violations []string) *Error {
	return &Error{
		Kind:       KindValidationFailed,
		Message:    "validation failed",
		Violations: violations,
	}
}

// KindOf extracts the kind from err, or KindInternal if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
