// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure. Every primary operation aborts with
// zero side effects for all kinds except PartialFailure, which means the
// primary commit succeeded but a best-effort secondary write did not.
type Kind string

const (
	KindInvalidArgument       Kind = "INVALID_ARGUMENT"
	KindForbidden             Kind = "FORBIDDEN"
	KindNotFound              Kind = "NOT_FOUND"
	KindInsufficientInventory Kind = "INSUFFICIENT_INVENTORY"
	KindConflict              Kind = "CONFLICT"
	KindPartialFailure        Kind = "PARTIAL_FAILURE"
	KindInternal              Kind = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithDetails attaches structured context for the caller, e.g. the
// orphaned ids a PartialFailure left behind.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

func InvalidArgument(message string) *Error { return New(KindInvalidArgument, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func InsufficientInventory(message string) *Error {
	return New(KindInsufficientInventory, message)
}
func Conflict(message string) *Error { return New(KindConflict, message) }
func PartialFailure(message string, cause error) *Error {
	return Wrap(KindPartialFailure, message, cause)
}
func Internal(message string, cause error) *Error { return Wrap(KindInternal, message, cause) }

// KindOf extracts the classification from any error in the chain,
// defaulting to internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
