package store

import (
	"fmt"
	"net/http"
)

// Error is a storage error with an HTTP status code. Errors derived from the
// same sentinel via WithMessage or WithCause match it under errors.Is.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
	kind    string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors derived from the same sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind != "" && e.kind == t.kind
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err, kind: e.kind}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err, kind: e.kind}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
		kind:    "not_found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
		kind:    "already_exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
		kind:    "invalid_input",
	}

	// ErrForbidden is returned when a conditional mutation found the row but
	// the caller does not own it.
	ErrForbidden = &Error{
		Code:    http.StatusForbidden,
		Message: "forbidden",
		kind:    "forbidden",
	}

	// ErrTransient wraps SQLITE_BUSY and SQLITE_LOCKED after busy_timeout
	// has been exhausted.
	ErrTransient = &Error{
		Code:    http.StatusServiceUnavailable,
		Message: "store temporarily unavailable",
		kind:    "transient",
	}

	// ErrReferenceMissing is returned when a foreign key target vanished
	// between validation and insert.
	ErrReferenceMissing = &Error{
		Code:    http.StatusNotFound,
		Message: "referenced resource not found",
		kind:    "reference_missing",
	}
)
