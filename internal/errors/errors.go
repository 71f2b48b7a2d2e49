// Package errors provides the coded domain errors returned by the social services.
//
// Services return typed errors and handlers branch on the code:
//
//	if errors.Is(err, errors.ErrUnauthorized) {
//	    // identity present, not the owner
//	}
//
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    status := domainErr.HTTPStatus()
//	    msg := domainErr.UserMessage()
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	// CodeUnauthenticated means no current user was resolved for the request.
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	// CodeUnauthorized means a user was resolved but does not own the entity.
	CodeUnauthorized Code = "UNAUTHORIZED"
	// CodeTransient marks a store failure that is safe for the client to retry.
	CodeTransient Code = "TRANSIENT"

	CodeNotFound   Code = "NOT_FOUND"
	CodeConflict   Code = "CONFLICT"
	CodeValidation Code = "VALIDATION"
	CodeInternal   Code = "INTERNAL"
	CodeRateLimit  Code = "RATE_LIMITED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeTransient:
		return http.StatusServiceUnavailable
	case CodeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a client may safely repeat the request.
func (c Code) Retryable() bool {
	return c == CodeTransient || c == CodeRateLimit
}

// defaultMessages are shown to end users when the error carries no
// human-readable reason of its own.
var defaultMessages = map[Code]string{
	CodeUnauthenticated: "You need to sign in to do that.",
	CodeUnauthorized:    "You can only change content you created.",
	CodeNotFound:        "This content is no longer available.",
	CodeConflict:        "That change conflicts with existing content.",
	CodeValidation:      "Some of the submitted fields are invalid.",
	CodeTransient:       "Something went wrong. Please try again.",
	CodeInternal:        "Something went wrong. Please try again.",
	CodeRateLimit:       "You're doing that too often. Please slow down.",
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Retryable reports whether the error is transient.
func (e *Error) Retryable() bool {
	return e.Code.Retryable()
}

// UserMessage returns the message safe to show an end user.
// Authentication, ownership and validation failures keep their own reason;
// not-found, transient and internal failures collapse to a generic message
// so storage details never leak.
func (e *Error) UserMessage() string {
	switch e.Code {
	case CodeUnauthenticated, CodeUnauthorized, CodeValidation, CodeConflict, CodeRateLimit:
		if e.Message != "" {
			return e.Message
		}
	}
	if msg, ok := defaultMessages[e.Code]; ok {
		return msg
	}
	return defaultMessages[CodeInternal]
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrUnauthenticated = &Error{Code: CodeUnauthenticated, Message: "authentication required"}
	ErrUnauthorized    = &Error{Code: CodeUnauthorized, Message: "not the owner"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrConflict        = &Error{Code: CodeConflict, Message: "conflict"}
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation error"}
	ErrTransient       = &Error{Code: CodeTransient, Message: "temporarily unavailable"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
	ErrRateLimited     = &Error{Code: CodeRateLimit, Message: "rate limited"}
)

// Unauthenticated creates an unauthenticated error.
func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// Unauthorized creates an ownership error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Transient creates a retryable error.
func Transient(msg string) *Error {
	return &Error{Code: CodeTransient, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// CodeOf returns the code carried by err, or CodeInternal when err is not
// a domain error.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
