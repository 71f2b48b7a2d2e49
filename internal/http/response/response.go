// Package response provides the JSON envelope shared by huma operations and
// the plain chi handlers (rate limiting, the notification stream).
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
)

// Version is the envelope format version. Clients reject envelopes with a
// version they do not know.
const Version = 1

// Envelope wraps successful responses and simple errors.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorEnvelope wraps coded errors.
type ErrorEnvelope struct {
	Version   int    `json:"v"`
	Success   bool   `json:"success"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Success wraps data in a success envelope.
func Success(data any) Envelope {
	return Envelope{Version: Version, Success: true, Data: data}
}

// Failure wraps a plain message in an error envelope.
func Failure(message string) Envelope {
	return Envelope{Version: Version, Success: false, Error: message}
}

// CodedFailure wraps a coded error.
func CodedFailure(code domainerrors.Code, message string, details any) ErrorEnvelope {
	return ErrorEnvelope{
		Version:   Version,
		Success:   false,
		Code:      string(code),
		Message:   message,
		Details:   details,
		Retryable: code.Retryable(),
	}
}

func write(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// JSON writes data in a success envelope.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Success(data), logger)
}

// Error writes a coded error envelope.
func Error(w http.ResponseWriter, code domainerrors.Code, message string, logger *slog.Logger) {
	write(w, code.HTTPStatus(), CodedFailure(code, message, nil), logger)
}

// Unauthenticated writes a 401.
func Unauthenticated(w http.ResponseWriter, logger *slog.Logger) {
	Error(w, domainerrors.CodeUnauthenticated, domainerrors.Unauthenticated("").UserMessage(), logger)
}

// TooManyRequests writes a 429 with a Retry-After header rounded up to
// whole seconds.
func TooManyRequests(w http.ResponseWriter, retryAfter time.Duration, logger *slog.Logger) {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	Error(w, domainerrors.CodeRateLimit, domainerrors.ErrRateLimited.UserMessage(), logger)
}

// HandleError writes the user-facing form of err. Non-domain errors become
// a generic 500 and are logged.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		write(w, domainErr.HTTPStatus(), CodedFailure(domainErr.Code, domainErr.UserMessage(), domainErr.Details), logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	Error(w, domainerrors.CodeInternal, domainerrors.ErrInternal.UserMessage(), logger)
}
