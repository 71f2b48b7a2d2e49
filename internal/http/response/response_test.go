package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]string{"id": "rev-1"}, discardLogger())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	body := decode(t, w)
	assert.Equal(t, float64(Version), body["v"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"id": "rev-1"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestJSON_NilLogger(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, nil, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "data")
}

func TestError_UsesCodeStatus(t *testing.T) {
	tests := []struct {
		code   domainerrors.Code
		status int
	}{
		{domainerrors.CodeUnauthenticated, http.StatusUnauthorized},
		{domainerrors.CodeUnauthorized, http.StatusForbidden},
		{domainerrors.CodeNotFound, http.StatusNotFound},
		{domainerrors.CodeValidation, http.StatusBadRequest},
		{domainerrors.CodeTransient, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			Error(w, tt.code, "nope", nil)

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, string(tt.code), body["code"])
			assert.Equal(t, "nope", body["message"])
		})
	}
}

func TestTooManyRequests_SetsRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequests(w, 1500*time.Millisecond, discardLogger())

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	body := decode(t, w)
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.Equal(t, true, body["retryable"])
}

func TestTooManyRequests_MinimumOneSecond(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequests(w, 0, nil)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestHandleError_DomainError(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domainerrors.Unauthorized("You can only delete your own comments."), discardLogger())

	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decode(t, w)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
	assert.Equal(t, "You can only delete your own comments.", body["message"])
}

func TestHandleError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domainerrors.Wrap(errors.New("database is locked"), domainerrors.CodeTransient, "insert comment"), nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.NotContains(t, body["message"], "locked")
	assert.Equal(t, true, body["retryable"])
}

func TestHandleError_UnknownError(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, errors.New("boom"), discardLogger())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "INTERNAL", body["code"])
	assert.NotEqual(t, "boom", body["message"])
}

func TestEnvelope_OmitEmpty(t *testing.T) {
	data, err := json.Marshal(Success(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"success":true}`, string(data))

	data, err = json.Marshal(Failure("gone"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"success":false,"error":"gone"}`, string(data))
}
