package validation_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
	"github.com/listenupapp/bookclub-server/internal/validation"
)

type commentRequest struct {
	Text   string `json:"text" validate:"nonblank,maxrunes=10"`
	Rating *int   `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Kind   string `json:"kind" validate:"required,oneof=review list"`
}

func intPtr(v int) *int { return &v }

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(commentRequest{Text: "héllo", Rating: intPtr(5), Kind: "review"}))
	assert.NoError(t, v.Validate(commentRequest{Text: "ok", Kind: "list"}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       commentRequest
		wantField string
	}{
		{name: "blank text", req: commentRequest{Text: "   ", Kind: "review"}, wantField: "text"},
		{name: "text too long", req: commentRequest{Text: strings.Repeat("é", 11), Kind: "review"}, wantField: "text"},
		{name: "rating too high", req: commentRequest{Text: "x", Rating: intPtr(6), Kind: "review"}, wantField: "rating"},
		{name: "rating too low", req: commentRequest{Text: "x", Rating: intPtr(0), Kind: "review"}, wantField: "rating"},
		{name: "unknown kind", req: commentRequest{Text: "x", Kind: "comment"}, wantField: "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var derr *domainerrors.Error
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, http.StatusBadRequest, derr.HTTPStatus())
			assert.Contains(t, derr.Error(), tt.wantField)

			details, ok := derr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_MaxRunesCountsRunes(t *testing.T) {
	v := validation.New()
	// Ten multi-byte runes is within the limit even though it is 20 bytes.
	assert.NoError(t, v.Validate(commentRequest{Text: strings.Repeat("é", 10), Kind: "list"}))
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("text", "fine", "nonblank"))

	err := v.Var("text", " ", "nonblank")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
	assert.Contains(t, err.Error(), "text is required")
}
