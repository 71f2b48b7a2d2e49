package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

func TestInteraction_DefaultsToEmpty(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.user(t, "usr-alice", "Alice")
	ts.book(t, "bk-dune", "Dune", "Frank Herbert")

	resp := ts.api.Get("/api/v1/interactions/bk-dune", alice)
	requireStatus(t, resp, http.StatusOK)

	i := decode[domain.Interaction](t, resp).Data
	assert.Equal(t, "bk-dune", i.BookID)
	assert.False(t, i.IsRead)
	assert.Nil(t, i.Rating)

	requireStatus(t, ts.api.Get("/api/v1/interactions/bk-missing", alice), http.StatusNotFound)
}

func TestInteraction_PatchAndClear(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.user(t, "usr-alice", "Alice")
	ts.book(t, "bk-dune", "Dune", "Frank Herbert")

	resp := ts.api.Patch("/api/v1/interactions/bk-dune", alice, map[string]any{
		"is_on_watchlist": true,
		"rating":          3,
	})
	requireStatus(t, resp, http.StatusOK)
	i := decode[domain.Interaction](t, resp).Data
	assert.True(t, i.IsOnWatchlist)
	require.NotNil(t, i.Rating)
	assert.Equal(t, 3, *i.Rating)

	// Omitted fields are untouched.
	resp = ts.api.Patch("/api/v1/interactions/bk-dune", alice, map[string]any{"is_owned": true})
	requireStatus(t, resp, http.StatusOK)
	i = decode[domain.Interaction](t, resp).Data
	assert.True(t, i.IsOnWatchlist)
	assert.True(t, i.IsOwned)

	resp = ts.api.Patch("/api/v1/interactions/bk-dune", alice, map[string]any{"clear_rating": true})
	requireStatus(t, resp, http.StatusOK)
	assert.Nil(t, decode[domain.Interaction](t, resp).Data.Rating)

	resp = ts.api.Get("/api/v1/interactions", alice)
	requireStatus(t, resp, http.StatusOK)
	all := decode[InteractionsResponse](t, resp).Data.Interactions
	require.Len(t, all, 1)
	assert.Equal(t, "bk-dune", all[0].BookID)
}

func TestInteraction_InvalidRating(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.user(t, "usr-alice", "Alice")
	ts.book(t, "bk-dune", "Dune", "Frank Herbert")

	resp := ts.api.Patch("/api/v1/interactions/bk-dune", alice, map[string]any{"rating": 7})
	requireStatus(t, resp, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION", decode[any](t, resp).Code)
}

func TestInteraction_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	ts.book(t, "bk-dune", "Dune", "Frank Herbert")

	requireStatus(t, ts.api.Get("/api/v1/interactions"), http.StatusUnauthorized)
	requireStatus(t, ts.api.Patch("/api/v1/interactions/bk-dune", map[string]any{"is_read": true}), http.StatusUnauthorized)
}
