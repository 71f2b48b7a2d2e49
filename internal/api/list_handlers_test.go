package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

func TestLists_CreateGetDelete(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.user(t, "usr-alice", "Alice")
	bob := ts.user(t, "usr-bob", "Bob")

	resp := ts.api.Post("/api/v1/lists", alice, map[string]any{"title": "  Cozy   mysteries ", "description": "Tea included."})
	requireStatus(t, resp, http.StatusCreated)
	list := decode[domain.List](t, resp).Data
	require.NotEmpty(t, list.ID)
	assert.Equal(t, "usr-alice", list.UserID)

	resp = ts.api.Get("/api/v1/lists/" + list.ID)
	requireStatus(t, resp, http.StatusOK)
	assert.Equal(t, list.Title, decode[domain.List](t, resp).Data.Title)

	resp = ts.api.Get("/api/v1/lists?user_id=usr-alice", bob)
	requireStatus(t, resp, http.StatusOK)
	assert.Len(t, decode[ListsResponse](t, resp).Data.Lists, 1)

	requireStatus(t, ts.api.Delete("/api/v1/lists/"+list.ID, bob), http.StatusForbidden)
	requireStatus(t, ts.api.Delete("/api/v1/lists/"+list.ID, alice), http.StatusOK)
	requireStatus(t, ts.api.Get("/api/v1/lists/"+list.ID), http.StatusNotFound)
}

func TestLists_DefaultToCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.user(t, "usr-alice", "Alice")
	bob := ts.user(t, "usr-bob", "Bob")

	requireStatus(t, ts.api.Post("/api/v1/lists", alice, map[string]any{"title": "Alice's"}), http.StatusCreated)
	requireStatus(t, ts.api.Post("/api/v1/lists", bob, map[string]any{"title": "Bob's"}), http.StatusCreated)

	resp := ts.api.Get("/api/v1/lists", bob)
	requireStatus(t, resp, http.StatusOK)
	lists := decode[ListsResponse](t, resp).Data.Lists
	require.Len(t, lists, 1)
	assert.Equal(t, "Bob's", lists[0].Title)

	requireStatus(t, ts.api.Get("/api/v1/lists"), http.StatusUnauthorized)
}

func TestLists_BlankTitle(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.user(t, "usr-alice", "Alice")

	resp := ts.api.Post("/api/v1/lists", alice, map[string]any{"title": "   "})
	requireStatus(t, resp, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION", decode[any](t, resp).Code)
}
