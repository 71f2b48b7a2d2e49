package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

func TestNotifications_InboxLifecycle(t *testing.T) {
	f := newThreadFixture(t)

	top := f.comment(t, f.bob, "Which edition?", "")
	f.comment(t, f.carol, "The 1965 one.", top.ID)

	// Alice gets the top-level comment, Bob gets the reply.
	resp := f.ts.api.Get("/api/v1/notifications/unread-count", f.alice)
	requireStatus(t, resp, http.StatusOK)
	assert.Equal(t, 1, decode[UnreadCountResponse](t, resp).Data.Count)

	resp = f.ts.api.Get("/api/v1/notifications", f.bob)
	requireStatus(t, resp, http.StatusOK)
	bobInbox := decode[domain.Page[*domain.Notification]](t, resp).Data
	require.Len(t, bobInbox.Items, 1)
	assert.Equal(t, domain.NotificationReplyComment, bobInbox.Items[0].Type)
	assert.Equal(t, "Carol", bobInbox.Items[0].ActorDisplayName)

	resp = f.ts.api.Get("/api/v1/notifications", f.alice)
	aliceInbox := decode[domain.Page[*domain.Notification]](t, resp).Data
	require.Len(t, aliceInbox.Items, 1)
	n := aliceInbox.Items[0]
	assert.Equal(t, domain.NotificationCommentReview, n.Type)
	assert.Equal(t, "Dune", n.EntityParentTitle)
	assert.False(t, n.Read)

	resp = f.ts.api.Post("/api/v1/notifications/"+n.ID+"/read", f.alice)
	requireStatus(t, resp, http.StatusOK)

	// Marking again still succeeds.
	requireStatus(t, f.ts.api.Post("/api/v1/notifications/"+n.ID+"/read", f.alice), http.StatusOK)

	resp = f.ts.api.Get("/api/v1/notifications?unread_only=true", f.alice)
	requireStatus(t, resp, http.StatusOK)
	assert.Empty(t, decode[domain.Page[*domain.Notification]](t, resp).Data.Items)
}

func TestNotifications_MarkReadIsOwnerScoped(t *testing.T) {
	f := newThreadFixture(t)
	f.comment(t, f.bob, "Hello", "")

	resp := f.ts.api.Get("/api/v1/notifications", f.alice)
	n := decode[domain.Page[*domain.Notification]](t, resp).Data.Items[0]

	requireStatus(t, f.ts.api.Post("/api/v1/notifications/"+n.ID+"/read", f.bob), http.StatusForbidden)
	requireStatus(t, f.ts.api.Post("/api/v1/notifications/ntf-missing/read", f.alice), http.StatusNotFound)

	resp = f.ts.api.Get("/api/v1/notifications/unread-count", f.alice)
	assert.Equal(t, 1, decode[UnreadCountResponse](t, resp).Data.Count)
}

func TestNotifications_MarkAllRead(t *testing.T) {
	f := newThreadFixture(t)
	f.comment(t, f.bob, "One", "")
	f.comment(t, f.carol, "Two", "")

	resp := f.ts.api.Post("/api/v1/notifications/read-all", f.alice)
	requireStatus(t, resp, http.StatusOK)
	assert.Equal(t, 2, decode[MarkAllReadResponse](t, resp).Data.Marked)

	resp = f.ts.api.Post("/api/v1/notifications/read-all", f.alice)
	assert.Equal(t, 0, decode[MarkAllReadResponse](t, resp).Data.Marked)

	resp = f.ts.api.Get("/api/v1/notifications/unread-count", f.alice)
	assert.Equal(t, 0, decode[UnreadCountResponse](t, resp).Data.Count)
}

func TestNotifications_RequireAuth(t *testing.T) {
	ts := setupTestServer(t)

	requireStatus(t, ts.api.Get("/api/v1/notifications"), http.StatusUnauthorized)
	requireStatus(t, ts.api.Get("/api/v1/notifications/unread-count"), http.StatusUnauthorized)
	requireStatus(t, ts.api.Post("/api/v1/notifications/read-all"), http.StatusUnauthorized)
}
