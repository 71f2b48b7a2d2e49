package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/store"
)

func insertTestNotification(t *testing.T, s *Store, id, recipient string) {
	t.Helper()
	parent := "rev-1"
	n := &domain.Notification{
		ID: id, UserID: recipient, ActorID: "usr-x", ActorDisplayName: "Xena",
		Type: domain.NotificationLikeReview, EntityType: domain.EntityReview, EntityID: "rev-1",
		EntityParentID: &parent, EntityParentTitle: "Dune",
	}
	if err := s.CreateNotification(context.Background(), n); err != nil {
		t.Fatalf("CreateNotification(%s): %v", id, err)
	}
}

func TestNotifications_InboxLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "usr-a", "Alice")
	insertTestUser(t, s, "usr-b", "Bob")

	for i := 1; i <= 3; i++ {
		insertTestNotification(t, s, fmt.Sprintf("ntf-%d", i), "usr-a")
	}
	insertTestNotification(t, s, "ntf-b", "usr-b")

	unread, err := s.CountUnreadNotifications(ctx, "usr-a")
	if err != nil {
		t.Fatalf("CountUnreadNotifications: %v", err)
	}
	if unread != 3 {
		t.Errorf("unread: got %d, want 3", unread)
	}

	if err := s.MarkNotificationRead(ctx, "ntf-1", "usr-b"); !errors.Is(err, store.ErrForbidden) {
		t.Errorf("non-recipient: expected ErrForbidden, got %v", err)
	}
	if err := s.MarkNotificationRead(ctx, "ntf-missing", "usr-a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
	if err := s.MarkNotificationRead(ctx, "ntf-1", "usr-a"); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	// Idempotent.
	if err := s.MarkNotificationRead(ctx, "ntf-1", "usr-a"); err != nil {
		t.Fatalf("MarkNotificationRead again: %v", err)
	}

	page, total, err := s.ListNotifications(ctx, "usr-a", true, store.PageParams{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if total != 2 || len(page) != 2 {
		t.Fatalf("unread listing: total=%d len=%d", total, len(page))
	}
	if page[0].ID != "ntf-3" {
		t.Errorf("newest first expected, got %s", page[0].ID)
	}
	if page[0].EntityParentID == nil || *page[0].EntityParentID != "rev-1" || page[0].EntityParentTitle != "Dune" {
		t.Errorf("denormalized context lost: %+v", page[0])
	}

	n, err := s.MarkAllNotificationsRead(ctx, "usr-a")
	if err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	if n != 2 {
		t.Errorf("MarkAllNotificationsRead: got %d, want 2", n)
	}

	got, err := s.GetNotification(ctx, "ntf-b")
	if err != nil {
		t.Fatalf("GetNotification: %v", err)
	}
	if got.Read {
		t.Error("another user's notification must stay unread")
	}
}

func TestNotifications_SurviveEntityDeletion(t *testing.T) {
	s := seedThread(t)
	ctx := context.Background()

	insertTestNotification(t, s, "ntf-1", "usr-a")
	if _, err := s.DeleteReview(ctx, "rev-1", "usr-a"); err != nil {
		t.Fatalf("DeleteReview: %v", err)
	}
	if _, err := s.GetNotification(ctx, "ntf-1"); err != nil {
		t.Errorf("notification should outlive its entity: %v", err)
	}
}
