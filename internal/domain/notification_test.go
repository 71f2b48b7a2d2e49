package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveNotification_Rules(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	actor := UserSummary{ID: "usr-bob", DisplayName: "Bob", AvatarColor: "#112233"}

	tests := []struct {
		trigger    Trigger
		wantType   NotificationType
		wantEntity EntityType
	}{
		{TriggerLikeReview, NotificationLikeReview, EntityReview},
		{TriggerLikeComment, NotificationLikeReview, EntityComment},
		{TriggerTopLevelOnReview, NotificationCommentReview, EntityComment},
		{TriggerTopLevelOnList, NotificationCommentList, EntityComment},
		{TriggerReplyToComment, NotificationReplyComment, EntityComment},
	}

	for _, tt := range tests {
		t.Run(string(tt.trigger), func(t *testing.T) {
			n, ok := DeriveNotification(FanoutEvent{
				Trigger:     tt.trigger,
				Actor:       actor,
				RecipientID: "usr-alice",
				EntityID:    "ent-1",
				ParentID:    "rev-1",
				ParentTitle: "Dune",
			}, now)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, n.Type)
			assert.Equal(t, tt.wantEntity, n.EntityType)
			assert.Equal(t, "usr-alice", n.UserID)
			assert.Equal(t, "usr-bob", n.ActorID)
			assert.Equal(t, "Bob", n.ActorDisplayName)
			assert.Equal(t, "Dune", n.EntityParentTitle)
			require.NotNil(t, n.EntityParentID)
			assert.Equal(t, "rev-1", *n.EntityParentID)
			assert.False(t, n.Read)
			assert.Equal(t, now, n.CreatedAt)
		})
	}
}

func TestDeriveNotification_SelfSuppressed(t *testing.T) {
	_, ok := DeriveNotification(FanoutEvent{
		Trigger:     TriggerLikeReview,
		Actor:       UserSummary{ID: "usr-alice"},
		RecipientID: "usr-alice",
		EntityID:    "rev-1",
	}, time.Now())
	assert.False(t, ok)
}

func TestDeriveNotification_Incomplete(t *testing.T) {
	_, ok := DeriveNotification(FanoutEvent{Trigger: TriggerLikeReview, Actor: UserSummary{ID: "usr-a"}}, time.Now())
	assert.False(t, ok, "missing recipient")

	_, ok = DeriveNotification(FanoutEvent{Trigger: "unknown", Actor: UserSummary{ID: "usr-a"}, RecipientID: "usr-b"}, time.Now())
	assert.False(t, ok, "unknown trigger")
}

func TestDeriveNotification_FillsAvatarColor(t *testing.T) {
	n, ok := DeriveNotification(FanoutEvent{
		Trigger:     TriggerLikeReview,
		Actor:       UserSummary{ID: "usr-bob", DisplayName: "Bob"},
		RecipientID: "usr-alice",
		EntityID:    "rev-1",
	}, time.Now())
	require.True(t, ok)
	assert.NotEmpty(t, n.ActorAvatarColor)
	assert.Nil(t, n.EntityParentID)
}
