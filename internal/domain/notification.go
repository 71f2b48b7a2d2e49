package domain

import (
	"time"

	"github.com/listenupapp/bookclub-server/internal/color"
)

// NotificationType is the kind of social event a notification reports.
type NotificationType string

const (
	// NotificationLikeReview is used for likes on both reviews and comments.
	NotificationLikeReview    NotificationType = "like_review"
	NotificationCommentReview NotificationType = "comment_review"
	NotificationCommentList   NotificationType = "comment_list"
	NotificationReplyComment  NotificationType = "reply_comment"
)

// EntityType names the entity a notification points at.
type EntityType string

const (
	EntityReview  EntityType = "review"
	EntityComment EntityType = "comment"
	EntityList    EntityType = "list"
)

// Notification is an inbox entry. It is append-only apart from Read.
// Actor and parent context are denormalized at creation time so the inbox
// renders without further lookups.
type Notification struct {
	ID                string           `json:"id"`
	UserID            string           `json:"user_id"`
	ActorID           string           `json:"actor_id"`
	ActorDisplayName  string           `json:"actor_display_name"`
	ActorAvatarColor  string           `json:"actor_avatar_color"`
	Type              NotificationType `json:"type"`
	EntityType        EntityType       `json:"entity_type"`
	EntityID          string           `json:"entity_id"`
	EntityParentID    *string          `json:"entity_parent_id,omitempty"`
	EntityParentTitle string           `json:"entity_parent_title"`
	Read              bool             `json:"read"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Trigger is a committed social mutation that may notify someone.
type Trigger string

const (
	TriggerLikeReview       Trigger = "like_review"
	TriggerLikeComment      Trigger = "like_comment"
	TriggerTopLevelOnReview Trigger = "comment_on_review"
	TriggerTopLevelOnList   Trigger = "comment_on_list"
	TriggerReplyToComment   Trigger = "reply_to_comment"
)

// FanoutEvent carries everything needed to derive a notification after the
// primary write has committed.
type FanoutEvent struct {
	Trigger     Trigger
	Actor       UserSummary
	RecipientID string
	// EntityID is the liked review or comment, or the new comment.
	EntityID string
	// ParentID is the review or list the entity belongs to.
	ParentID    string
	ParentTitle string
}

var triggerRules = map[Trigger]struct {
	notificationType NotificationType
	entityType       EntityType
}{
	TriggerLikeReview:       {NotificationLikeReview, EntityReview},
	TriggerLikeComment:      {NotificationLikeReview, EntityComment},
	TriggerTopLevelOnReview: {NotificationCommentReview, EntityComment},
	TriggerTopLevelOnList:   {NotificationCommentList, EntityComment},
	TriggerReplyToComment:   {NotificationReplyComment, EntityComment},
}

// DeriveNotification maps a fan-out event to the notification it produces.
// It returns false when no notification is due: unknown trigger, missing
// recipient, or the actor acting on their own content.
func DeriveNotification(ev FanoutEvent, now time.Time) (*Notification, bool) {
	rule, ok := triggerRules[ev.Trigger]
	if !ok || ev.RecipientID == "" || ev.Actor.ID == "" {
		return nil, false
	}
	if ev.Actor.ID == ev.RecipientID {
		return nil, false
	}

	n := &Notification{
		UserID:            ev.RecipientID,
		ActorID:           ev.Actor.ID,
		ActorDisplayName:  ev.Actor.DisplayName,
		ActorAvatarColor:  ev.Actor.AvatarColor,
		Type:              rule.notificationType,
		EntityType:        rule.entityType,
		EntityID:          ev.EntityID,
		EntityParentTitle: ev.ParentTitle,
		CreatedAt:         now,
	}
	if n.ActorAvatarColor == "" {
		n.ActorAvatarColor = color.ForUser(ev.Actor.ID)
	}
	if ev.ParentID != "" {
		parent := ev.ParentID
		n.EntityParentID = &parent
	}
	return n, true
}
