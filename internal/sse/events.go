// Package sse pushes notification events to connected clients over
// Server-Sent Events.
package sse

import (
	"time"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventNotificationCreated carries a newly delivered notification.
	EventNotificationCreated EventType = "notification.created"
	// EventNotificationsRead tells the recipient's other sessions the unread
	// count changed.
	EventNotificationsRead EventType = "notification.read"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event is one frame on a notification stream.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// Seq is assigned by Manager.Emit and written as the frame's id.
	Seq uint64 `json:"-"`
	// UserID restricts delivery to one user. Empty means every client.
	UserID string `json:"-"`
}

// NotificationEventData is the payload of notification.created.
type NotificationEventData struct {
	Notification *domain.Notification `json:"notification"`
	UnreadCount  int                  `json:"unread_count"`
}

// NotificationsReadEventData is the payload of notification.read.
type NotificationsReadEventData struct {
	NotificationID string `json:"notification_id,omitempty"`
	UnreadCount    int    `json:"unread_count"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewNotificationCreatedEvent addresses n to its recipient.
func NewNotificationCreatedEvent(n *domain.Notification, unread int) Event {
	return Event{
		Type:      EventNotificationCreated,
		Data:      NotificationEventData{Notification: n, UnreadCount: unread},
		Timestamp: time.Now(),
		UserID:    n.UserID,
	}
}

// NewNotificationsReadEvent reports a read-state change. An empty
// notificationID means everything was marked read.
func NewNotificationsReadEvent(userID, notificationID string, unread int) Event {
	return Event{
		Type:      EventNotificationsRead,
		Data:      NotificationsReadEventData{NotificationID: notificationID, UnreadCount: unread},
		Timestamp: time.Now(),
		UserID:    userID,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
		Timestamp: now,
	}
}
