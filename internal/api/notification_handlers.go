package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

func (s *Server) registerNotificationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications",
		Summary:     "List notifications",
		Description: "Returns a page of the current user's notifications, newest first",
		Tags:        []string{tagNotifications},
		Security:    bearerAuth,
	}, s.handleListNotifications)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUnreadNotificationCount",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications/unread-count",
		Summary:     "Unread count",
		Tags:        []string{tagNotifications},
		Security:    bearerAuth,
	}, s.handleUnreadCount)

	huma.Register(s.api, huma.Operation{
		OperationID: "markNotificationRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/notifications/{id}/read",
		Summary:     "Mark notification read",
		Description: "Marks one notification read (recipient only). Already-read notifications succeed.",
		Tags:        []string{tagNotifications},
		Security:    bearerAuth,
	}, s.handleMarkNotificationRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "markAllNotificationsRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/notifications/read-all",
		Summary:     "Mark all notifications read",
		Tags:        []string{tagNotifications},
		Security:    bearerAuth,
	}, s.handleMarkAllNotificationsRead)
}

// === DTOs ===

// ListNotificationsInput contains inbox paging parameters.
type ListNotificationsInput struct {
	UnreadOnly bool `query:"unread_only" doc:"Only return unread notifications"`
	PageQuery
}

// NotificationPageOutput wraps a page of notifications.
type NotificationPageOutput struct {
	Body domain.Page[*domain.Notification]
}

// UnreadCountResponse contains the unread count.
type UnreadCountResponse struct {
	Count int `json:"count" doc:"Unread notifications"`
}

// UnreadCountOutput wraps the unread count for Huma.
type UnreadCountOutput struct {
	Body UnreadCountResponse
}

// NotificationIDInput identifies a notification.
type NotificationIDInput struct {
	ID string `path:"id" doc:"Notification ID"`
}

// MarkAllReadResponse reports how many notifications changed.
type MarkAllReadResponse struct {
	Marked int `json:"marked" doc:"Notifications newly marked read"`
}

// MarkAllReadOutput wraps the mark-all response for Huma.
type MarkAllReadOutput struct {
	Body MarkAllReadResponse
}

// === Handlers ===

func (s *Server) handleListNotifications(ctx context.Context, input *ListNotificationsInput) (*NotificationPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Notifications.List(ctx, userID, input.UnreadOnly, input.Page, input.PageSize)
	if err != nil {
		return nil, err
	}
	return &NotificationPageOutput{Body: page}, nil
}

func (s *Server) handleUnreadCount(ctx context.Context, _ *struct{}) (*UnreadCountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.services.Notifications.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UnreadCountOutput{Body: UnreadCountResponse{Count: n}}, nil
}

func (s *Server) handleMarkNotificationRead(ctx context.Context, input *NotificationIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Notifications.MarkRead(ctx, input.ID, userID); err != nil {
		return nil, err
	}
	return message("Notification marked read"), nil
}

func (s *Server) handleMarkAllNotificationsRead(ctx context.Context, _ *struct{}) (*MarkAllReadOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.services.Notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MarkAllReadOutput{Body: MarkAllReadResponse{Marked: n}}, nil
}
