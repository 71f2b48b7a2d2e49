package api

import (
	"github.com/listenupapp/bookclub-server/internal/service"
)

// Services groups the social services used by the API server.
type Services struct {
	Reviews       *service.ReviewService
	Comments      *service.CommentService
	Likes         *service.LikeService
	Lists         *service.ListService
	Notifications *service.NotificationService
	Interactions  *service.InteractionService
}
