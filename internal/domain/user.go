package domain

import (
	"time"

	"github.com/listenupapp/bookclub-server/internal/color"
)

// User is a member of the reading community. Credentials live elsewhere;
// this server only needs identity and display data.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary returns the denormalized form embedded in reviews, comments and notifications.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarColor: color.ForUser(u.ID),
	}
}

// UserSummary is the author block shown next to social content.
type UserSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarColor string `json:"avatar_color"`
}
