package domain

import "time"

// List is a user-curated reading list. Lists can be commented on but not liked.
type List struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	Owner        *UserSummary `json:"owner,omitempty"`
	CommentCount int          `json:"comment_count"`
}
