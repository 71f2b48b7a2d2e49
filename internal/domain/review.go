package domain

import "time"

// Rating bounds. A nil rating means "not rated".
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating and optional text for one book.
// There is at most one review per (user, book).
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Rating    *int      `json:"rating,omitempty"`
	Text      *string   `json:"review_text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Read-side annotations, filled by the store on fetch.
	User          *UserSummary `json:"user,omitempty"`
	Book          *BookSummary `json:"book,omitempty"`
	LikeCount     int          `json:"like_count"`
	CommentCount  int          `json:"comment_count"`
	LikedByViewer bool         `json:"liked_by_viewer"`
}

// ValidRating reports whether r is nil or within [MinRating, MaxRating].
func ValidRating(r *int) bool {
	return r == nil || (*r >= MinRating && *r <= MaxRating)
}

// BookTitle returns the denormalized book title, or "" when not loaded.
func (r *Review) BookTitle() string {
	if r.Book == nil {
		return ""
	}
	return r.Book.Title
}
