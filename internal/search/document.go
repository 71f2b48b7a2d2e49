package search

import (
	"time"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

// ReviewDocument is the indexed form of a review.
type ReviewDocument struct {
	ID         string
	UserID     string
	BookID     string
	BookTitle  string
	BookAuthor string
	Text       string
	Rating     int // 0 when unrated
	CreatedAt  time.Time
}

// DocumentFromReview builds the document for r. The review must carry its
// book summary for title search to work.
func DocumentFromReview(r *domain.Review) *ReviewDocument {
	doc := &ReviewDocument{
		ID:        r.ID,
		UserID:    r.UserID,
		BookID:    r.BookID,
		CreatedAt: r.CreatedAt,
	}
	if r.Book != nil {
		doc.BookTitle = r.Book.Title
		doc.BookAuthor = r.Book.Author
	}
	if r.Text != nil {
		doc.Text = *r.Text
	}
	if r.Rating != nil {
		doc.Rating = *r.Rating
	}
	return doc
}

// ToMap converts the document to the field names the mapping declares.
func (d *ReviewDocument) ToMap() map[string]any {
	return map[string]any{
		"user_id":     d.UserID,
		"book_id":     d.BookID,
		"book_title":  d.BookTitle,
		"book_author": d.BookAuthor,
		"review_text": d.Text,
		"rating":      float64(d.Rating),
		"created_at":  float64(d.CreatedAt.Unix()),
	}
}
