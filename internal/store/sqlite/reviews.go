package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/store"
)

// reviewSelect takes the viewer ID as its first argument.
const reviewSelect = `
	SELECT r.id, r.user_id, r.book_id, r.rating, r.review_text, r.created_at, r.updated_at,
		u.display_name, b.title, b.author,
		(SELECT COUNT(*) FROM likes lk WHERE lk.review_id = r.id),
		(SELECT COUNT(*) FROM comments c WHERE c.review_id = r.id),
		EXISTS (SELECT 1 FROM likes lk WHERE lk.review_id = r.id AND lk.user_id = ?)
	FROM reviews r
	JOIN users u ON u.id = r.user_id
	JOIN books b ON b.id = r.book_id`

func scanReview(scanner interface{ Scan(dest ...any) error }) (*domain.Review, error) {
	var (
		r          domain.Review
		rating     sql.NullInt64
		text       sql.NullString
		createdAt  string
		updatedAt  string
		authorName string
		bookTitle  string
		bookAuthor sql.NullString
	)
	err := scanner.Scan(
		&r.ID, &r.UserID, &r.BookID, &rating, &text, &createdAt, &updatedAt,
		&authorName, &bookTitle, &bookAuthor,
		&r.LikeCount, &r.CommentCount, &r.LikedByViewer,
	)
	if err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	r.Rating = intPtr(rating)
	r.Text = stringPtr(text)

	user := (&domain.User{ID: r.UserID, DisplayName: authorName}).Summary()
	r.User = &user
	r.Book = &domain.BookSummary{ID: r.BookID, Title: bookTitle, Author: bookAuthor.String}
	return &r, nil
}

func (s *Store) queryReviews(ctx context.Context, query string, args ...any) ([]*domain.Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// CreateReview inserts the review. A rating is copied onto the author's
// interaction in the same transaction; read state is left alone.
func (s *Store) CreateReview(ctx context.Context, r *domain.Review) error {
	now := s.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, book_id, rating, review_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.BookID, nullableInt(r.Rating), nullableString(r.Text),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	if err != nil {
		return classify(err)
	}

	if r.Rating != nil {
		if err := setRating(ctx, tx, r.UserID, r.BookID, *r.Rating, now); err != nil {
			return fmt.Errorf("sync rating: %w", classify(err))
		}
	}

	return classify(tx.Commit())
}

// GetReview returns store.ErrNotFound if the review does not exist.
func (s *Store) GetReview(ctx context.Context, id, viewerID string) (*domain.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, reviewSelect+` WHERE r.id = ?`, viewerID, id))
	if err != nil {
		return nil, classify(err)
	}
	return r, nil
}

// GetReviewByUserAndBook returns the author's review of a book.
func (s *Store) GetReviewByUserAndBook(ctx context.Context, userID, bookID, viewerID string) (*domain.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx,
		reviewSelect+` WHERE r.user_id = ? AND r.book_id = ?`, viewerID, userID, bookID))
	if err != nil {
		return nil, classify(err)
	}
	return r, nil
}

// UpdateReview replaces rating and text on an owned review and keeps the
// author's interaction rating in step: a new rating is copied over, and a
// removed one is cleared unless the interaction's flags retain it.
func (s *Store) UpdateReview(ctx context.Context, u store.ReviewUpdate) error {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	var (
		bookID string
		prior  sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT book_id, rating FROM reviews WHERE id = ? AND user_id = ?`, u.ID, u.OwnerID,
	).Scan(&bookID, &prior)
	if errors.Is(err, sql.ErrNoRows) {
		return s.resolveMiss(ctx, tableReviews, u.ID)
	}
	if err != nil {
		return classify(err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, review_text = ?, updated_at = ? WHERE id = ?`,
		nullableInt(u.Rating), nullableString(u.Text), formatTime(now), u.ID,
	); err != nil {
		return classify(err)
	}

	switch {
	case u.Rating != nil:
		err = setRating(ctx, tx, u.OwnerID, bookID, *u.Rating, now)
	case prior.Valid:
		_, err = clearUnretainedRating(ctx, tx, u.OwnerID, bookID, now)
	}
	if err != nil {
		return fmt.Errorf("sync rating: %w", classify(err))
	}

	return classify(tx.Commit())
}

// DeleteReview deletes an owned review and returns its book ID. Comments,
// replies and likes on the review or its comments go with it by cascade.
func (s *Store) DeleteReview(ctx context.Context, id, ownerID string) (string, error) {
	var bookID string
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM reviews WHERE id = ? AND user_id = ? RETURNING book_id`, id, ownerID,
	).Scan(&bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", s.resolveMiss(ctx, tableReviews, id)
	}
	if err != nil {
		return "", classify(err)
	}
	return bookID, nil
}

// ListReviewsForBook returns one page of a book's reviews, newest first.
func (s *Store) ListReviewsForBook(ctx context.Context, bookID, viewerID string, p store.PageParams) ([]*domain.Review, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE book_id = ?`, bookID).Scan(&total); err != nil {
		return nil, 0, classify(err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	reviews, err := s.queryReviews(ctx,
		reviewSelect+` WHERE r.book_id = ? ORDER BY r.created_at DESC, r.rowid DESC LIMIT ? OFFSET ?`,
		viewerID, bookID, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// GetReviewsByIDs returns the reviews that still exist among ids, in no
// particular order.
func (s *Store) GetReviewsByIDs(ctx context.Context, ids []string, viewerID string) ([]*domain.Review, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, viewerID)
	for _, id := range ids {
		args = append(args, id)
	}
	return s.queryReviews(ctx, reviewSelect+` WHERE r.id IN (`+placeholders(len(ids))+`)`, args...)
}

// ListAllReviews returns every review, oldest first. Used to rebuild the
// search index.
func (s *Store) ListAllReviews(ctx context.Context) ([]*domain.Review, error) {
	return s.queryReviews(ctx, reviewSelect+` ORDER BY r.created_at, r.rowid`, "")
}
