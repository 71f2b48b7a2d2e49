package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

const interactionColumns = `user_id, book_id, is_read, is_currently_reading, is_on_watchlist,
	is_liked, is_owned, rating, updated_at`

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getInteraction(ctx context.Context, q rowQuerier, userID, bookID string) (*domain.Interaction, error) {
	var (
		i         domain.Interaction
		rating    sql.NullInt64
		updatedAt string
	)
	err := q.QueryRowContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE user_id = ? AND book_id = ?`,
		userID, bookID,
	).Scan(&i.UserID, &i.BookID, &i.IsRead, &i.IsCurrentlyReading, &i.IsOnWatchlist,
		&i.IsLiked, &i.IsOwned, &rating, &updatedAt)
	if err != nil {
		return nil, err
	}
	i.Rating = intPtr(rating)
	if i.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}

// GetInteraction returns store.ErrNotFound when the user has no state for the book.
func (s *Store) GetInteraction(ctx context.Context, userID, bookID string) (*domain.Interaction, error) {
	i, err := getInteraction(ctx, s.db, userID, bookID)
	if err != nil {
		return nil, classify(err)
	}
	return i, nil
}

// loadInteraction reads the row inside tx, or the empty state when the
// user has none for the book.
func loadInteraction(ctx context.Context, tx *sql.Tx, userID, bookID string) (*domain.Interaction, error) {
	current, err := getInteraction(ctx, tx, userID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewInteraction(userID, bookID), nil
	}
	return current, err
}

// saveInteraction upserts i, or deletes the row when i carries nothing.
func saveInteraction(ctx context.Context, tx *sql.Tx, i *domain.Interaction) error {
	if i.IsEmpty() {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM interactions WHERE user_id = ? AND book_id = ?`, i.UserID, i.BookID)
		return err
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO interactions (`+interactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			is_read = excluded.is_read,
			is_currently_reading = excluded.is_currently_reading,
			is_on_watchlist = excluded.is_on_watchlist,
			is_liked = excluded.is_liked,
			is_owned = excluded.is_owned,
			rating = excluded.rating,
			updated_at = excluded.updated_at`,
		i.UserID, i.BookID, boolInt(i.IsRead), boolInt(i.IsCurrentlyReading),
		boolInt(i.IsOnWatchlist), boolInt(i.IsLiked), boolInt(i.IsOwned),
		nullableInt(i.Rating), formatTime(i.UpdatedAt),
	)
	return err
}

// UpdateInteraction reads, mutates and writes the row in one transaction.
// An interaction left empty by fn is deleted.
func (s *Store) UpdateInteraction(ctx context.Context, userID, bookID string, fn func(*domain.Interaction) error) (*domain.Interaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback()

	current, err := loadInteraction(ctx, tx, userID, bookID)
	if err != nil {
		return nil, classify(err)
	}
	if err := fn(current); err != nil {
		return nil, err
	}
	current.UserID, current.BookID = userID, bookID
	current.UpdatedAt = s.now()

	if err := saveInteraction(ctx, tx, current); err != nil {
		return nil, classify(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	return current, nil
}

// setRating copies a review's rating onto the author's interaction. No
// other flag is touched.
func setRating(ctx context.Context, tx *sql.Tx, userID, bookID string, rating int, now time.Time) error {
	current, err := loadInteraction(ctx, tx, userID, bookID)
	if err != nil {
		return err
	}
	current.Rating = &rating
	current.UpdatedAt = now
	return saveInteraction(ctx, tx, current)
}

// clearUnretainedRating drops the rating unless the row's flags retain it,
// pruning a row left empty. It reports whether a rating was cleared.
func clearUnretainedRating(ctx context.Context, tx *sql.Tx, userID, bookID string, now time.Time) (bool, error) {
	current, err := getInteraction(ctx, tx, userID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if current.Rating == nil || current.RetainsRating() {
		return false, nil
	}
	current.Rating = nil
	current.UpdatedAt = now
	return true, saveInteraction(ctx, tx, current)
}

// ClearRatingIfUnretained clears the rating when none of read, watchlist,
// liked or owned is set. Currently-reading does not keep a rating alive.
// Transactions take the write lock up front, so a flag set concurrently is
// either seen here or applied after the clear.
func (s *Store) ClearRatingIfUnretained(ctx context.Context, userID, bookID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, classify(err)
	}
	defer tx.Rollback()

	cleared, err := clearUnretainedRating(ctx, tx, userID, bookID, s.now())
	if err != nil {
		return false, classify(err)
	}
	if err := tx.Commit(); err != nil {
		return false, classify(err)
	}
	return cleared, nil
}

// ListInteractions returns all of a user's book state, most recently updated first.
func (s *Store) ListInteractions(ctx context.Context, userID string) ([]*domain.Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE user_id = ?
		ORDER BY updated_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []*domain.Interaction
	for rows.Next() {
		var (
			i         domain.Interaction
			rating    sql.NullInt64
			updatedAt string
		)
		if err := rows.Scan(&i.UserID, &i.BookID, &i.IsRead, &i.IsCurrentlyReading, &i.IsOnWatchlist,
			&i.IsLiked, &i.IsOwned, &rating, &updatedAt); err != nil {
			return nil, err
		}
		i.Rating = intPtr(rating)
		if i.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}
