package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/store"
)

// likeColumn returns the likes column holding a target's ID.
func likeColumn(t domain.Target) (string, error) {
	switch t.Kind {
	case domain.TargetReview:
		return "review_id", nil
	case domain.TargetComment:
		return "comment_id", nil
	default:
		return "", store.ErrInvalidInput.WithMessage(fmt.Sprintf("cannot like %s", t.Kind))
	}
}

// CreateLike inserts a like and reports whether this call created it. The
// partial unique indexes make a concurrent duplicate a no-op rather than an
// error, so exactly one of two racing likes reports true.
func (s *Store) CreateLike(ctx context.Context, l *domain.Like) (bool, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now()
	}

	var reviewID, commentID sql.NullString
	switch l.Target.Kind {
	case domain.TargetReview:
		reviewID = nullString(l.Target.ID)
	case domain.TargetComment:
		commentID = nullString(l.Target.ID)
	default:
		return false, store.ErrInvalidInput.WithMessage(fmt.Sprintf("cannot like %s", l.Target.Kind))
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO likes (id, user_id, review_id, comment_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		l.ID, l.UserID, reviewID, commentID, formatTime(l.CreatedAt),
	)
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteLike removes the user's like on target and reports whether one existed.
func (s *Store) DeleteLike(ctx context.Context, userID string, target domain.Target) (bool, error) {
	col, err := likeColumn(target)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = ? AND `+col+` = ?`, userID, target.ID)
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountLikes returns the number of likes on target.
func (s *Store) CountLikes(ctx context.Context, target domain.Target) (int, error) {
	col, err := likeColumn(target)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE `+col+` = ?`, target.ID).Scan(&n); err != nil {
		return 0, classify(err)
	}
	return n, nil
}
