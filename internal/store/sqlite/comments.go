package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/samber/lo"

	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/store"
)

// commentSelect takes the viewer ID as its first argument.
const commentSelect = `
	SELECT c.id, c.user_id, c.review_id, c.list_id, c.parent_comment_id, c.text, c.state, c.created_at,
		u.display_name,
		(SELECT COUNT(*) FROM likes lk WHERE lk.comment_id = c.id),
		(SELECT COUNT(*) FROM comments r WHERE r.parent_comment_id = c.id),
		EXISTS (SELECT 1 FROM likes lk WHERE lk.comment_id = c.id AND lk.user_id = ?)
	FROM comments c
	JOIN users u ON u.id = c.user_id`

func scanComment(scanner interface{ Scan(dest ...any) error }) (*domain.Comment, error) {
	var (
		c          domain.Comment
		reviewID   sql.NullString
		listID     sql.NullString
		parentID   sql.NullString
		state      string
		createdAt  string
		authorName string
	)
	err := scanner.Scan(
		&c.ID, &c.UserID, &reviewID, &listID, &parentID, &c.Text, &state, &createdAt,
		&authorName, &c.LikeCount, &c.ReplyCount, &c.LikedByViewer,
	)
	if err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	switch {
	case reviewID.Valid:
		c.Target = domain.ReviewTarget(reviewID.String)
	case listID.Valid:
		c.Target = domain.ListTarget(listID.String)
	}
	if parentID.Valid {
		c.Place(domain.ReplyTo(parentID.String))
	}
	c.State = domain.CommentState(state)

	user := (&domain.User{ID: c.UserID, DisplayName: authorName}).Summary()
	c.User = &user
	return &c, nil
}

func (s *Store) queryComments(ctx context.Context, query string, args ...any) ([]*domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// targetColumn returns the comments column holding a target's ID.
func targetColumn(t domain.Target) (string, error) {
	switch t.Kind {
	case domain.TargetReview:
		return "review_id", nil
	case domain.TargetList:
		return "list_id", nil
	default:
		return "", store.ErrInvalidInput.WithMessage(fmt.Sprintf("cannot comment on %s", t.Kind))
	}
}

// CreateComment inserts a comment. A vanished target or parent surfaces as
// store.ErrReferenceMissing.
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.State == "" {
		c.State = domain.CommentActive
	}

	var reviewID, listID sql.NullString
	switch c.Target.Kind {
	case domain.TargetReview:
		reviewID = nullString(c.Target.ID)
	case domain.TargetList:
		listID = nullString(c.Target.ID)
	default:
		return store.ErrInvalidInput.WithMessage(fmt.Sprintf("cannot comment on %s", c.Target.Kind))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, user_id, review_id, list_id, parent_comment_id, text, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, reviewID, listID, nullableString(c.ParentID), c.Text, string(c.State),
		formatTime(c.CreatedAt),
	)
	return classify(err)
}

// GetComment returns store.ErrNotFound if the comment does not exist.
func (s *Store) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, "", id))
	if err != nil {
		return nil, classify(err)
	}
	return c, nil
}

// DeleteComment tombstones or removes an owned comment. Both conditional
// statements run inside one immediate transaction, so a reply committed
// concurrently lands either before the check (tombstone) or after the row
// is gone (its insert fails on the parent foreign key).
func (s *Store) DeleteComment(ctx context.Context, id, ownerID string) (domain.DeleteOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.DeleteRemoved, classify(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE comments SET text = ?, state = ?
		WHERE id = ? AND user_id = ?
			AND EXISTS (SELECT 1 FROM comments r WHERE r.parent_comment_id = comments.id)`,
		domain.TombstoneText, string(domain.CommentTombstoned), id, ownerID,
	)
	if err != nil {
		return domain.DeleteRemoved, classify(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return domain.DeleteTombstoned, classify(tx.Commit())
	}

	res, err = tx.ExecContext(ctx, `
		DELETE FROM comments
		WHERE id = ? AND user_id = ?
			AND NOT EXISTS (SELECT 1 FROM comments r WHERE r.parent_comment_id = comments.id)`,
		id, ownerID,
	)
	if err != nil {
		return domain.DeleteRemoved, classify(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return domain.DeleteRemoved, classify(tx.Commit())
	}

	return domain.DeleteRemoved, s.resolveMissTx(ctx, tx, tableComments, id)
}

// ListReplies returns a comment's direct replies, oldest first.
func (s *Store) ListReplies(ctx context.Context, parentID, viewerID string) ([]*domain.Comment, error) {
	return s.queryComments(ctx,
		commentSelect+` WHERE c.parent_comment_id = ? ORDER BY c.created_at ASC, c.rowid ASC`,
		viewerID, parentID)
}

// ListTopLevelComments returns one page of a target's top-level comments,
// oldest first, each with all of its replies attached. Replies for the whole
// page are fetched in a single query.
func (s *Store) ListTopLevelComments(ctx context.Context, target domain.Target, viewerID string, p store.PageParams) ([]*domain.Comment, int, error) {
	col, err := targetColumn(target)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE `+col+` = ? AND parent_comment_id IS NULL`, target.ID,
	).Scan(&total); err != nil {
		return nil, 0, classify(err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	top, err := s.queryComments(ctx,
		commentSelect+` WHERE c.`+col+` = ? AND c.parent_comment_id IS NULL
		ORDER BY c.created_at ASC, c.rowid ASC LIMIT ? OFFSET ?`,
		viewerID, target.ID, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, err
	}
	if len(top) == 0 {
		return top, total, nil
	}

	args := make([]any, 0, len(top)+1)
	args = append(args, viewerID)
	for _, c := range top {
		args = append(args, c.ID)
	}
	replies, err := s.queryComments(ctx,
		commentSelect+` WHERE c.parent_comment_id IN (`+placeholders(len(top))+`)
		ORDER BY c.created_at ASC, c.rowid ASC`, args...)
	if err != nil {
		return nil, 0, err
	}

	byParent := lo.GroupBy(replies, func(c *domain.Comment) string { return c.Position().ParentID() })
	for _, c := range top {
		c.Replies = byParent[c.ID]
		c.ReplyCount = len(c.Replies)
	}
	return top, total, nil
}

// resolveMissTx is resolveMiss inside an open transaction.
func (s *Store) resolveMissTx(ctx context.Context, tx *sql.Tx, table, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if err != nil {
		return classify(err)
	}
	return store.ErrForbidden
}
