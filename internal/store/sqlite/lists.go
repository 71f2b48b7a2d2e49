package sqlite

import (
	"context"
	"database/sql"

	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/store"
)

// listColumns must match the scan order in scanList.
const listColumns = `l.id, l.user_id, l.title, l.description, l.created_at, u.display_name,
	(SELECT COUNT(*) FROM comments c WHERE c.list_id = l.id)`

func scanList(scanner interface{ Scan(dest ...any) error }) (*domain.List, error) {
	var (
		l           domain.List
		description sql.NullString
		createdAt   string
		ownerName   string
	)
	if err := scanner.Scan(&l.ID, &l.UserID, &l.Title, &description, &createdAt, &ownerName, &l.CommentCount); err != nil {
		return nil, err
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	l.CreatedAt = created
	l.Description = description.String
	owner := (&domain.User{ID: l.UserID, DisplayName: ownerName}).Summary()
	l.Owner = &owner
	return &l, nil
}

// CreateList inserts a reading list.
func (s *Store) CreateList(ctx context.Context, l *domain.List) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lists (id, user_id, title, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Title, nullString(l.Description), formatTime(l.CreatedAt),
	)
	return classify(err)
}

// GetList returns store.ErrNotFound if the list does not exist.
func (s *Store) GetList(ctx context.Context, id string) (*domain.List, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+listColumns+`
		FROM lists l JOIN users u ON u.id = l.user_id
		WHERE l.id = ?`, id)
	l, err := scanList(row)
	if err != nil {
		return nil, classify(err)
	}
	return l, nil
}

// DeleteList deletes an owned list. Comments on it cascade.
func (s *Store) DeleteList(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM lists WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.resolveMiss(ctx, tableLists, id)
	}
	return nil
}

// ListListsByUser returns a user's lists, newest first.
func (s *Store) ListListsByUser(ctx context.Context, userID string) ([]*domain.List, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+listColumns+`
		FROM lists l JOIN users u ON u.id = l.user_id
		WHERE l.user_id = ?
		ORDER BY l.created_at DESC, l.rowid DESC`, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var lists []*domain.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// Tables whose rows carry a user_id owner or recipient column.
const (
	tableLists         = "lists"
	tableReviews       = "reviews"
	tableComments      = "comments"
	tableNotifications = "notifications"
)

// resolveMiss explains why a conditional "WHERE id = ? AND user_id = ?"
// statement touched no rows: either the row is gone or someone else owns it.
func (s *Store) resolveMiss(ctx context.Context, table, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if err != nil {
		return classify(err)
	}
	return store.ErrForbidden
}
