package sqlite

import (
	"context"
	"database/sql"

	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/store"
)

const notificationColumns = `id, user_id, actor_id, actor_display_name, actor_avatar_color,
	type, entity_type, entity_id, entity_parent_id, entity_parent_title, is_read, created_at`

func scanNotification(scanner interface{ Scan(dest ...any) error }) (*domain.Notification, error) {
	var (
		n          domain.Notification
		ntype      string
		entityType string
		parentID   sql.NullString
		createdAt  string
	)
	err := scanner.Scan(
		&n.ID, &n.UserID, &n.ActorID, &n.ActorDisplayName, &n.ActorAvatarColor,
		&ntype, &entityType, &n.EntityID, &parentID, &n.EntityParentTitle, &n.Read, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(ntype)
	n.EntityType = domain.EntityType(entityType)
	n.EntityParentID = stringPtr(parentID)
	return &n, nil
}

// CreateNotification appends an inbox entry.
func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.ActorID, n.ActorDisplayName, n.ActorAvatarColor,
		string(n.Type), string(n.EntityType), n.EntityID, nullableString(n.EntityParentID),
		n.EntityParentTitle, boolInt(n.Read), formatTime(n.CreatedAt),
	)
	return classify(err)
}

// GetNotification returns store.ErrNotFound if the notification does not exist.
func (s *Store) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := scanNotification(s.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if err != nil {
		return nil, classify(err)
	}
	return n, nil
}

// ListNotifications returns one page of a user's inbox, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, p store.PageParams) ([]*domain.Notification, int, error) {
	where := ` WHERE user_id = ?`
	if unreadOnly {
		where += ` AND is_read = 0`
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications`+where, userID).Scan(&total); err != nil {
		return nil, 0, classify(err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications`+where+`
		ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		userID, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, classify(err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountUnreadNotifications returns the number of unread inbox entries.
func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID).Scan(&n)
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// MarkNotificationRead flips the read flag. Only the recipient may do so;
// marking an already-read notification succeeds.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.resolveMiss(ctx, tableNotifications, id)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread entry read and returns how many changed.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
