package sqlite

import (
	"context"
	"database/sql"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

// CreateUser inserts a user. Returns store.ErrAlreadyExists on duplicate ID.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, created_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.DisplayName, nullString(u.Email), formatTime(u.CreatedAt),
	)
	return classify(err)
}

// GetUser returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var (
		u         domain.User
		email     sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, email, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.DisplayName, &email, &createdAt)
	if err != nil {
		return nil, classify(err)
	}
	u.Email = email.String
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateBook inserts a catalog book. Returns store.ErrAlreadyExists on duplicate ID.
func (s *Store) CreateBook(ctx context.Context, b *domain.Book) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (id, title, author, created_at)
		VALUES (?, ?, ?, ?)`,
		b.ID, b.Title, nullString(b.Author), formatTime(b.CreatedAt),
	)
	return classify(err)
}

// GetBook returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var (
		b         domain.Book
		author    sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, author, created_at FROM books WHERE id = ?`, id,
	).Scan(&b.ID, &b.Title, &author, &createdAt)
	if err != nil {
		return nil, classify(err)
	}
	b.Author = author.String
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &b, nil
}
