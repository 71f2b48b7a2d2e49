// Package store defines the persistence contract for the social layer and
// the errors storage implementations return.
package store

import (
	"context"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

// Store is the full persistence contract. The relational database behind it
// is the only synchronization point between concurrent requests: uniqueness,
// ownership and cascades are enforced by the statements themselves.
type Store interface {
	UserStore
	BookStore
	ListStore
	ReviewStore
	CommentStore
	LikeStore
	NotificationStore
	InteractionStore

	Ping(ctx context.Context) error
	Close() error
}

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// BookStore persists catalog books.
type BookStore interface {
	CreateBook(ctx context.Context, b *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
}

// ListStore persists reading lists.
type ListStore interface {
	CreateList(ctx context.Context, l *domain.List) error
	GetList(ctx context.Context, id string) (*domain.List, error)
	// DeleteList removes the list and, by cascade, its comments.
	// Returns ErrForbidden when the list exists but ownerID does not own it.
	DeleteList(ctx context.Context, id, ownerID string) error
	ListListsByUser(ctx context.Context, userID string) ([]*domain.List, error)
}

// ReviewUpdate is an owner edit of a review.
type ReviewUpdate struct {
	ID      string
	OwnerID string
	Rating  *int
	Text    *string
}

// ReviewStore persists reviews. Read methods annotate each review with like
// and comment counts and whether viewerID liked it.
type ReviewStore interface {
	// CreateReview inserts the review, marks the book read for the author
	// and mirrors the rating into the interaction row, all in one transaction.
	// Returns ErrAlreadyExists when the author already reviewed the book.
	CreateReview(ctx context.Context, r *domain.Review) error
	GetReview(ctx context.Context, id, viewerID string) (*domain.Review, error)
	GetReviewByUserAndBook(ctx context.Context, userID, bookID, viewerID string) (*domain.Review, error)
	// UpdateReview applies the edit only if OwnerID owns the review.
	UpdateReview(ctx context.Context, u ReviewUpdate) error
	// DeleteReview removes an owned review; comments and likes cascade.
	// Returns the book ID the review belonged to.
	DeleteReview(ctx context.Context, id, ownerID string) (bookID string, err error)
	ListReviewsForBook(ctx context.Context, bookID, viewerID string, p PageParams) ([]*domain.Review, int, error)
	GetReviewsByIDs(ctx context.Context, ids []string, viewerID string) ([]*domain.Review, error)
	ListAllReviews(ctx context.Context) ([]*domain.Review, error)
}

// CommentStore persists comment threads.
type CommentStore interface {
	CreateComment(ctx context.Context, c *domain.Comment) error
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	// DeleteComment tombstones an owned comment that has replies and removes
	// one that has none, deciding atomically against concurrent replies.
	DeleteComment(ctx context.Context, id, ownerID string) (domain.DeleteOutcome, error)
	ListReplies(ctx context.Context, parentID, viewerID string) ([]*domain.Comment, error)
	// ListTopLevelComments returns one page of top-level comments with their
	// replies attached, plus the total number of top-level comments.
	ListTopLevelComments(ctx context.Context, target domain.Target, viewerID string, p PageParams) ([]*domain.Comment, int, error)
}

// LikeStore persists likes. At most one like exists per (user, target).
type LikeStore interface {
	// CreateLike inserts the like unless one already exists and reports
	// whether a row was created.
	CreateLike(ctx context.Context, l *domain.Like) (bool, error)
	// DeleteLike removes the like if present and reports whether it existed.
	DeleteLike(ctx context.Context, userID string, target domain.Target) (bool, error)
	CountLikes(ctx context.Context, target domain.Target) (int, error)
}

// NotificationStore persists the notification inbox.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	GetNotification(ctx context.Context, id string) (*domain.Notification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, p PageParams) ([]*domain.Notification, int, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	// MarkNotificationRead returns ErrForbidden when userID is not the recipient.
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
}

// InteractionStore persists per-(user, book) state.
type InteractionStore interface {
	// GetInteraction returns ErrNotFound when no row exists.
	GetInteraction(ctx context.Context, userID, bookID string) (*domain.Interaction, error)
	// UpdateInteraction runs fn against the current state (or the empty state)
	// inside a write transaction and saves the result, deleting the row when
	// it ends up empty.
	UpdateInteraction(ctx context.Context, userID, bookID string, fn func(*domain.Interaction) error) (*domain.Interaction, error)
	// ClearRatingIfUnretained clears the rating unless the row is read,
	// watchlisted, liked or owned. Reports whether a rating was cleared.
	ClearRatingIfUnretained(ctx context.Context, userID, bookID string) (bool, error)
	ListInteractions(ctx context.Context, userID string) ([]*domain.Interaction, error)
}
