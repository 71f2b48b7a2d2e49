package service

import (
	"context"
	"log/slog"

	"github.com/listenupapp/bookclub-server/internal/domain"
	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
	"github.com/listenupapp/bookclub-server/internal/id"
	"github.com/listenupapp/bookclub-server/internal/metrics"
	"github.com/listenupapp/bookclub-server/internal/richtext"
	"github.com/listenupapp/bookclub-server/internal/store"
	"github.com/listenupapp/bookclub-server/internal/validation"
)

// CreateListInput describes a new reading list.
type CreateListInput struct {
	Title       string `json:"title" validate:"nonblank,maxrunes=200"`
	Description string `json:"description" validate:"maxrunes=2000"`
}

// ListService manages reading lists.
type ListService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewListService creates a list service.
func NewListService(st store.Store, v *validation.Validator, logger *slog.Logger) *ListService {
	return &ListService{store: st, validator: v, logger: logger}
}

// Create creates a list owned by the actor.
func (s *ListService) Create(ctx context.Context, actorID string, in CreateListInput) (*domain.List, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	in.Title = richtext.Normalize(in.Title)
	in.Description = richtext.Normalize(in.Description)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	lid, err := id.Generate("list")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate list id")
	}
	l := &domain.List{ID: lid, UserID: actorID, Title: in.Title, Description: in.Description}

	err = s.store.CreateList(ctx, l)
	metrics.ObserveMutation("list_create", err)
	if err != nil {
		return nil, translateStoreErr(err, "list")
	}
	return s.Get(ctx, l.ID)
}

// Get returns a list with its comment count.
func (s *ListService) Get(ctx context.Context, listID string) (*domain.List, error) {
	l, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, translateStoreErr(err, "list")
	}
	return l, nil
}

// Delete removes an owned list and its comments.
func (s *ListService) Delete(ctx context.Context, listID, actorID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	err := s.store.DeleteList(ctx, listID, actorID)
	metrics.ObserveMutation("list_delete", err)
	return translateStoreErr(err, "list")
}

// ListByUser returns a user's lists, newest first.
func (s *ListService) ListByUser(ctx context.Context, userID string) ([]*domain.List, error) {
	lists, err := s.store.ListListsByUser(ctx, userID)
	if err != nil {
		return nil, translateStoreErr(err, "list")
	}
	if lists == nil {
		lists = []*domain.List{}
	}
	return lists, nil
}
