package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/listenupapp/bookclub-server/internal/domain"
	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
	"github.com/listenupapp/bookclub-server/internal/metrics"
	"github.com/listenupapp/bookclub-server/internal/store"
)

// InteractionService manages per-(user, book) reading state.
type InteractionService struct {
	store  store.Store
	logger *slog.Logger
}

// NewInteractionService creates an interaction service.
func NewInteractionService(st store.Store, logger *slog.Logger) *InteractionService {
	return &InteractionService{store: st, logger: logger}
}

// Get returns the actor's state for bookID. A book the actor never touched
// yields the empty state.
func (s *InteractionService) Get(ctx context.Context, actorID, bookID string) (*domain.Interaction, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	i, err := s.store.GetInteraction(ctx, actorID, bookID)
	if errors.Is(err, store.ErrNotFound) {
		if _, err := s.store.GetBook(ctx, bookID); err != nil {
			return nil, translateStoreErr(err, "book")
		}
		return domain.NewInteraction(actorID, bookID), nil
	}
	if err != nil {
		return nil, translateStoreErr(err, "interaction")
	}
	return i, nil
}

// Update applies patch to the actor's state for bookID. State left with no
// flag and no rating is removed.
func (s *InteractionService) Update(ctx context.Context, actorID, bookID string, patch domain.InteractionPatch) (i *domain.Interaction, err error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if !patch.ClearRating && !domain.ValidRating(patch.Rating) {
		return nil, domainerrors.ValidationWithDetails("rating must be between 1 and 5",
			map[string]string{"rating": "must be between 1 and 5"})
	}
	ctx, span := startSpan(ctx, "interaction.update", attribute.String("book_id", bookID))
	defer func() { finishSpan(span, err) }()

	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, translateStoreErr(err, "book")
	}

	i, err = s.store.UpdateInteraction(ctx, actorID, bookID, func(cur *domain.Interaction) error {
		cur.Apply(patch)
		return nil
	})
	metrics.ObserveMutation("interaction_update", err)
	if err != nil {
		return nil, translateStoreErr(err, "interaction")
	}
	return i, nil
}

// ListForUser returns all of the actor's stored book state.
func (s *InteractionService) ListForUser(ctx context.Context, actorID string) ([]*domain.Interaction, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	items, err := s.store.ListInteractions(ctx, actorID)
	if err != nil {
		return nil, translateStoreErr(err, "interaction")
	}
	if items == nil {
		items = []*domain.Interaction{}
	}
	return items, nil
}
