package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

func (s *Server) registerInteractionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listInteractions",
		Method:      http.MethodGet,
		Path:        "/api/v1/interactions",
		Summary:     "List my book state",
		Description: "Returns the current user's read, watchlist, like, owned and rating state for every book they touched",
		Tags:        []string{tagInteractions},
		Security:    bearerAuth,
	}, s.handleListInteractions)

	huma.Register(s.api, huma.Operation{
		OperationID: "getInteraction",
		Method:      http.MethodGet,
		Path:        "/api/v1/interactions/{bookId}",
		Summary:     "Get my book state",
		Tags:        []string{tagInteractions},
		Security:    bearerAuth,
	}, s.handleGetInteraction)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateInteraction",
		Method:      http.MethodPatch,
		Path:        "/api/v1/interactions/{bookId}",
		Summary:     "Update my book state",
		Description: "Sets the given flags; omitted flags keep their value. clear_rating removes the rating.",
		Tags:        []string{tagInteractions},
		Security:    bearerAuth,
	}, s.handleUpdateInteraction)
}

// === DTOs ===

// InteractionBookInput identifies the book.
type InteractionBookInput struct {
	BookID string `path:"bookId" doc:"Book ID"`
}

// UpdateInteractionInput wraps the patch for Huma.
type UpdateInteractionInput struct {
	BookID string `path:"bookId" doc:"Book ID"`
	Body   domain.InteractionPatch
}

// InteractionOutput wraps one interaction.
type InteractionOutput struct {
	Body *domain.Interaction
}

// InteractionsResponse contains all of a user's interactions.
type InteractionsResponse struct {
	Interactions []*domain.Interaction `json:"interactions" doc:"Book state, most recently updated first"`
}

// InteractionsOutput wraps the list for Huma.
type InteractionsOutput struct {
	Body InteractionsResponse
}

// === Handlers ===

func (s *Server) handleListInteractions(ctx context.Context, _ *struct{}) (*InteractionsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Interactions.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &InteractionsOutput{Body: InteractionsResponse{Interactions: items}}, nil
}

func (s *Server) handleGetInteraction(ctx context.Context, input *InteractionBookInput) (*InteractionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	i, err := s.services.Interactions.Get(ctx, userID, input.BookID)
	if err != nil {
		return nil, err
	}
	return &InteractionOutput{Body: i}, nil
}

func (s *Server) handleUpdateInteraction(ctx context.Context, input *UpdateInteractionInput) (*InteractionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	i, err := s.services.Interactions.Update(ctx, userID, input.BookID, input.Body)
	if err != nil {
		return nil, err
	}
	return &InteractionOutput{Body: i}, nil
}
