package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/service"
)

func (s *Server) registerListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createList",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists",
		Summary:       "Create list",
		Description:   "Creates a reading list owned by the current user",
		Tags:          []string{tagLists},
		Security:      bearerAuth,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "listLists",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists",
		Summary:     "List reading lists",
		Description: "Returns a user's lists, newest first. Defaults to the current user.",
		Tags:        []string{tagLists},
	}, s.handleListLists)

	huma.Register(s.api, huma.Operation{
		OperationID: "getList",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/{id}",
		Summary:     "Get list",
		Tags:        []string{tagLists},
	}, s.handleGetList)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteList",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lists/{id}",
		Summary:     "Delete list",
		Description: "Deletes a list and its comments (owner only)",
		Tags:        []string{tagLists},
		Security:    bearerAuth,
	}, s.handleDeleteList)
}

// === DTOs ===

// CreateListRequest is the request body for creating a list.
type CreateListRequest struct {
	Title       string `json:"title" doc:"List title"`
	Description string `json:"description,omitempty" doc:"List description"`
}

// CreateListInput wraps the create request for Huma.
type CreateListInput struct {
	Body CreateListRequest
}

// ListListsInput selects whose lists to return.
type ListListsInput struct {
	UserID string `query:"user_id" doc:"Owner of the lists; defaults to the current user"`
}

// ListIDInput identifies a list.
type ListIDInput struct {
	ID string `path:"id" doc:"List ID"`
}

// ListOutput wraps a single list.
type ListOutput struct {
	Body *domain.List
}

// ListsResponse contains a user's lists.
type ListsResponse struct {
	Lists []*domain.List `json:"lists" doc:"Lists, newest first"`
}

// ListsOutput wraps the lists response for Huma.
type ListsOutput struct {
	Body ListsResponse
}

// === Handlers ===

func (s *Server) handleCreateList(ctx context.Context, input *CreateListInput) (*ListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.Lists.Create(ctx, userID, service.CreateListInput{
		Title:       input.Body.Title,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: list}, nil
}

func (s *Server) handleListLists(ctx context.Context, input *ListListsInput) (*ListsOutput, error) {
	ownerID := input.UserID
	if ownerID == "" {
		userID, err := GetUserID(ctx)
		if err != nil {
			return nil, err
		}
		ownerID = userID
	}

	lists, err := s.services.Lists.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &ListsOutput{Body: ListsResponse{Lists: lists}}, nil
}

func (s *Server) handleGetList(ctx context.Context, input *ListIDInput) (*ListOutput, error) {
	list, err := s.services.Lists.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: list}, nil
}

func (s *Server) handleDeleteList(ctx context.Context, input *ListIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Lists.Delete(ctx, input.ID, userID); err != nil {
		return nil, err
	}
	return message("List deleted"), nil
}
