package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/service"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "logReview",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{bookId}/review",
		Summary:     "Log a book",
		Description: "Creates the current user's review for a book, or updates it if one exists. Omitted fields keep their current value. Logging also marks the book as read.",
		Tags:        []string{tagReviews},
		Security:    bearerAuth,
	}, s.handleLogReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{bookId}/reviews",
		Summary:     "List reviews for a book",
		Description: "Returns a page of reviews for a book, newest first",
		Tags:        []string{tagReviews},
	}, s.handleListBookReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/search",
		Summary:     "Search reviews",
		Description: "Full-text search over review text, book titles and authors",
		Tags:        []string{tagReviews},
	}, s.handleSearchReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "getReview",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Get review",
		Tags:        []string{tagReviews},
	}, s.handleGetReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReview",
		Method:      http.MethodPatch,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Update review",
		Description: "Replaces the rating and text of a review (owner only)",
		Tags:        []string{tagReviews},
		Security:    bearerAuth,
	}, s.handleUpdateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReview",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Delete review",
		Description: "Deletes a review with its comments and likes (owner only)",
		Tags:        []string{tagReviews},
		Security:    bearerAuth,
	}, s.handleDeleteReview)
}

// === DTOs ===

// ReviewRequest is the request body for logging or updating a review.
type ReviewRequest struct {
	Rating     *int    `json:"rating,omitempty" minimum:"1" maximum:"5" doc:"Star rating, 1 to 5"`
	ReviewText *string `json:"review_text,omitempty" doc:"Review body; HTML from the editor is converted to Markdown"`
}

func (r ReviewRequest) input() service.ReviewInput {
	return service.ReviewInput{Rating: r.Rating, Text: r.ReviewText}
}

// LogReviewInput wraps the log request for Huma.
type LogReviewInput struct {
	BookID string `path:"bookId" doc:"Book ID"`
	Body   ReviewRequest
}

// ListBookReviewsInput contains parameters for listing a book's reviews.
type ListBookReviewsInput struct {
	BookID string `path:"bookId" doc:"Book ID"`
	PageQuery
}

// SearchReviewsInput contains review search parameters.
type SearchReviewsInput struct {
	Query string `query:"q" doc:"Search text; empty returns the most relevant recent reviews"`
	Limit int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
}

// ReviewIDInput identifies a review.
type ReviewIDInput struct {
	ID string `path:"id" doc:"Review ID"`
}

// UpdateReviewInput wraps the update request for Huma.
type UpdateReviewInput struct {
	ID   string `path:"id" doc:"Review ID"`
	Body ReviewRequest
}

// ReviewOutput wraps a single review. Status is 201 when a log created it.
type ReviewOutput struct {
	Status int
	Body   *domain.Review
}

// ReviewPageOutput wraps a page of reviews.
type ReviewPageOutput struct {
	Body domain.Page[*domain.Review]
}

// ReviewSearchResponse contains search hits in relevance order.
type ReviewSearchResponse struct {
	Query   string           `json:"query" doc:"The query as received"`
	Reviews []*domain.Review `json:"reviews" doc:"Matching reviews, best first"`
}

// ReviewSearchOutput wraps the search response for Huma.
type ReviewSearchOutput struct {
	Body ReviewSearchResponse
}

// === Handlers ===

func (s *Server) handleLogReview(ctx context.Context, input *LogReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	review, created, err := s.services.Reviews.Log(ctx, userID, input.BookID, input.Body.input())
	if err != nil {
		return nil, err
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return &ReviewOutput{Status: status, Body: review}, nil
}

func (s *Server) handleListBookReviews(ctx context.Context, input *ListBookReviewsInput) (*ReviewPageOutput, error) {
	page, err := s.services.Reviews.ListForBook(ctx, input.BookID, viewerID(ctx), input.Page, input.PageSize)
	if err != nil {
		return nil, err
	}
	return &ReviewPageOutput{Body: page}, nil
}

func (s *Server) handleSearchReviews(ctx context.Context, input *SearchReviewsInput) (*ReviewSearchOutput, error) {
	reviews, err := s.services.Reviews.Search(ctx, input.Query, viewerID(ctx), input.Limit)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return &ReviewSearchOutput{Body: ReviewSearchResponse{Query: input.Query, Reviews: reviews}}, nil
}

func (s *Server) handleGetReview(ctx context.Context, input *ReviewIDInput) (*ReviewOutput, error) {
	review, err := s.services.Reviews.Get(ctx, input.ID, viewerID(ctx))
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Status: http.StatusOK, Body: review}, nil
}

func (s *Server) handleUpdateReview(ctx context.Context, input *UpdateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Reviews.Update(ctx, input.ID, userID, input.Body.input())
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Status: http.StatusOK, Body: review}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *ReviewIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Reviews.Delete(ctx, input.ID, userID); err != nil {
		return nil, err
	}
	return message("Review deleted"), nil
}
