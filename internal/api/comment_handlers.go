package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listReviewComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/{id}/comments",
		Summary:     "List review comments",
		Description: "Returns a page of top-level comments on a review, oldest first, each with its replies",
		Tags:        []string{tagComments},
	}, s.handleListReviewComments)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addReviewComment",
		Method:        http.MethodPost,
		Path:          "/api/v1/reviews/{id}/comments",
		Summary:       "Comment on a review",
		Description:   "Posts a comment on a review, or a reply when parent_comment_id is set",
		Tags:          []string{tagComments},
		Security:      bearerAuth,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddReviewComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "listListComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/{id}/comments",
		Summary:     "List list comments",
		Description: "Returns a page of top-level comments on a list, oldest first, each with its replies",
		Tags:        []string{tagComments},
	}, s.handleListListComments)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addListComment",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists/{id}/comments",
		Summary:       "Comment on a list",
		Description:   "Posts a comment on a list, or a reply when parent_comment_id is set",
		Tags:          []string{tagComments},
		Security:      bearerAuth,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddListComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCommentReplies",
		Method:      http.MethodGet,
		Path:        "/api/v1/comments/{id}/replies",
		Summary:     "List replies",
		Description: "Returns all replies to a top-level comment, oldest first",
		Tags:        []string{tagComments},
	}, s.handleListReplies)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Delete comment",
		Description: "Deletes a comment (author only). A comment with replies is replaced by a tombstone instead.",
		Tags:        []string{tagComments},
		Security:    bearerAuth,
	}, s.handleDeleteComment)
}

// === DTOs ===

// AddCommentRequest is the request body for posting a comment.
type AddCommentRequest struct {
	Text            string `json:"text" doc:"Comment text"`
	ParentCommentID string `json:"parent_comment_id,omitempty" doc:"Comment being replied to"`
}

// AddCommentInput wraps the comment request for Huma.
type AddCommentInput struct {
	ID   string `path:"id" doc:"Review or list ID"`
	Body AddCommentRequest
}

// ListCommentsInput contains parameters for listing a target's comments.
type ListCommentsInput struct {
	ID string `path:"id" doc:"Review or list ID"`
	PageQuery
}

// CommentIDInput identifies a comment.
type CommentIDInput struct {
	ID string `path:"id" doc:"Comment ID"`
}

// CommentOutput wraps a single comment.
type CommentOutput struct {
	Body *domain.Comment
}

// CommentPageOutput wraps a page of top-level comments.
type CommentPageOutput struct {
	Body domain.Page[*domain.Comment]
}

// RepliesResponse contains a comment's replies.
type RepliesResponse struct {
	Replies []*domain.Comment `json:"replies" doc:"Replies, oldest first"`
}

// RepliesOutput wraps the replies response for Huma.
type RepliesOutput struct {
	Body RepliesResponse
}

// DeleteCommentResponse reports how a comment was removed.
type DeleteCommentResponse struct {
	Outcome string `json:"outcome" enum:"removed,tombstoned" doc:"removed, or tombstoned when replies keep the thread alive"`
}

// DeleteCommentOutput wraps the delete response for Huma.
type DeleteCommentOutput struct {
	Body DeleteCommentResponse
}

// === Handlers ===

func (s *Server) addComment(ctx context.Context, target domain.Target, body AddCommentRequest) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	at := domain.TopLevel()
	if body.ParentCommentID != "" {
		at = domain.ReplyTo(body.ParentCommentID)
	}
	comment, err := s.services.Comments.AddComment(ctx, target, userID, body.Text, at)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) listComments(ctx context.Context, target domain.Target, q PageQuery) (*CommentPageOutput, error) {
	page, err := s.services.Comments.ListTopLevel(ctx, target, viewerID(ctx), q.Page, q.PageSize)
	if err != nil {
		return nil, err
	}
	return &CommentPageOutput{Body: page}, nil
}

func (s *Server) handleAddReviewComment(ctx context.Context, input *AddCommentInput) (*CommentOutput, error) {
	return s.addComment(ctx, domain.ReviewTarget(input.ID), input.Body)
}

func (s *Server) handleAddListComment(ctx context.Context, input *AddCommentInput) (*CommentOutput, error) {
	return s.addComment(ctx, domain.ListTarget(input.ID), input.Body)
}

func (s *Server) handleListReviewComments(ctx context.Context, input *ListCommentsInput) (*CommentPageOutput, error) {
	return s.listComments(ctx, domain.ReviewTarget(input.ID), input.PageQuery)
}

func (s *Server) handleListListComments(ctx context.Context, input *ListCommentsInput) (*CommentPageOutput, error) {
	return s.listComments(ctx, domain.ListTarget(input.ID), input.PageQuery)
}

func (s *Server) handleListReplies(ctx context.Context, input *CommentIDInput) (*RepliesOutput, error) {
	replies, err := s.services.Comments.ListReplies(ctx, input.ID, viewerID(ctx))
	if err != nil {
		return nil, err
	}
	return &RepliesOutput{Body: RepliesResponse{Replies: replies}}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *CommentIDInput) (*DeleteCommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	outcome, err := s.services.Comments.Delete(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &DeleteCommentOutput{Body: DeleteCommentResponse{Outcome: outcome.String()}}, nil
}
