package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookclub-server/internal/domain"
)

func (s *Server) registerLikeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "likeReview",
		Method:      http.MethodPost,
		Path:        "/api/v1/reviews/{id}/like",
		Summary:     "Like a review",
		Description: "Likes the review. Liking twice is a no-op.",
		Tags:        []string{tagLikes},
		Security:    bearerAuth,
	}, s.handleLikeReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlikeReview",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reviews/{id}/like",
		Summary:     "Unlike a review",
		Description: "Removes the current user's like. Unliking something not liked is a no-op.",
		Tags:        []string{tagLikes},
		Security:    bearerAuth,
	}, s.handleUnlikeReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "likeComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/comments/{id}/like",
		Summary:     "Like a comment",
		Description: "Likes the comment. Liking twice is a no-op.",
		Tags:        []string{tagLikes},
		Security:    bearerAuth,
	}, s.handleLikeComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlikeComment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/comments/{id}/like",
		Summary:     "Unlike a comment",
		Description: "Removes the current user's like. Unliking something not liked is a no-op.",
		Tags:        []string{tagLikes},
		Security:    bearerAuth,
	}, s.handleUnlikeComment)
}

// === DTOs ===

// LikeInput identifies the liked review or comment.
type LikeInput struct {
	ID string `path:"id" doc:"Review or comment ID"`
}

// LikeOutput wraps the like state for Huma.
type LikeOutput struct {
	Body *domain.LikeResult
}

// === Handlers ===

func (s *Server) handleLikeReview(ctx context.Context, input *LikeInput) (*LikeOutput, error) {
	return s.setLike(ctx, domain.ReviewTarget(input.ID), true)
}

func (s *Server) handleUnlikeReview(ctx context.Context, input *LikeInput) (*LikeOutput, error) {
	return s.setLike(ctx, domain.ReviewTarget(input.ID), false)
}

func (s *Server) handleLikeComment(ctx context.Context, input *LikeInput) (*LikeOutput, error) {
	return s.setLike(ctx, domain.CommentTarget(input.ID), true)
}

func (s *Server) handleUnlikeComment(ctx context.Context, input *LikeInput) (*LikeOutput, error) {
	return s.setLike(ctx, domain.CommentTarget(input.ID), false)
}

func (s *Server) setLike(ctx context.Context, target domain.Target, liked bool) (*LikeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	var res *domain.LikeResult
	if liked {
		res, err = s.services.Likes.Like(ctx, target, userID)
	} else {
		res, err = s.services.Likes.Unlike(ctx, target, userID)
	}
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: res}, nil
}
