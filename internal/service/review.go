package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"

	"github.com/listenupapp/bookclub-server/internal/config"
	"github.com/listenupapp/bookclub-server/internal/domain"
	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
	"github.com/listenupapp/bookclub-server/internal/id"
	"github.com/listenupapp/bookclub-server/internal/metrics"
	"github.com/listenupapp/bookclub-server/internal/richtext"
	"github.com/listenupapp/bookclub-server/internal/search"
	"github.com/listenupapp/bookclub-server/internal/store"
	"github.com/listenupapp/bookclub-server/internal/validation"
)

// ReviewIndexer keeps the full-text review index in step with the store.
// *search.ReviewIndex implements it.
type ReviewIndexer interface {
	Index(doc *search.ReviewDocument) error
	IndexBatch(docs []*search.ReviewDocument) error
	Delete(id string) error
	DocCount() (uint64, error)
	Search(ctx context.Context, p search.Params) (*search.Result, error)
}

// ReviewInput is the user-supplied part of a review. Text may be editor HTML.
type ReviewInput struct {
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Text   *string `json:"review_text"`
}

// ReviewService manages the review lifecycle.
type ReviewService struct {
	store     store.Store
	index     ReviewIndexer
	validator *validation.Validator
	cfg       config.SocialConfig
	logger    *slog.Logger
}

// NewReviewService creates a review service. index may be nil when search
// is disabled.
func NewReviewService(st store.Store, index ReviewIndexer, v *validation.Validator, cfg config.SocialConfig, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:     st,
		index:     index,
		validator: v,
		cfg:       cfg,
		logger:    logger,
	}
}

// prepare validates in and normalizes its text. Text that is empty after
// normalization becomes nil.
func (s *ReviewService) prepare(in ReviewInput) (ReviewInput, error) {
	if err := s.validator.Validate(in); err != nil {
		return in, err
	}
	if in.Text != nil {
		text := richtext.ReviewBody(*in.Text)
		if text == "" {
			in.Text = nil
			return in, nil
		}
		if err := s.validator.Var("review_text", text, fmt.Sprintf("maxrunes=%d", s.cfg.MaxReviewLength)); err != nil {
			return in, err
		}
		in.Text = &text
	}
	return in, nil
}

// Log records that the actor read bookID, creating their review on the
// first log and updating it afterwards. Nil fields keep the existing
// review's values. Logging is the one review action that marks the book
// read; the rating follows the review through the store. created reports
// whether a new review was written.
func (s *ReviewService) Log(ctx context.Context, actorID, bookID string, in ReviewInput) (r *domain.Review, created bool, err error) {
	if err := requireActor(actorID); err != nil {
		return nil, false, err
	}
	ctx, span := startSpan(ctx, "review.log", attribute.String("book_id", bookID))
	defer func() {
		metrics.ObserveMutation("review_log", err)
		finishSpan(span, err)
	}()

	if in, err = s.prepare(in); err != nil {
		return nil, false, err
	}
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, false, translateStoreErr(err, "book")
	}

	existing, err := s.store.GetReviewByUserAndBook(ctx, actorID, bookID, actorID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if r, err = s.create(ctx, actorID, bookID, in); err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, translateStoreErr(err, "review")
	default:
		merged := store.ReviewUpdate{ID: existing.ID, OwnerID: actorID, Rating: existing.Rating, Text: existing.Text}
		if in.Rating != nil {
			merged.Rating = in.Rating
		}
		if in.Text != nil {
			merged.Text = in.Text
		}
		if err := s.store.UpdateReview(ctx, merged); err != nil {
			return nil, false, translateStoreErr(err, "review")
		}
		if r, err = s.store.GetReview(ctx, existing.ID, actorID); err != nil {
			return nil, false, translateStoreErr(err, "review")
		}
		s.reindex(ctx, r)
	}

	if _, err := s.store.UpdateInteraction(ctx, actorID, bookID, func(i *domain.Interaction) error {
		i.IsRead = true
		return nil
	}); err != nil {
		return nil, false, translateStoreErr(err, "interaction")
	}
	return r, created, nil
}

// Create writes a new review. It fails with Conflict when the actor has
// already reviewed the book.
func (s *ReviewService) Create(ctx context.Context, actorID, bookID string, in ReviewInput) (r *domain.Review, err error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "review.create", attribute.String("book_id", bookID))
	defer func() { finishSpan(span, err) }()

	if in, err = s.prepare(in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, translateStoreErr(err, "book")
	}

	r, err = s.create(ctx, actorID, bookID, in)
	metrics.ObserveMutation("review_create", err)
	return r, err
}

func (s *ReviewService) create(ctx context.Context, actorID, bookID string, in ReviewInput) (*domain.Review, error) {
	rid, err := id.Generate("rev")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate review id")
	}

	r := &domain.Review{
		ID:     rid,
		UserID: actorID,
		BookID: bookID,
		Rating: in.Rating,
		Text:   in.Text,
	}
	if err := s.store.CreateReview(ctx, r); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("You have already reviewed this book.").WithCause(err)
		}
		return nil, translateStoreErr(err, "review")
	}

	created, err := s.store.GetReview(ctx, r.ID, actorID)
	if err != nil {
		return nil, translateStoreErr(err, "review")
	}
	s.reindex(ctx, created)
	return created, nil
}

// Get returns a review annotated for viewerID, who may be anonymous.
func (s *ReviewService) Get(ctx context.Context, reviewID, viewerID string) (*domain.Review, error) {
	r, err := s.store.GetReview(ctx, reviewID, viewerID)
	if err != nil {
		return nil, translateStoreErr(err, "review")
	}
	return r, nil
}

// Update replaces the rating and text of an owned review. Removing the
// rating clears it from the author's interaction too, unless the
// interaction's flags retain it. Read state is untouched and edits do not
// notify anyone.
func (s *ReviewService) Update(ctx context.Context, reviewID, actorID string, in ReviewInput) (r *domain.Review, err error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "review.update", attribute.String("review_id", reviewID))
	defer func() { finishSpan(span, err) }()

	if in, err = s.prepare(in); err != nil {
		return nil, err
	}

	err = s.store.UpdateReview(ctx, store.ReviewUpdate{
		ID:      reviewID,
		OwnerID: actorID,
		Rating:  in.Rating,
		Text:    in.Text,
	})
	metrics.ObserveMutation("review_update", err)
	if err != nil {
		return nil, translateStoreErr(err, "review")
	}

	r, err = s.store.GetReview(ctx, reviewID, actorID)
	if err != nil {
		return nil, translateStoreErr(err, "review")
	}
	s.reindex(ctx, r)
	return r, nil
}

// Delete removes an owned review together with its comments and likes,
// then clears the author's rating for the book unless the book is still
// read, watchlisted, liked or owned. Cleanup failures are logged and do not
// fail the delete.
func (s *ReviewService) Delete(ctx context.Context, reviewID, actorID string) (err error) {
	if err := requireActor(actorID); err != nil {
		return err
	}
	ctx, span := startSpan(ctx, "review.delete", attribute.String("review_id", reviewID))
	defer func() { finishSpan(span, err) }()

	bookID, err := s.store.DeleteReview(ctx, reviewID, actorID)
	metrics.ObserveMutation("review_delete", err)
	if err != nil {
		return translateStoreErr(err, "review")
	}

	s.unindex(ctx, reviewID)
	s.cleanupRating(ctx, actorID, bookID)
	return nil
}

func (s *ReviewService) cleanupRating(ctx context.Context, userID, bookID string) {
	ctx, cancel := detached(ctx, s.cfg.FanoutTimeout)
	defer cancel()

	cleared, err := s.store.ClearRatingIfUnretained(ctx, userID, bookID)
	switch {
	case err != nil:
		metrics.RatingCleanups.WithLabelValues(metrics.ResultError).Inc()
		s.logger.WarnContext(ctx, "rating cleanup failed",
			slog.String("actor_id", userID),
			slog.String("book_id", bookID),
			slog.String("error", err.Error()))
	case cleared:
		metrics.RatingCleanups.WithLabelValues(metrics.ResultOK).Inc()
	default:
		metrics.RatingCleanups.WithLabelValues(metrics.ResultNoop).Inc()
	}
}

// ListForBook pages a book's reviews, newest first.
func (s *ReviewService) ListForBook(ctx context.Context, bookID, viewerID string, page, pageSize int) (domain.Page[*domain.Review], error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return domain.Page[*domain.Review]{}, translateStoreErr(err, "book")
	}

	p := pageParams(s.cfg, page, pageSize)
	items, total, err := s.store.ListReviewsForBook(ctx, bookID, viewerID, p)
	if err != nil {
		return domain.Page[*domain.Review]{}, translateStoreErr(err, "review")
	}
	return domain.NewPage(items, p.Page, p.PageSize, total), nil
}

// Search returns reviews matching q in relevance order. Hits whose review
// has since been deleted are skipped.
func (s *ReviewService) Search(ctx context.Context, q, viewerID string, limit int) (reviews []*domain.Review, err error) {
	if s.index == nil {
		return nil, domainerrors.NotFound("Review search is not enabled.")
	}
	ctx, span := startSpan(ctx, "review.search", attribute.String("query", q))
	defer func() { finishSpan(span, err) }()

	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	limit = min(limit, s.cfg.MaxPageSize)

	res, err := s.index.Search(ctx, search.Params{Query: q, Limit: limit})
	if err != nil {
		metrics.SearchIndexFailures.WithLabelValues("search").Inc()
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search reviews")
	}

	ids := lo.Map(res.Hits, func(h search.Hit, _ int) string { return h.ReviewID })
	found, err := s.store.GetReviewsByIDs(ctx, ids, viewerID)
	if err != nil {
		return nil, translateStoreErr(err, "review")
	}

	byID := lo.KeyBy(found, func(r *domain.Review) string { return r.ID })
	return lo.FilterMap(ids, func(reviewID string, _ int) (*domain.Review, bool) {
		r, ok := byID[reviewID]
		return r, ok
	}), nil
}

func (s *ReviewService) reindex(ctx context.Context, r *domain.Review) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(search.DocumentFromReview(r)); err != nil {
		metrics.SearchIndexFailures.WithLabelValues("index").Inc()
		s.logger.WarnContext(ctx, "failed to index review", slog.String("review_id", r.ID), slog.String("error", err.Error()))
	}
}

func (s *ReviewService) unindex(ctx context.Context, reviewID string) {
	if s.index == nil {
		return
	}
	if err := s.index.Delete(reviewID); err != nil {
		metrics.SearchIndexFailures.WithLabelValues("delete").Inc()
		s.logger.WarnContext(ctx, "failed to remove review from index", slog.String("review_id", reviewID), slog.String("error", err.Error()))
	}
}

// ReindexIfEmpty fills an empty index from the store and returns how many
// reviews were indexed. It does nothing when search is disabled or the index
// already holds documents.
func (s *ReviewService) ReindexIfEmpty(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	count, err := s.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("count indexed reviews: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	reviews, err := s.store.ListAllReviews(ctx)
	if err != nil {
		return 0, translateStoreErr(err, "review")
	}
	if len(reviews) == 0 {
		return 0, nil
	}

	docs := lo.Map(reviews, func(r *domain.Review, _ int) *search.ReviewDocument {
		return search.DocumentFromReview(r)
	})
	if err := s.index.IndexBatch(docs); err != nil {
		metrics.SearchIndexFailures.WithLabelValues("index").Inc()
		return 0, fmt.Errorf("index reviews: %w", err)
	}
	s.logger.InfoContext(ctx, "search index rebuilt", slog.Int("reviews", len(docs)))
	return len(docs), nil
}
