package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/listenupapp/bookclub-server/internal/domain"
	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
	"github.com/listenupapp/bookclub-server/internal/id"
	"github.com/listenupapp/bookclub-server/internal/metrics"
	"github.com/listenupapp/bookclub-server/internal/store"
)

// LikeService records likes on reviews and comments.
type LikeService struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
}

// NewLikeService creates a like service.
func NewLikeService(st store.Store, notifier Notifier, logger *slog.Logger) *LikeService {
	return &LikeService{store: st, notifier: notifier, logger: logger}
}

// likeEvent builds the fan-out event for a like on target, failing with
// NotFound when the target is gone.
func (s *LikeService) likeEvent(ctx context.Context, target domain.Target) (domain.FanoutEvent, error) {
	switch target.Kind {
	case domain.TargetReview:
		r, err := s.store.GetReview(ctx, target.ID, "")
		if err != nil {
			return domain.FanoutEvent{}, translateStoreErr(err, "review")
		}
		return domain.FanoutEvent{
			Trigger:     domain.TriggerLikeReview,
			RecipientID: r.UserID,
			EntityID:    r.ID,
			ParentID:    r.BookID,
			ParentTitle: r.BookTitle(),
		}, nil

	case domain.TargetComment:
		c, err := s.store.GetComment(ctx, target.ID)
		if err != nil {
			return domain.FanoutEvent{}, translateStoreErr(err, "comment")
		}
		info, err := resolveTarget(ctx, s.store, c.Target)
		if err != nil {
			return domain.FanoutEvent{}, err
		}
		return domain.FanoutEvent{
			Trigger:     domain.TriggerLikeComment,
			RecipientID: c.UserID,
			EntityID:    c.ID,
			ParentID:    c.Target.ID,
			ParentTitle: info.title,
		}, nil

	default:
		return domain.FanoutEvent{}, domainerrors.Validationf("cannot like %s", target.Kind)
	}
}

// Like records the actor's like on target. Liking twice is a success that
// reports Created false; only the call that created the like notifies the
// owner.
func (s *LikeService) Like(ctx context.Context, target domain.Target, actorID string) (res *domain.LikeResult, err error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if !target.ValidForLike() {
		return nil, domainerrors.Validation("Only reviews and comments can be liked.")
	}
	ctx, span := startSpan(ctx, "like.create", attribute.String("target", target.String()))
	defer func() { finishSpan(span, err) }()

	ev, err := s.likeEvent(ctx, target)
	if err != nil {
		return nil, err
	}

	lid, err := id.Generate("lk")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate like id")
	}

	created, err := s.store.CreateLike(ctx, &domain.Like{ID: lid, UserID: actorID, Target: target})
	if errors.Is(err, store.ErrAlreadyExists) {
		created, err = false, nil
	}
	if err != nil {
		metrics.ObserveMutation("like", err)
		return nil, translateStoreErr(err, string(target.Kind))
	}
	if created {
		metrics.ObserveMutation("like", nil)
	} else {
		metrics.MutationsTotal.WithLabelValues("like", metrics.ResultNoop).Inc()
	}
	span.SetAttributes(attribute.Bool("created", created))

	if created {
		ev.Actor = domain.UserSummary{ID: actorID}
		s.notifier.Fanout(ctx, ev)
	}

	count, err := s.store.CountLikes(ctx, target)
	if err != nil {
		return nil, translateStoreErr(err, "like")
	}
	return &domain.LikeResult{Liked: true, Created: created, LikeCount: count}, nil
}

// Unlike removes the actor's like. Unliking something never liked succeeds.
// Notifications already sent are kept.
func (s *LikeService) Unlike(ctx context.Context, target domain.Target, actorID string) (res *domain.LikeResult, err error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if !target.ValidForLike() {
		return nil, domainerrors.Validation("Only reviews and comments can be liked.")
	}
	ctx, span := startSpan(ctx, "like.delete", attribute.String("target", target.String()))
	defer func() { finishSpan(span, err) }()

	existed, err := s.store.DeleteLike(ctx, actorID, target)
	if err != nil {
		metrics.ObserveMutation("unlike", err)
		return nil, translateStoreErr(err, "like")
	}
	if existed {
		metrics.ObserveMutation("unlike", nil)
	} else {
		metrics.MutationsTotal.WithLabelValues("unlike", metrics.ResultNoop).Inc()
	}

	count, err := s.store.CountLikes(ctx, target)
	if err != nil {
		return nil, translateStoreErr(err, "like")
	}
	return &domain.LikeResult{Liked: false, LikeCount: count}, nil
}
