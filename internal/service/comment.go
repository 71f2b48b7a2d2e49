package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/listenupapp/bookclub-server/internal/config"
	"github.com/listenupapp/bookclub-server/internal/domain"
	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
	"github.com/listenupapp/bookclub-server/internal/id"
	"github.com/listenupapp/bookclub-server/internal/metrics"
	"github.com/listenupapp/bookclub-server/internal/richtext"
	"github.com/listenupapp/bookclub-server/internal/store"
	"github.com/listenupapp/bookclub-server/internal/validation"
)

// CommentService manages two-level comment threads on reviews and lists.
type CommentService struct {
	store     store.Store
	notifier  Notifier
	validator *validation.Validator
	cfg       config.SocialConfig
	logger    *slog.Logger
}

// NewCommentService creates a comment service.
func NewCommentService(st store.Store, notifier Notifier, v *validation.Validator, cfg config.SocialConfig, logger *slog.Logger) *CommentService {
	return &CommentService{
		store:     st,
		notifier:  notifier,
		validator: v,
		cfg:       cfg,
		logger:    logger,
	}
}

// targetInfo is what fan-out needs to know about a comment target.
type targetInfo struct {
	ownerID string
	title   string
}

// resolveTarget loads a review or list target.
func resolveTarget(ctx context.Context, st store.Store, target domain.Target) (targetInfo, error) {
	switch target.Kind {
	case domain.TargetReview:
		r, err := st.GetReview(ctx, target.ID, "")
		if err != nil {
			return targetInfo{}, translateStoreErr(err, "review")
		}
		return targetInfo{ownerID: r.UserID, title: r.BookTitle()}, nil
	case domain.TargetList:
		l, err := st.GetList(ctx, target.ID)
		if err != nil {
			return targetInfo{}, translateStoreErr(err, "list")
		}
		return targetInfo{ownerID: l.UserID, title: l.Title}, nil
	default:
		return targetInfo{}, domainerrors.Validationf("cannot comment on %s", target.Kind)
	}
}

// AddComment posts a comment on target at the requested thread position.
// A reply to a reply attaches to the thread's top-level comment; the
// notification still goes to the author of the comment actually replied to.
// The returned comment has no likes.
func (s *CommentService) AddComment(ctx context.Context, target domain.Target, actorID, text string, at domain.ThreadPosition) (c *domain.Comment, err error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if !target.ValidForComment() {
		return nil, domainerrors.Validation("Comments can only be posted on reviews and lists.")
	}
	ctx, span := startSpan(ctx, "comment.add",
		attribute.String("target", target.String()),
		attribute.Bool("reply", at.IsReply()),
	)
	defer func() { finishSpan(span, err) }()

	text = richtext.CommentBody(text)
	if err := s.validator.Var("text", text, fmt.Sprintf("nonblank,maxrunes=%d", s.cfg.MaxCommentLength)); err != nil {
		return nil, err
	}

	info, err := resolveTarget(ctx, s.store, target)
	if err != nil {
		return nil, err
	}

	var repliedTo *domain.Comment
	if at.IsReply() {
		parent, err := s.store.GetComment(ctx, at.ParentID())
		if err != nil {
			return nil, translateStoreErr(err, "comment")
		}
		if parent.Target != target {
			return nil, domainerrors.NotFound("comment not found")
		}
		repliedTo = parent
	}

	cid, err := id.Generate("cmt")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate comment id")
	}
	c = &domain.Comment{
		ID:     cid,
		UserID: actorID,
		Target: target,
		Text:   text,
		State:  domain.CommentActive,
	}
	if repliedTo != nil {
		c.Place(repliedTo.ReplyPosition())
	}

	err = s.store.CreateComment(ctx, c)
	metrics.ObserveMutation("comment_add", err)
	if err != nil {
		return nil, translateStoreErr(err, "comment")
	}

	ev := domain.FanoutEvent{
		Actor:       domain.UserSummary{ID: actorID},
		EntityID:    c.ID,
		ParentID:    target.ID,
		ParentTitle: info.title,
	}
	switch {
	case repliedTo != nil:
		ev.Trigger = domain.TriggerReplyToComment
		ev.RecipientID = repliedTo.UserID
	case target.Kind == domain.TargetList:
		ev.Trigger = domain.TriggerTopLevelOnList
		ev.RecipientID = info.ownerID
	default:
		ev.Trigger = domain.TriggerTopLevelOnReview
		ev.RecipientID = info.ownerID
	}
	s.notifier.Fanout(ctx, ev)

	if stored, err := s.store.GetComment(ctx, c.ID); err == nil {
		c = stored
	}
	c.LikeCount, c.LikedByViewer = 0, false
	return c, nil
}

// Delete removes an owned comment, or tombstones it when it has replies.
func (s *CommentService) Delete(ctx context.Context, commentID, actorID string) (outcome domain.DeleteOutcome, err error) {
	if err := requireActor(actorID); err != nil {
		return 0, err
	}
	ctx, span := startSpan(ctx, "comment.delete", attribute.String("comment_id", commentID))
	defer func() { finishSpan(span, err) }()

	outcome, err = s.store.DeleteComment(ctx, commentID, actorID)
	metrics.ObserveMutation("comment_delete", err)
	if err != nil {
		return 0, translateStoreErr(err, "comment")
	}
	metrics.CommentDeletes.WithLabelValues(outcome.String()).Inc()
	span.SetAttributes(attribute.String("outcome", outcome.String()))
	return outcome, nil
}

// ListReplies returns a comment's replies, oldest first. Tombstoned
// comments keep their replies. A reply never has replies of its own.
func (s *CommentService) ListReplies(ctx context.Context, commentID, viewerID string) ([]*domain.Comment, error) {
	parent, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, translateStoreErr(err, "comment")
	}
	if parent.Position().IsReply() {
		return []*domain.Comment{}, nil
	}
	replies, err := s.store.ListReplies(ctx, commentID, viewerID)
	if err != nil {
		return nil, translateStoreErr(err, "comment")
	}
	if replies == nil {
		replies = []*domain.Comment{}
	}
	return replies, nil
}

// ListTopLevel pages a target's top-level comments, oldest first, each with
// its replies attached.
func (s *CommentService) ListTopLevel(ctx context.Context, target domain.Target, viewerID string, page, pageSize int) (domain.Page[*domain.Comment], error) {
	if !target.ValidForComment() {
		return domain.Page[*domain.Comment]{}, domainerrors.Validation("Comments can only be listed on reviews and lists.")
	}
	if _, err := resolveTarget(ctx, s.store, target); err != nil {
		return domain.Page[*domain.Comment]{}, err
	}

	p := pageParams(s.cfg, page, pageSize)
	items, total, err := s.store.ListTopLevelComments(ctx, target, viewerID, p)
	if err != nil {
		return domain.Page[*domain.Comment]{}, translateStoreErr(err, "comment")
	}
	return domain.NewPage(items, p.Page, p.PageSize, total), nil
}
