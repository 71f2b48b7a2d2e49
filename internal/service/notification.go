package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/listenupapp/bookclub-server/internal/config"
	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/id"
	"github.com/listenupapp/bookclub-server/internal/metrics"
	"github.com/listenupapp/bookclub-server/internal/sse"
	"github.com/listenupapp/bookclub-server/internal/store"
)

// EventEmitter pushes events to connected clients. *sse.Manager implements it.
type EventEmitter interface {
	Emit(event sse.Event)
}

// Notifier delivers the notification for a committed social mutation.
type Notifier interface {
	Fanout(ctx context.Context, ev domain.FanoutEvent)
}

// NotificationService owns notification fan-out and the recipient's inbox.
type NotificationService struct {
	store  store.Store
	events EventEmitter
	cfg    config.SocialConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewNotificationService creates a notification service. events may be nil.
func NewNotificationService(st store.Store, events EventEmitter, cfg config.SocialConfig, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		store:  st,
		events: events,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Fanout derives and stores the notification for ev, then pushes it to the
// recipient's open streams. It runs on a context detached from the caller
// and never reports failure: the mutation that triggered it has already
// committed. Inserts are not retried.
func (s *NotificationService) Fanout(ctx context.Context, ev domain.FanoutEvent) {
	ctx, cancel := detached(ctx, s.cfg.FanoutTimeout)
	defer cancel()

	ctx, span := startSpan(ctx, "notification.fanout",
		attribute.String("trigger", string(ev.Trigger)),
		attribute.String("entity_id", ev.EntityID),
	)
	defer span.End()

	log := s.logger.With(
		slog.String("trigger", string(ev.Trigger)),
		slog.String("actor_id", ev.Actor.ID),
		slog.String("recipient_id", ev.RecipientID),
		slog.String("entity_id", ev.EntityID),
	)

	n, ok := domain.DeriveNotification(ev, s.now())
	if !ok {
		metrics.NotificationsSuppressed.WithLabelValues(string(ev.Trigger)).Inc()
		log.DebugContext(ctx, "notification suppressed")
		return
	}

	if n.ActorDisplayName == "" {
		actor, err := s.store.GetUser(ctx, n.ActorID)
		if err != nil {
			s.fanoutFailed(ctx, log, "resolve", err)
			span.RecordError(err)
			return
		}
		n.ActorDisplayName = actor.DisplayName
	}

	nid, err := id.Generate("ntf")
	if err != nil {
		s.fanoutFailed(ctx, log, "id", err)
		return
	}
	n.ID = nid

	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.fanoutFailed(ctx, log, "insert", err)
		span.RecordError(err)
		return
	}
	metrics.NotificationsDelivered.WithLabelValues(string(n.Type)).Inc()
	log.DebugContext(ctx, "notification delivered", slog.String("notification_id", n.ID))

	if s.events == nil {
		return
	}
	unread, err := s.store.CountUnreadNotifications(ctx, n.UserID)
	if err != nil {
		s.fanoutFailed(ctx, log, "push", err)
		return
	}
	s.events.Emit(sse.NewNotificationCreatedEvent(n, unread))
}

func (s *NotificationService) fanoutFailed(ctx context.Context, log *slog.Logger, stage string, err error) {
	metrics.FanoutFailures.WithLabelValues(stage).Inc()
	log.WarnContext(ctx, "notification fan-out failed", slog.String("stage", stage), slog.String("error", err.Error()))
}

// List returns one page of the recipient's inbox, newest first.
func (s *NotificationService) List(ctx context.Context, actorID string, unreadOnly bool, page, pageSize int) (domain.Page[*domain.Notification], error) {
	if err := requireActor(actorID); err != nil {
		return domain.Page[*domain.Notification]{}, err
	}

	p := pageParams(s.cfg, page, pageSize)
	items, total, err := s.store.ListNotifications(ctx, actorID, unreadOnly, p)
	if err != nil {
		return domain.Page[*domain.Notification]{}, translateStoreErr(err, "notification")
	}
	return domain.NewPage(items, p.Page, p.PageSize, total), nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, actorID string) (int, error) {
	if err := requireActor(actorID); err != nil {
		return 0, err
	}
	n, err := s.store.CountUnreadNotifications(ctx, actorID)
	return n, translateStoreErr(err, "notification")
}

// MarkRead marks one notification read. Only the recipient may do so;
// marking an already-read notification succeeds.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, actorID string) (err error) {
	if err := requireActor(actorID); err != nil {
		return err
	}
	ctx, span := startSpan(ctx, "notification.mark_read", attribute.String("notification_id", notificationID))
	defer func() { finishSpan(span, err) }()

	if err := s.store.MarkNotificationRead(ctx, notificationID, actorID); err != nil {
		return translateStoreErr(err, "notification")
	}
	s.pushReadState(ctx, actorID, notificationID)
	return nil
}

// MarkAllRead marks every notification of the actor read and returns how
// many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, actorID string) (int, error) {
	if err := requireActor(actorID); err != nil {
		return 0, err
	}
	n, err := s.store.MarkAllNotificationsRead(ctx, actorID)
	if err != nil {
		return 0, translateStoreErr(err, "notification")
	}
	if n > 0 {
		s.pushReadState(ctx, actorID, "")
	}
	return n, nil
}

func (s *NotificationService) pushReadState(ctx context.Context, userID, notificationID string) {
	if s.events == nil {
		return
	}
	unread, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to count unread notifications", slog.String("user_id", userID), slog.String("error", err.Error()))
		return
	}
	s.events.Emit(sse.NewNotificationsReadEvent(userID, notificationID, unread))
}
