// Package service implements the social layer: reviews, comment threads,
// likes, the notification inbox and per-book interaction state.
//
// Services take the acting user's ID as a plain string; an empty ID is an
// anonymous caller. Every returned error is a *errors.Error so handlers can
// map it to a status and a user-facing message.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/listenupapp/bookclub-server/internal/config"
	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
	"github.com/listenupapp/bookclub-server/internal/store"
)

var tracer = otel.Tracer("github.com/listenupapp/bookclub-server/internal/service")

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finishSpan records err on span and ends it.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func requireActor(actorID string) error {
	if actorID == "" {
		return domainerrors.Unauthenticated("Sign in to do that.")
	}
	return nil
}

// translateStoreErr converts a store error into a domain error. entity names
// the thing being read or written ("review", "comment") for messages.
func translateStoreErr(err error, entity string) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrReferenceMissing):
		return domainerrors.NotFoundf("%s not found", entity).WithCause(err)
	case errors.Is(err, store.ErrForbidden):
		return domainerrors.Unauthorized(fmt.Sprintf("You can only change your own %s.", entity)).WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Conflict(fmt.Sprintf("%s already exists", entity)).WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(err.Error()).WithCause(err)
	case errors.Is(err, store.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return domainerrors.Transient("store busy").WithCause(err)
	default:
		return domainerrors.Wrapf(err, domainerrors.CodeInternal, "%s operation failed", entity)
	}
}

// pageParams clamps a page request to the configured bounds.
func pageParams(cfg config.SocialConfig, page, pageSize int) store.PageParams {
	return store.PageParams{Page: page, PageSize: pageSize}.Normalize(cfg.DefaultPageSize, cfg.MaxPageSize)
}

// detached returns a context that survives the caller's cancellation but
// gives up after timeout. Post-commit side effects run on it.
func detached(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
