package providers

import (
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookclub-server/internal/api"
	"github.com/listenupapp/bookclub-server/internal/auth"
	"github.com/listenupapp/bookclub-server/internal/config"
	"github.com/listenupapp/bookclub-server/internal/logger"
	"github.com/listenupapp/bookclub-server/internal/ratelimit"
	"github.com/listenupapp/bookclub-server/internal/service"
)

// RateLimiterHandle wraps the mutation rate limiter. KeyedRateLimiter is nil
// when rate limiting is disabled.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	if h.KeyedRateLimiter != nil {
		h.Stop()
	}
	return nil
}

// ProvideRateLimiter provides the per-user mutation rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.RateLimit.Enabled {
		log.Info("Rate limiting disabled by configuration")
		return &RateLimiterHandle{}, nil
	}

	log.Info("Rate limiting enabled", "rps", cfg.RateLimit.RPS, "burst", cfg.RateLimit.Burst)
	return &RateLimiterHandle{KeyedRateLimiter: ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	return withShutdownDeadline(h.Server.Shutdown)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)
	resolver := do.MustInvoke[*auth.Resolver](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Reviews:       do.MustInvoke[*service.ReviewService](i),
		Comments:      do.MustInvoke[*service.CommentService](i),
		Likes:         do.MustInvoke[*service.LikeService](i),
		Lists:         do.MustInvoke[*service.ListService](i),
		Notifications: do.MustInvoke[*service.NotificationService](i),
		Interactions:  do.MustInvoke[*service.InteractionService](i),
	}

	handler := api.NewServer(storeHandle.Store, services, api.Infrastructure{
		Resolver:    resolver,
		SSE:         sseHandle.Manager,
		Index:       indexHandle.ReviewIndex,
		Limiter:     limiterHandle.KeyedRateLimiter,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr, "name", cfg.Server.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
