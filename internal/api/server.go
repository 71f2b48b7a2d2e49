// Package api provides the HTTP API for the book club social layer.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/bookclub-server/internal/auth"
	"github.com/listenupapp/bookclub-server/internal/metrics"
	"github.com/listenupapp/bookclub-server/internal/ratelimit"
	"github.com/listenupapp/bookclub-server/internal/search"
	"github.com/listenupapp/bookclub-server/internal/sse"
	"github.com/listenupapp/bookclub-server/internal/store"
)

// APIVersion is reported in the OpenAPI document.
const APIVersion = "1.0.0"

// Infrastructure groups the non-service collaborators of the server.
type Infrastructure struct {
	Resolver *auth.Resolver
	SSE      *sse.Manager
	// Index is nil when review search is disabled.
	Index *search.ReviewIndex
	// Limiter is nil when rate limiting is disabled.
	Limiter     *ratelimit.KeyedRateLimiter
	CORSOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      store.Store
	services   *Services
	infra      Infrastructure
	router     chi.Router
	api        huma.API
	sseHandler *sse.Handler
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, infra Infrastructure, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:      st,
		services:   services,
		infra:      infra,
		router:     router,
		sseHandler: sse.NewHandler(infra.SSE, logger),
		logger:     logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Book Club API", APIVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestMetrics)

	origins := s.infra.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(authMiddleware(s.infra.Resolver, s.logger))

	if s.infra.Limiter != nil {
		s.router.Use(RateLimitMiddleware(s.infra.Limiter, s.logger))
	}
}

func (s *Server) registerRoutes() {
	s.router.Handle("/metrics", metrics.Handler())
	s.router.With(requireUser(s.logger)).Get("/api/v1/notifications/stream", s.sseHandler.ServeHTTP)

	s.registerHealthRoutes()
	s.registerReviewRoutes()
	s.registerCommentRoutes()
	s.registerLikeRoutes()
	s.registerListRoutes()
	s.registerNotificationRoutes()
	s.registerInteractionRoutes()
}
