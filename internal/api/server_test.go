package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookclub-server/internal/auth"
	"github.com/listenupapp/bookclub-server/internal/config"
	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/ratelimit"
	"github.com/listenupapp/bookclub-server/internal/search"
	"github.com/listenupapp/bookclub-server/internal/service"
	"github.com/listenupapp/bookclub-server/internal/sse"
	"github.com/listenupapp/bookclub-server/internal/store/sqlite"
	"github.com/listenupapp/bookclub-server/internal/validation"
)

// testServer wraps the API server with the handles tests need.
type testServer struct {
	*Server
	api    humatest.TestAPI
	db     *sqlite.Store
	tokens *auth.TokenService
}

type testOptions struct {
	limiter       *ratelimit.KeyedRateLimiter
	disableSearch bool
}

func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWith(t, testOptions{})
}

// setupTestServerWith builds the full stack on a temp SQLite file and
// bleve index.
func setupTestServerWith(t *testing.T, opts testOptions) *testServer {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		index   *search.ReviewIndex
		indexer service.ReviewIndexer
	)
	if !opts.disableSearch {
		index, err = search.NewReviewIndex(search.Options{Path: filepath.Join(dir, "search.bleve"), Logger: logger})
		require.NoError(t, err)
		t.Cleanup(func() { _ = index.Close() })
		indexer = index
	}

	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{3}, 32), time.Hour)
	require.NoError(t, err)

	manager := sse.NewManager(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)
	t.Cleanup(func() {
		cancel()
		_ = manager.Shutdown(context.Background())
	})

	cfg := config.SocialConfig{
		DefaultPageSize:  20,
		MaxPageSize:      100,
		FanoutTimeout:    time.Second,
		MaxCommentLength: 2000,
		MaxReviewLength:  20000,
	}
	v := validation.New()
	notifications := service.NewNotificationService(db, manager, cfg, logger)

	services := &Services{
		Reviews:       service.NewReviewService(db, indexer, v, cfg, logger),
		Comments:      service.NewCommentService(db, notifications, v, cfg, logger),
		Likes:         service.NewLikeService(db, notifications, logger),
		Lists:         service.NewListService(db, v, logger),
		Notifications: notifications,
		Interactions:  service.NewInteractionService(db, logger),
	}

	s := NewServer(db, services, Infrastructure{
		Resolver: auth.NewResolver(tokens),
		SSE:      manager,
		Index:    index,
		Limiter:  opts.limiter,
	}, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		db:     db,
		tokens: tokens,
	}
}

// user creates a user and returns an Authorization header for humatest.
func (ts *testServer) user(t *testing.T, id, name string) string {
	t.Helper()
	u := &domain.User{ID: id, DisplayName: name}
	require.NoError(t, ts.db.CreateUser(context.Background(), u))
	token, err := ts.tokens.GenerateAccessToken(u)
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

func (ts *testServer) book(t *testing.T, id, title, author string) {
	t.Helper()
	require.NoError(t, ts.db.CreateBook(context.Background(), &domain.Book{ID: id, Title: title, Author: author}))
}

// envelope is the decoded response wrapper.
type envelope[T any] struct {
	Version   int    `json:"v"`
	Success   bool   `json:"success"`
	Data      T      `json:"data"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "body: %s", resp.Body.String())
	return env
}

func requireStatus(t *testing.T, resp *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, resp.Code, "body: %s", resp.Body.String())
}

func TestServer_UnknownRouteIs404(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_InvalidTokenIsAnonymous(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/notifications", "Authorization: Bearer v4.local.garbage")
	requireStatus(t, resp, http.StatusUnauthorized)

	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHENTICATED", env.Code)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.api.Get("/health")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bookclub_http_request_duration_seconds")
}

func TestServer_NotificationStreamRequiresUser(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream", nil)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decode[any](t, w)
	assert.Equal(t, "UNAUTHENTICATED", env.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/lists", nil)
	req.Header.Set("Origin", "https://club.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
