package sse

import (
	"bufio"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookclub-server/internal/auth"
	"github.com/listenupapp/bookclub-server/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
		defer done()
		_ = m.Shutdown(shutdownCtx)
		cancel()
	})
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev := <-c.EventChan:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_DeliversOnlyToRecipient(t *testing.T) {
	m := newTestManager(t)

	alice, err := m.Connect("usr-a")
	require.NoError(t, err)
	bob, err := m.Connect("usr-b")
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())

	m.Emit(NewNotificationCreatedEvent(&domain.Notification{ID: "ntf-1", UserID: "usr-b"}, 1))

	ev := receive(t, bob)
	assert.Equal(t, EventNotificationCreated, ev.Type)
	data, ok := ev.Data.(NotificationEventData)
	require.True(t, ok)
	assert.Equal(t, "ntf-1", data.Notification.ID)
	assert.Equal(t, 1, data.UnreadCount)

	select {
	case ev := <-alice.EventChan:
		t.Fatalf("alice received %s", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}

	m.Disconnect(alice.ID)
	m.Disconnect(alice.ID)
	assert.Equal(t, 1, m.ClientCount())
}

func TestManager_EmitAfterShutdownIsDropped(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	assert.NotPanics(t, func() {
		m.Emit(NewNotificationsReadEvent("usr-a", "", 0))
	})
}

func TestHandler_RequiresUser(t *testing.T) {
	h := NewHandler(newTestManager(t), slog.New(slog.DiscardHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notifications/stream", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_StreamsNotifications(t *testing.T) {
	m := newTestManager(t)
	h := NewHandler(m, slog.New(slog.DiscardHandler))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), "usr-b")))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		require.True(t, lines.Scan())
		return lines.Text()
	}

	assert.Equal(t, "event: connected", next())
	assert.True(t, strings.HasPrefix(next(), "data: "))
	next()

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	m.Emit(NewNotificationCreatedEvent(&domain.Notification{ID: "ntf-9", UserID: "usr-b"}, 3))

	assert.True(t, strings.HasPrefix(next(), "id: "))
	assert.Equal(t, "event: notification.created", next())
	data := next()
	assert.Contains(t, data, `"id":"ntf-9"`)
	assert.Contains(t, data, `"unread_count":3`)
}

func TestManager_EvictsOldestStreamPastLimit(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler), WithMaxStreamsPerUser(2))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(func() {
		_ = m.Shutdown(context.Background())
		cancel()
	})

	first, err := m.Connect("usr-a")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	second, err := m.Connect("usr-a")
	require.NoError(t, err)
	third, err := m.Connect("usr-a")
	require.NoError(t, err)

	assert.Equal(t, 2, m.ClientCount())
	select {
	case <-first.Done:
	default:
		t.Fatal("oldest stream still open")
	}

	m.Emit(NewNotificationsReadEvent("usr-a", "", 0))
	assert.Equal(t, EventNotificationsRead, receive(t, second).Type)
	assert.Equal(t, EventNotificationsRead, receive(t, third).Type)

	// Closing an evicted stream again is harmless.
	m.Disconnect(first.ID)
	assert.Equal(t, 2, m.ClientCount())
}

func TestManager_EmitAssignsIncreasingSeq(t *testing.T) {
	m := newTestManager(t)
	c, err := m.Connect("usr-a")
	require.NoError(t, err)

	m.Emit(NewNotificationsReadEvent("usr-a", "ntf-1", 1))
	m.Emit(NewNotificationsReadEvent("usr-a", "ntf-2", 0))

	a, b := receive(t, c), receive(t, c)
	assert.Positive(t, a.Seq)
	assert.Greater(t, b.Seq, a.Seq)
}

func TestWriteFrame(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, writeFrame(&sb, 7, "heartbeat", map[string]int{"n": 1}))
	assert.Equal(t, "id: 7\nevent: heartbeat\ndata: {\"n\":1}\n\n", sb.String())

	sb.Reset()
	require.NoError(t, writeFrame(&sb, 0, "connected", map[string]string{}))
	assert.Equal(t, "event: connected\ndata: {}\n\n", sb.String())
}
