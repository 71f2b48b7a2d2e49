package sse

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/listenupapp/bookclub-server/internal/id"
	"github.com/listenupapp/bookclub-server/internal/metrics"
)

const (
	defaultQueueSize         = 1000
	defaultClientBuffer      = 100
	defaultMaxStreamsPerUser = 5
)

// Client is one open notification stream.
type Client struct {
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
	ID          string
	UserID      string

	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.Done)
		close(c.EventChan)
		metrics.SSEClients.Dec()
	})
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxStreamsPerUser caps open streams per user. Connecting past the cap
// closes that user's oldest stream.
func WithMaxStreamsPerUser(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxPerUser = n
		}
	}
}

// Manager routes user-addressed events to that user's open streams.
// Events are queued by Emit and delivered by the loop in Start, so a slow
// client never blocks the writer that produced the event.
type Manager struct {
	logger     *slog.Logger
	events     chan Event
	maxPerUser int
	seq        atomic.Uint64
	wg         sync.WaitGroup

	mu    sync.RWMutex
	users map[string]map[string]*Client
	count int

	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewManager creates a new SSE Manager.
func NewManager(logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		logger:     logger,
		events:     make(chan Event, defaultQueueSize),
		maxPerUser: defaultMaxStreamsPerUser,
		users:      make(map[string]map[string]*Client),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start runs the delivery loop until ctx is done. Call it once, in its own goroutine.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	m.logger.Info("SSE manager starting")

	for {
		select {
		case event, ok := <-m.events:
			if !ok {
				return
			}
			m.deliver(event)

		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAll()
			return
		}
	}
}

// Shutdown stops accepting events, drains what is queued and closes all streams.
func (m *Manager) Shutdown(ctx context.Context) error {
	// Emit sends under the read lock, so closing under the write lock never
	// races a send.
	m.shutdownMu.Lock()
	if m.shutdown {
		m.shutdownMu.Unlock()
		return nil
	}
	m.shutdown = true
	close(m.events)
	m.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		for event := range m.events {
			m.deliver(event)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("SSE drain timed out, queued events dropped")
	}

	m.wg.Wait()
	m.closeAll()

	m.logger.Info("SSE manager shutdown complete")
	return nil
}

// deliver hands event to each of its recipient's streams. Events without a
// recipient go to everyone.
func (m *Manager) deliver(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if event.UserID == "" {
		for _, streams := range m.users {
			m.send(streams, event)
		}
		return
	}

	streams := m.users[event.UserID]
	if len(streams) == 0 {
		m.logger.Debug("no open stream for recipient",
			slog.String("user_id", event.UserID),
			slog.String("event_type", string(event.Type)))
		return
	}
	m.send(streams, event)
}

func (m *Manager) send(streams map[string]*Client, event Event) {
	for _, c := range streams {
		select {
		case c.EventChan <- event:
		default:
			m.logger.Warn("dropped event for slow client",
				slog.String("client_id", c.ID),
				slog.String("user_id", c.UserID),
				slog.String("event_type", string(event.Type)))
		}
	}
}

// Connect opens a stream for userID.
func (m *Manager) Connect(userID string) (*Client, error) {
	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		UserID:      userID,
		EventChan:   make(chan Event, defaultClientBuffer),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	streams := m.users[userID]
	if streams == nil {
		streams = make(map[string]*Client)
		m.users[userID] = streams
	}
	var evicted *Client
	if len(streams) >= m.maxPerUser {
		evicted = oldest(streams)
		delete(streams, evicted.ID)
		m.count--
	}
	streams[clientID] = client
	m.count++
	total := m.count
	m.mu.Unlock()

	metrics.SSEClients.Inc()
	if evicted != nil {
		evicted.close()
		m.logger.Info("SSE stream limit reached, closed oldest",
			slog.String("client_id", evicted.ID),
			slog.String("user_id", userID))
	}

	m.logger.Info("SSE client connected",
		slog.String("client_id", clientID),
		slog.String("user_id", userID),
		slog.Int("total_clients", total))
	return client, nil
}

func oldest(streams map[string]*Client) *Client {
	var o *Client
	for _, c := range streams {
		if o == nil || c.ConnectedAt.Before(o.ConnectedAt) {
			o = c
		}
	}
	return o
}

// Disconnect closes a stream. Unknown or already closed IDs are ignored.
func (m *Manager) Disconnect(clientID string) {
	var client *Client

	m.mu.Lock()
	for userID, streams := range m.users {
		if c, ok := streams[clientID]; ok {
			client = c
			delete(streams, clientID)
			if len(streams) == 0 {
				delete(m.users, userID)
			}
			m.count--
			break
		}
	}
	total := m.count
	m.mu.Unlock()

	if client == nil {
		return
	}
	client.close()

	m.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", total))
}

// Emit queues an event and stamps its sequence number. It never blocks; a
// full queue drops the event.
func (m *Manager) Emit(event Event) {
	m.shutdownMu.RLock()
	defer m.shutdownMu.RUnlock()

	if m.shutdown {
		return
	}

	event.Seq = m.seq.Add(1)
	select {
	case m.events <- event:
	default:
		m.logger.Error("SSE event queue full, dropping event",
			slog.String("event_type", string(event.Type)),
			slog.String("user_id", event.UserID))
	}
}

// ClientCount returns the number of open streams.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	users := m.users
	m.users = make(map[string]map[string]*Client)
	m.count = 0
	m.mu.Unlock()

	for _, streams := range users {
		for _, c := range streams {
			c.close()
		}
	}
}
