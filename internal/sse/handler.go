package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/listenupapp/bookclub-server/internal/auth"
)

const (
	defaultHeartbeat = 30 * time.Second
	writeTimeout     = 60 * time.Second
)

// Handler streams the authenticated user's notifications at
// GET /api/v1/notifications/stream.
type Handler struct {
	manager           *Manager
	logger            *slog.Logger
	heartbeatInterval time.Duration
}

// NewHandler creates a new SSE Handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{
		manager:           manager,
		logger:            logger,
		heartbeatInterval: defaultHeartbeat,
	}
}

// ServeHTTP handles the SSE connection. The request must already carry an
// authenticated user in its context.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("streaming not supported", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := h.manager.Connect(userID)
	if err != nil {
		h.logger.Error("failed to register SSE client", slog.String("error", err.Error()))
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	log := h.logger.With(slog.String("client_id", client.ID), slog.String("user_id", userID))
	write := func(seq uint64, eventType string, data any) bool {
		if err := writeFrame(w, seq, eventType, data); err != nil {
			log.Debug("stream write failed", slog.String("error", err.Error()))
			return false
		}
		if err := rc.Flush(); err != nil {
			return false
		}
		// Not every ResponseWriter supports deadlines.
		_ = rc.SetWriteDeadline(time.Now().Add(writeTimeout))
		return true
	}

	if !write(0, "connected", map[string]string{"client_id": client.ID}) {
		return
	}

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				return
			}
			if !write(event.Seq, string(event.Type), event) {
				return
			}

		case <-heartbeat.C:
			hb := NewHeartbeatEvent()
			if !write(0, string(hb.Type), hb) {
				return
			}

		case <-client.Done:
			log.Info("stream closed by manager")
			return

		case <-r.Context().Done():
			return
		}
	}
}

// writeFrame writes one "id:/event:/data:" frame. A zero seq omits the id
// line so heartbeats do not move the client's Last-Event-ID.
func writeFrame(w io.Writer, seq uint64, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	if seq > 0 {
		if _, err := io.WriteString(w, "id: "+strconv.FormatUint(seq, 10)+"\n"); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
	return err
}
