package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookclub-server/internal/config"
	"github.com/listenupapp/bookclub-server/internal/logger"
	"github.com/listenupapp/bookclub-server/internal/sse"
)

// SSEManagerHandle owns the notification stream manager and its delivery loop.
type SSEManagerHandle struct {
	*sse.Manager
	stopLoop context.CancelFunc
}

// Shutdown implements do.Shutdownable. Queued notifications are drained
// before the loop is cancelled.
func (h *SSEManagerHandle) Shutdown() error {
	err := withShutdownDeadline(h.Manager.Shutdown)
	h.stopLoop()
	return err
}

// ProvideSSEManager starts the delivery loop for notification streams.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger, sse.WithMaxStreamsPerUser(cfg.SSE.MaxStreamsPerUser))
	loopCtx, stop := context.WithCancel(context.Background())
	go manager.Start(loopCtx)

	return &SSEManagerHandle{Manager: manager, stopLoop: stop}, nil
}
