package providers

import (
	"context"
	"time"
)

// shutdownTimeout bounds each handle's Shutdown. The container shuts handles
// down one at a time, so the worst case is this times the handle count.
const shutdownTimeout = 30 * time.Second

// withShutdownDeadline runs stop with a fresh context bounded by
// shutdownTimeout. do.Shutdownable gives handles no context of their own.
func withShutdownDeadline(stop func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return stop(ctx)
}
