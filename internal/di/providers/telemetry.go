package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookclub-server/internal/config"
	"github.com/listenupapp/bookclub-server/internal/logger"
	"github.com/listenupapp/bookclub-server/internal/telemetry"
)

// TelemetryHandle flushes the tracer provider on shutdown.
type TelemetryHandle struct {
	shutdown func(context.Context) error
}

// Shutdown implements do.Shutdownable.
func (h *TelemetryHandle) Shutdown() error {
	return withShutdownDeadline(h.shutdown)
}

// ProvideTelemetry installs the global tracer provider.
func ProvideTelemetry(i do.Injector) (*TelemetryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	shutdown, err := telemetry.Setup(context.Background(), telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		Environment:  cfg.App.Environment,
		StdoutTraces: cfg.Telemetry.StdoutTraces,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Tracing initialized",
		"service_name", cfg.Telemetry.ServiceName,
		"stdout_traces", cfg.Telemetry.StdoutTraces,
	)

	return &TelemetryHandle{shutdown: shutdown}, nil
}
