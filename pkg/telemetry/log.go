package telemetry

import (
	"context"
	"log/slog"
)

type logObserver struct {
	logger *slog.Logger
}

// Logger returns an Observer that writes each event to logger.
// Regular events are logged at debug level, panicked evaluations at error level.
// If logger is nil, slog.Default() is used.
func Logger(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &logObserver{logger: logger}
}

func (o *logObserver) Observe(ev Event) {
	level := slog.LevelDebug
	msg := ev.Kind.String()
	if ev.Panicked {
		level = slog.LevelError
		msg += " panicked"
	}
	ctx := context.Background()
	if !o.logger.Enabled(ctx, level) {
		return
	}
	o.logger.LogAttrs(ctx, level, msg,
		slog.String("component", ev.Component),
		slog.String("phase", ev.Phase),
		slog.Uint64("generation", ev.Generation),
		slog.Int("deps", ev.Deps),
		slog.Duration("duration", ev.Duration),
	)
}
