package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reflex/internal/app"
	"github.com/vango-dev/reflex/internal/config"
	"github.com/vango-dev/reflex/pkg/host"
	"github.com/vango-dev/reflex/pkg/live"
	"github.com/vango-dev/reflex/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream the counter over WebSocket",
		Long: `Start an HTTP server that ticks the counter on an event loop and
streams every paint to WebSocket clients at /ws.

Configuration is read from reflex.yaml when present.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.FileName, "Path to config file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	observers := []telemetry.Observer{
		telemetry.Logger(logger),
		telemetry.NewMetrics(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithSubsystem(cfg.Metrics.Subsystem),
			telemetry.WithRegistry(registry),
		),
	}
	if cfg.Tracing.Enabled {
		observers = append(observers, telemetry.NewTracer(telemetry.WithTracerName(cfg.Tracing.Name)))
	}

	loop := host.NewLoop(host.LoopConfig{
		QueueSize: cfg.QueueSize,
		Logger:    logger,
	})
	srv := live.NewServer(live.Config{
		Logger:   logger,
		Gatherer: registry,
	})
	defer srv.Close()

	counter := app.NewCounter(&host.Config{
		Logger:    logger,
		Observer:  telemetry.Multi(observers...),
		Scheduler: loop.Scheduler(),
	})
	counter.Component.OnPaint(func(v app.View) {
		if err := srv.Publish(v); err != nil {
			logger.Warn("publish failed", "error", err)
		}
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("listen %s: %w", cfg.Addr, err)
			loop.Close()
		}
	}()
	logger.Info("serving", "addr", cfg.Addr, "tick", cfg.Tick)

	if err := loop.Dispatch(counter.Component.Mount); err != nil {
		return err
	}
	go tick(ctx, loop, counter, cfg.Tick, logger)

	runErr := loop.Run(ctx)

	// The loop has stopped, so this goroutine owns the component now.
	counter.Component.Unmount()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown failed", "error", err)
	}

	select {
	case err := <-serveErr:
		return err
	default:
	}
	if runErr != nil && ctx.Err() != nil {
		logger.Info("stopped", "reason", runErr)
		return nil
	}
	return runErr
}

// tick queues a counter tick on the loop every interval until ctx ends.
func tick(ctx context.Context, loop *host.Loop, counter *app.Counter, interval time.Duration, logger *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := loop.Dispatch(counter.Tick); err != nil {
				if errors.Is(err, host.ErrLoopClosed) {
					return
				}
				logger.Warn("tick dropped", "error", err)
			}
		}
	}
}
