package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reflex/internal/app"
	"github.com/vango-dev/reflex/pkg/host"
	"github.com/vango-dev/reflex/pkg/telemetry"
)

func demoCmd() *cobra.Command {
	var (
		ticks   int
		step    int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the counter in-process",
		Long: `Mount the counter, tick it, and print each paint.

Only ticks that change a field the view depends on produce a paint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), cmd.ErrOrStderr(), ticks, step, verbose)
		},
	}

	cmd.Flags().IntVarP(&ticks, "ticks", "n", 12, "Number of ticks")
	cmd.Flags().IntVar(&step, "step", 1, "Increment per tick")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every evaluation")

	return cmd
}

func runDemo(out, errOut io.Writer, ticks, step int, verbose bool) error {
	if ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", ticks)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	counter := app.NewCounter(&host.Config{
		Logger:   logger,
		Observer: telemetry.Logger(logger),
	})
	counter.Component.OnPaint(func(v app.View) {
		fmt.Fprintf(out, "paint #%d: count=%d double=%d parity=%s step=%d\n",
			v.Renders, v.Count, v.Double, v.Parity, v.Step)
	})

	counter.Component.Mount()
	defer counter.Component.Unmount()

	counter.SetStep(step)
	counter.Component.Flush()

	for i := 0; i < ticks; i++ {
		counter.Tick()
		counter.Component.Flush()
	}

	fmt.Fprintf(out, "milestones: %d\n", counter.Milestones())
	return nil
}
