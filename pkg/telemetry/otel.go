package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for reflex spans.
const defaultTracerName = "reflex"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "reflex").
	TracerName string

	// Provider is the tracer provider. Default: otel.GetTracerProvider().
	Provider trace.TracerProvider

	// Filter determines which events to trace. If nil, all events are traced.
	Filter func(ev Event) bool
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = tp
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(ev Event) bool) TracerOption {
	return func(c *TracerConfig) {
		c.Filter = filter
	}
}

type tracerObserver struct {
	tracer trace.Tracer
	filter func(ev Event) bool
}

// NewTracer returns an Observer that records one span per event.
// Spans carry the event's own start and end timestamps, so they can be
// emitted after the evaluation has finished.
//
// Configure the global tracer provider in main() or pass one with
// WithTracerProvider.
func NewTracer(opts ...TracerOption) Observer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	return &tracerObserver{
		tracer: config.Provider.Tracer(config.TracerName),
		filter: config.Filter,
	}
}

func (o *tracerObserver) Observe(ev Event) {
	if o.filter != nil && !o.filter(ev) {
		return
	}

	_, span := o.tracer.Start(context.Background(),
		fmt.Sprintf("reflex.%s", ev.Kind),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(ev.Start),
		trace.WithAttributes(
			attribute.String("reflex.component", ev.Component),
			attribute.String("reflex.phase", ev.Phase),
			attribute.Int64("reflex.generation", int64(ev.Generation)),
			attribute.Int("reflex.deps", ev.Deps),
		),
	)
	if ev.Panicked {
		span.SetStatus(codes.Error, "user code panicked")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(ev.Start.Add(ev.Duration)))
}
