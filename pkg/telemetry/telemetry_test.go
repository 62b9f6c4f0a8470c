package telemetry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindEffectRun, "effect_run"},
		{KindCleanup, "cleanup"},
		{KindDerivedCompute, "derived_compute"},
		{KindInvalidate, "invalidate"},
		{KindRender, "render"},
		{Kind(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestMultiFansOut(t *testing.T) {
	var a, b int
	obs := Multi(
		ObserverFunc(func(Event) { a++ }),
		nil,
		ObserverFunc(func(Event) { b++ }),
	)
	obs.Observe(Event{Kind: KindRender})
	obs.Observe(Event{Kind: KindRender})

	if a != 2 || b != 2 {
		t.Errorf("expected both observers called twice, got %d and %d", a, b)
	}
}

func TestMultiCollapses(t *testing.T) {
	if _, ok := Multi().(nopObserver); !ok {
		t.Error("Multi() with no observers should be Nop")
	}
	single := ObserverFunc(func(Event) {})
	if _, ok := Multi(nil, single).(ObserverFunc); !ok {
		t.Error("Multi with one observer should return it directly")
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	obs := Logger(logger)

	obs.Observe(Event{Kind: KindEffectRun, Component: "counter"})
	if buf.Len() != 0 {
		t.Errorf("debug event should be filtered at info level, got %q", buf.String())
	}

	obs.Observe(Event{Kind: KindEffectRun, Component: "counter", Phase: "after-paint", Panicked: true})
	out := buf.String()
	if !strings.Contains(out, "effect_run panicked") {
		t.Errorf("expected panicked message, got %q", out)
	}
	if !strings.Contains(out, "component=counter") {
		t.Errorf("expected component attribute, got %q", out)
	}
}

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	m.Observe(Event{Kind: KindEffectRun, Phase: "after-paint", Deps: 2, Duration: time.Millisecond})
	m.Observe(Event{Kind: KindEffectRun, Phase: "after-paint", Deps: 1})
	m.Observe(Event{Kind: KindDerivedCompute, Phase: "render", Panicked: true})

	if got := testutil.ToFloat64(m.evaluations.WithLabelValues("effect_run", "after-paint")); got != 2 {
		t.Errorf("expected 2 effect runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.panics.WithLabelValues("derived_compute")); got != 1 {
		t.Errorf("expected 1 panic, got %v", got)
	}
	if got := testutil.CollectAndCount(m.deps); got != 1 {
		t.Errorf("expected dependency histogram to be collected, got %d", got)
	}
}

func TestMetricsNamingOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(
		WithRegistry(reg),
		WithSubsystem("hooks"),
		WithConstLabels(prometheus.Labels{"host": "a"}),
		WithBuckets([]float64{0.001, 0.01}),
	)
	m.Observe(Event{Kind: KindEffectRun, Phase: "after-paint", Duration: time.Millisecond})

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
		if mf.GetName() != "reflex_hooks_evaluations_total" {
			continue
		}
		labels := mf.GetMetric()[0].GetLabel()
		found := false
		for _, l := range labels {
			if l.GetName() == "host" && l.GetValue() == "a" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected const label host=a, got %v", labels)
		}
	}
	for _, want := range []string{"reflex_hooks_evaluations_total", "reflex_hooks_evaluation_duration_seconds"} {
		if !names[want] {
			t.Errorf("expected metric %s, got %v", want, names)
		}
	}
}

func histogramSamples(t *testing.T, h prometheus.Histogram) (uint64, float64) {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum()
}

func TestMetricsDependencyHistogram(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.Observe(Event{Kind: KindEffectRun, Deps: 2})
	m.Observe(Event{Kind: KindDerivedCompute, Deps: 3})
	m.Observe(Event{Kind: KindCleanup, Deps: 9})
	m.Observe(Event{Kind: KindRender})

	count, sum := histogramSamples(t, m.deps)
	if count != 2 {
		t.Errorf("only tracked evaluations record deps, got %d samples", count)
	}
	if sum != 5 {
		t.Errorf("expected sum 5, got %v", sum)
	}
}

func TestTracerFilter(t *testing.T) {
	calls := 0
	obs := NewTracer(
		WithTracerProvider(noop.NewTracerProvider()),
		WithTracerName("test"),
		WithEventFilter(func(ev Event) bool {
			calls++
			return ev.Kind != KindRender
		}),
	)

	obs.Observe(Event{Kind: KindRender, Start: time.Now()})
	obs.Observe(Event{Kind: KindEffectRun, Start: time.Now(), Panicked: true})

	if calls != 2 {
		t.Errorf("expected filter consulted twice, got %d", calls)
	}
}
