package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every evaluation metric unless WithNamespace
// overrides it.
const DefaultNamespace = "reflex"

// depsBuckets bound how many fields one effect run or derived compute reads.
var depsBuckets = []float64{0, 1, 2, 4, 8, 16, 32, 64}

// MetricsConfig holds the settings NewMetrics applies to its collectors.
type MetricsConfig struct {
	// Namespace and Subsystem form the metric name prefix,
	// as in reflex_<subsystem>_evaluations_total.
	Namespace string
	Subsystem string

	// ConstLabels are attached to every evaluation series, for example
	// to tell several hosts apart in one process.
	ConstLabels prometheus.Labels

	// Buckets bound the evaluation duration histogram, in seconds.
	// Nil means prometheus.DefBuckets.
	Buckets []float64

	// Registry receives the collectors. Nil means prometheus.DefaultRegisterer.
	// Tests pass a fresh prometheus.NewRegistry().
	Registry prometheus.Registerer
}

// MetricsOption adjusts a MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithNamespace replaces DefaultNamespace in metric names.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem inserts a subsystem between namespace and metric name.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels attaches fixed labels to every evaluation series.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the evaluation duration buckets, in seconds.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry registers the collectors on registry instead of the default.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: DefaultNamespace,
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is an Observer that records events as Prometheus metrics.
//
// Metrics collected:
//   - reflex_evaluations_total: Counter of events by kind and phase
//   - reflex_evaluation_panics_total: Counter of panicked evaluations by kind
//   - reflex_evaluation_duration_seconds: Histogram of evaluation duration by kind
//   - reflex_evaluation_dependencies: Histogram of fields read per evaluation
type Metrics struct {
	evaluations *prometheus.CounterVec
	panics      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	deps        prometheus.Histogram
}

// NewMetrics registers the collectors and returns the observer.
// Registering twice on the same registry panics, as promauto does.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Buckets == nil {
		config.Buckets = prometheus.DefBuckets
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evaluations_total",
			Help:        "Total number of reactive evaluations",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "phase"}),

		panics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evaluation_panics_total",
			Help:        "Total number of evaluations where user code panicked",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evaluation_duration_seconds",
			Help:        "Evaluation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		deps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evaluation_dependencies",
			Help:        "Number of fields read per tracked evaluation",
			ConstLabels: config.ConstLabels,
			Buckets:     depsBuckets,
		}),
	}
}

// Observe implements Observer.
func (m *Metrics) Observe(ev Event) {
	kind := ev.Kind.String()
	m.evaluations.WithLabelValues(kind, ev.Phase).Inc()
	if ev.Panicked {
		m.panics.WithLabelValues(kind).Inc()
	}
	if ev.Duration > 0 {
		m.duration.WithLabelValues(kind).Observe(ev.Duration.Seconds())
	}
	switch ev.Kind {
	case KindEffectRun, KindDerivedCompute:
		m.deps.Observe(float64(ev.Deps))
	}
}
