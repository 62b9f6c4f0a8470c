// Package telemetry describes what the reactive core did and when.
//
// Every effect run, cleanup, derived-value computation, invalidation and
// component render is reported as an Event to an Observer. Observers are
// provided for structured logging (log/slog), Prometheus metrics and
// OpenTelemetry tracing; combine them with Multi.
package telemetry

import "time"

// Kind identifies what produced an Event.
type Kind uint8

const (
	KindEffectRun Kind = iota + 1
	KindCleanup
	KindDerivedCompute
	KindInvalidate
	KindRender
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindEffectRun:
		return "effect_run"
	case KindCleanup:
		return "cleanup"
	case KindDerivedCompute:
		return "derived_compute"
	case KindInvalidate:
		return "invalidate"
	case KindRender:
		return "render"
	default:
		return "unknown"
	}
}

// Event is a single observation.
type Event struct {
	Kind Kind

	// Component is the name of the owning component.
	Component string

	// Phase is the lifecycle phase of the evaluation slot ("before-paint",
	// "after-paint" or "render").
	Phase string

	// Generation counts evaluations of the slot, starting at 1.
	Generation uint64

	// Deps is the number of fields the evaluation read.
	Deps int

	Start    time.Time
	Duration time.Duration

	// Panicked is true when user code panicked during the evaluation.
	// The panic itself is not recovered.
	Panicked bool
}

// Observer receives events. Implementations must be safe for concurrent use.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// Nop returns an Observer that discards every event.
func Nop() Observer { return nopObserver{} }

type multiObserver []Observer

func (m multiObserver) Observe(ev Event) {
	for _, o := range m {
		o.Observe(ev)
	}
}

// Multi fans events out to every non-nil observer in order.
func Multi(observers ...Observer) Observer {
	list := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	switch len(list) {
	case 0:
		return Nop()
	case 1:
		return list[0]
	}
	return list
}
