package host

import "github.com/vango-dev/reflex/pkg/telemetry"

// Phase is the point in the mount sequence at which a setup runs.
type Phase uint8

const (
	// BeforePaint setups run after render and before the view is painted.
	BeforePaint Phase = iota + 1

	// AfterPaint setups run after the view is painted.
	AfterPaint
)

// String returns the phase name used in logs and metrics.
func (p Phase) String() string {
	switch p {
	case BeforePaint:
		return "before-paint"
	case AfterPaint:
		return "after-paint"
	default:
		return "unknown"
	}
}

// Host is what render code sees of its component.
// Every method must be called during render, in the same order on every render.
type Host interface {
	// OnMount registers setup to run once per mount in the given phase and
	// teardown to run once on unmount. Later renders reaching the same
	// position do not re-register. Either function may be nil.
	OnMount(phase Phase, setup func(), teardown func())

	// UseCounter returns the counter value for this render and a function
	// that increments it and schedules a re-render.
	UseCounter() (int, func())

	// UseHookSlot returns the value stored at the current position, or nil
	// on the first render. The caller stores a value with SetHookSlot.
	UseHookSlot() any

	// SetHookSlot stores a value at the position returned nil by UseHookSlot.
	SetHookSlot(value any)

	// Name returns the component name.
	Name() string

	// Observer returns the component's telemetry observer. Never nil.
	Observer() telemetry.Observer
}

// Flusher re-renders a dirty component.
type Flusher interface {
	Flush() bool
}

// Scheduler is called when a component goes from clean to dirty.
// It must not flush synchronously; hand the flush to a Loop instead.
type Scheduler func(f Flusher)
