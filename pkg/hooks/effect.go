package hooks

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/reflex/pkg/host"
	"github.com/vango-dev/reflex/pkg/telemetry"
)

type slotState uint8

const (
	stateIdle slotState = iota
	stateTracking
	stateSubscribed
	stateTornDown
)

// effectSlot is the per-mount state of one effect.
//
// Runs are serialized per slot: a notification arriving while a run is in
// progress (on this goroutine or another) sets again, and the goroutine
// already running loops once more instead of nesting.
type effectSlot struct {
	component string
	phase     host.Phase
	observer  telemetry.Observer
	procedure func() Cleanup

	running atomic.Bool
	again   atomic.Bool

	// mu excludes a run from teardown.
	mu         sync.Mutex
	state      slotState
	sub        subscription
	cleanup    Cleanup
	generation uint64
}

// RunEffect runs procedure after the component paints, then again every
// time a field it read during its latest run changes. The cleanup returned
// by the latest run is called before the next run and on unmount.
//
// Call RunEffect on every render, like any hook. The procedure passed on
// the first render is the one that runs for the whole mount.
//
// The procedure may read the component (View, Renders, Mounted) but must not
// unmount it: unmount waits for the running procedure to finish.
func RunEffect(h host.Host, procedure func() Cleanup) {
	useEffect(h, host.AfterPaint, procedure)
}

// RunLayoutEffect is RunEffect with the first run before the component paints.
func RunLayoutEffect(h host.Host, procedure func() Cleanup) {
	useEffect(h, host.BeforePaint, procedure)
}

func useEffect(h host.Host, phase host.Phase, procedure func() Cleanup) {
	var e *effectSlot
	if slot := h.UseHookSlot(); slot != nil {
		var ok bool
		if e, ok = slot.(*effectSlot); !ok {
			panic("reflex: hook slot type mismatch for effect")
		}
	} else {
		e = &effectSlot{
			component: h.Name(),
			phase:     phase,
			observer:  h.Observer(),
			procedure: procedure,
		}
		h.SetHookSlot(e)
	}
	h.OnMount(phase, e.schedule, e.teardown)
}

// schedule runs the effect now, or makes the goroutine already running it
// go around once more.
func (e *effectSlot) schedule() {
	e.again.Store(true)
	for e.running.CompareAndSwap(false, true) {
		func() {
			defer e.running.Store(false)
			for e.again.Swap(false) {
				e.run()
			}
		}()
		if !e.again.Load() {
			return
		}
	}
}

// run is one cycle: cancel, clean up, track the procedure, subscribe.
func (e *effectSlot) run() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateTornDown {
		return
	}

	e.sub.cancel()
	e.runCleanup()

	e.state = stateTracking
	e.generation++

	start := time.Now()
	deps := 0
	ok := false
	defer func() {
		e.observer.Observe(telemetry.Event{
			Kind:       telemetry.KindEffectRun,
			Component:  e.component,
			Phase:      e.phase.String(),
			Generation: e.generation,
			Deps:       deps,
			Start:      start,
			Duration:   time.Since(start),
			Panicked:   !ok,
		})
	}()

	session := track(func() {
		e.cleanup = e.procedure()
	})
	deps = session.Deps()
	ok = true

	// A change that landed after a read fires from inside Subscribe;
	// schedule turns that into another iteration.
	e.state = stateSubscribed
	e.sub.replace(session.Subscribe(e.schedule))
}

// teardown cancels the subscription, then runs the live cleanup.
// It is idempotent.
func (e *effectSlot) teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateTornDown {
		return
	}
	e.state = stateTornDown
	e.sub.cancel()
	e.runCleanup()
}

func (e *effectSlot) runCleanup() {
	if e.cleanup == nil {
		return
	}
	cleanup := e.cleanup
	e.cleanup = nil

	start := time.Now()
	ok := false
	defer func() {
		e.observer.Observe(telemetry.Event{
			Kind:       telemetry.KindCleanup,
			Component:  e.component,
			Phase:      e.phase.String(),
			Generation: e.generation,
			Start:      start,
			Duration:   time.Since(start),
			Panicked:   !ok,
		})
	}()
	cleanup()
	ok = true
}
