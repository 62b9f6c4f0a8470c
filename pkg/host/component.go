package host

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/reflex/pkg/telemetry"
)

// RenderFunc produces a component's view.
type RenderFunc[V any] func(h Host) V

// Config configures a component.
type Config struct {
	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Observer receives render and evaluation events. If nil, events are discarded.
	Observer telemetry.Observer

	// Scheduler is called when the component becomes dirty.
	// If nil, the owner calls Flush explicitly.
	Scheduler Scheduler
}

type componentState uint8

const (
	stateIdle componentState = iota
	stateMounted
	stateUnmounted
)

// mountHook is one OnMount registration.
type mountHook struct {
	phase    Phase
	setup    func()
	teardown func()
	ran      bool
}

// counter backs UseCounter.
type counter struct {
	value atomic.Int64
}

// componentIDCounter is used to generate unique component IDs.
var componentIDCounter atomic.Uint64

// Component is a mounted render function with its hook state.
// Mount, Flush and Unmount are serialized. Render, setups, paint and
// teardowns run without the state lock held, so they may call View,
// Renders and Mounted.
type Component[V any] struct {
	id     uint64
	name   string
	render RenderFunc[V]

	logger    *slog.Logger
	observer  telemetry.Observer
	scheduler Scheduler
	onPaint   func(V)

	// lifecycle serializes Mount, Flush and Unmount.
	lifecycle sync.Mutex

	// mu guards state, view and renders.
	mu    sync.Mutex
	state componentState

	// dirty indicates the component needs re-rendering.
	dirty atomic.Bool

	// Hook slot storage for stable identity across renders.
	hookSlots   []any
	hookSlotIdx int
	rendering   bool

	// mounts holds every OnMount registration in order; pending holds the
	// ones whose setup has not run yet.
	mounts  []*mountHook
	pending []*mountHook

	view    V
	renders int
}

var _ Host = (*Component[int])(nil)
var _ Flusher = (*Component[int])(nil)

// New creates a component. cfg may be nil.
func New[V any](name string, render RenderFunc[V], cfg *Config) *Component[V] {
	c := &Component[V]{
		id:       componentIDCounter.Add(1),
		name:     name,
		render:   render,
		logger:   slog.Default(),
		observer: telemetry.Nop(),
	}
	if cfg != nil {
		if cfg.Logger != nil {
			c.logger = cfg.Logger
		}
		if cfg.Observer != nil {
			c.observer = cfg.Observer
		}
		c.scheduler = cfg.Scheduler
	}
	c.logger = c.logger.With("component", name, "component_id", c.id)
	return c
}

// OnPaint sets the function receiving each rendered view. Call before Mount.
func (c *Component[V]) OnPaint(fn func(V)) {
	c.onPaint = fn
}

// Mount renders the component, runs before-paint setups, paints, then runs
// after-paint setups. Mounting twice is a no-op.
//
// Panics from render or setups propagate. The component still counts as
// mounted, so Unmount tears down whatever setups already ran.
func (c *Component[V]) Mount() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return
	}
	c.state = stateMounted
	c.mu.Unlock()

	c.renderLocked()
	c.paintLocked()
	c.logger.Debug("component mounted")
}

// Flush re-renders and repaints the component if it is dirty and mounted.
// It reports whether a render happened.
func (c *Component[V]) Flush() bool {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if !c.Mounted() || !c.dirty.Load() {
		return false
	}
	c.renderLocked()
	c.paintLocked()
	return true
}

// Unmount runs the teardowns of every setup that ran: before-paint ones
// first, each group in reverse registration order. Unmount is idempotent.
func (c *Component[V]) Unmount() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.state != stateMounted {
		c.mu.Unlock()
		return
	}
	c.state = stateUnmounted
	c.mu.Unlock()

	mounts := c.mounts
	c.mounts = nil
	c.pending = nil
	c.hookSlots = nil

	for _, phase := range []Phase{BeforePaint, AfterPaint} {
		for i := len(mounts) - 1; i >= 0; i-- {
			m := mounts[i]
			if m.phase != phase || !m.ran {
				continue
			}
			m.ran = false
			if m.teardown != nil {
				m.teardown()
			}
		}
	}
	c.logger.Debug("component unmounted")
}

// View returns the last rendered view.
func (c *Component[V]) View() V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Renders returns how many renders completed.
func (c *Component[V]) Renders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renders
}

// Mounted reports whether the component is mounted.
func (c *Component[V]) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateMounted
}

// Dirty reports whether a re-render is pending.
func (c *Component[V]) Dirty() bool {
	return c.dirty.Load()
}

// ID returns the unique component identifier.
func (c *Component[V]) ID() uint64 {
	return c.id
}

// Name implements Host.
func (c *Component[V]) Name() string {
	return c.name
}

// Observer implements Host.
func (c *Component[V]) Observer() telemetry.Observer {
	return c.observer
}

// OnMount implements Host.
func (c *Component[V]) OnMount(phase Phase, setup func(), teardown func()) {
	if slot := c.UseHookSlot(); slot != nil {
		if _, ok := slot.(*mountHook); !ok {
			panic("reflex: hook slot type mismatch for OnMount")
		}
		return
	}
	m := &mountHook{phase: phase, setup: setup, teardown: teardown}
	c.SetHookSlot(m)
	c.mounts = append(c.mounts, m)
	c.pending = append(c.pending, m)
}

// UseCounter implements Host.
func (c *Component[V]) UseCounter() (int, func()) {
	var ctr *counter
	if slot := c.UseHookSlot(); slot != nil {
		var ok bool
		if ctr, ok = slot.(*counter); !ok {
			panic("reflex: hook slot type mismatch for UseCounter")
		}
	} else {
		ctr = &counter{}
		c.SetHookSlot(ctr)
	}
	return int(ctr.value.Load()), func() {
		ctr.value.Add(1)
		c.invalidate()
	}
}

// UseHookSlot implements Host.
func (c *Component[V]) UseHookSlot() any {
	if !c.rendering {
		panic(ErrNotRendering)
	}
	idx := c.hookSlotIdx
	c.hookSlotIdx++

	if idx < len(c.hookSlots) {
		return c.hookSlots[idx]
	}
	return nil
}

// SetHookSlot implements Host.
func (c *Component[V]) SetHookSlot(value any) {
	if !c.rendering {
		panic(ErrNotRendering)
	}
	c.hookSlots = append(c.hookSlots, value)
}

// invalidate marks the component dirty and hands it to the scheduler once
// per clean-to-dirty transition.
func (c *Component[V]) invalidate() {
	if !c.dirty.CompareAndSwap(false, true) {
		return
	}
	c.observer.Observe(telemetry.Event{
		Kind:      telemetry.KindInvalidate,
		Component: c.name,
		Phase:     "render",
		Start:     time.Now(),
	})
	if c.scheduler != nil {
		c.scheduler(c)
	}
}

// renderLocked runs the render function. The caller holds lifecycle.
func (c *Component[V]) renderLocked() {
	c.dirty.Store(false)
	c.hookSlotIdx = 0
	c.rendering = true

	start := time.Now()
	var generation uint64
	ok := false
	defer func() {
		c.rendering = false
		c.observer.Observe(telemetry.Event{
			Kind:       telemetry.KindRender,
			Component:  c.name,
			Phase:      "render",
			Generation: generation,
			Start:      start,
			Duration:   time.Since(start),
			Panicked:   !ok,
		})
	}()

	view := c.render(c)

	c.mu.Lock()
	c.view = view
	c.renders++
	generation = uint64(c.renders)
	c.mu.Unlock()
	ok = true
}

// paintLocked runs pending before-paint setups, paints, then runs pending
// after-paint setups. The caller holds lifecycle, which orders this read of
// view after the write in renderLocked.
func (c *Component[V]) paintLocked() {
	pending := c.pending
	c.pending = nil

	c.runSetups(pending, BeforePaint)
	if c.onPaint != nil {
		c.onPaint(c.view)
	}
	c.runSetups(pending, AfterPaint)
}

func (c *Component[V]) runSetups(pending []*mountHook, phase Phase) {
	for _, m := range pending {
		if m.phase != phase {
			continue
		}
		m.ran = true
		if m.setup != nil {
			m.setup()
		}
	}
}
