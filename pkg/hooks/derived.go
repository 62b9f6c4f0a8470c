package hooks

import (
	"time"

	"github.com/vango-dev/reflex/pkg/host"
	"github.com/vango-dev/reflex/pkg/reactive"
	"github.com/vango-dev/reflex/pkg/telemetry"
)

// derivedSlot caches one derived value. All access happens during render
// or unmount, which the host serializes.
type derivedSlot[T any] struct {
	sub subscription

	// valid is false until the first successful compute and after a
	// compute panicked.
	valid    bool
	snapshot int
	session  *reactive.Session
	result   T

	generation uint64
}

// UseDerived returns the value of compute, caching it across renders.
//
// The cache holds until a field read by the latest computation changes.
// The change only bumps a render counter; compute runs again on the
// re-render that follows, so the returned value is always consistent with
// the render pass that reads it.
//
// Call UseDerived on every render. Panics from compute propagate and leave
// the cache invalid, so no stale value is ever returned.
func UseDerived[T any](h host.Host, compute func() T) T {
	snapshot, bump := h.UseCounter()

	var d *derivedSlot[T]
	if slot := h.UseHookSlot(); slot != nil {
		var ok bool
		if d, ok = slot.(*derivedSlot[T]); !ok {
			panic("reflex: hook slot type mismatch for UseDerived")
		}
	} else {
		d = &derivedSlot[T]{}
		h.SetHookSlot(d)
	}
	h.OnMount(host.AfterPaint, nil, d.teardown)

	if !d.valid || d.snapshot != snapshot {
		d.recompute(h, snapshot, compute, bump)
	}
	return d.result
}

func (d *derivedSlot[T]) recompute(h host.Host, snapshot int, compute func() T, bump func()) {
	d.valid = false
	d.generation++

	start := time.Now()
	deps := 0
	ok := false
	defer func() {
		h.Observer().Observe(telemetry.Event{
			Kind:       telemetry.KindDerivedCompute,
			Component:  h.Name(),
			Phase:      "render",
			Generation: d.generation,
			Deps:       deps,
			Start:      start,
			Duration:   time.Since(start),
			Panicked:   !ok,
		})
	}()

	var result T
	session := track(func() {
		result = compute()
	})
	deps = session.Deps()
	ok = true

	d.session = session
	d.result = result
	d.snapshot = snapshot
	d.valid = true

	// The notification's only job is to bump the counter.
	d.sub.replace(session.Subscribe(bump))
}

// teardown cancels the live subscription. It is idempotent.
func (d *derivedSlot[T]) teardown() {
	d.sub.cancel()
}
