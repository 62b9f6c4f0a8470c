// Package hooks runs effects and derived values against reactive state
// without dependency lists.
//
// Each evaluation records the fields it reads in a reactive.Session and
// subscribes to that session once it stops. When a recorded field changes
// the evaluation is redone from scratch with a fresh session, so the
// dependency set always matches what the latest run actually read.
//
// # Effects
//
// RunEffect and RunLayoutEffect run a procedure after or before the
// component paints, and again whenever a field it read changes:
//
//	hooks.RunEffect(h, func() hooks.Cleanup {
//	    fmt.Println("count is", reactive.Read[int](state, "count"))
//	    return func() { fmt.Println("cleanup") }
//	})
//
// The previous cleanup runs before every re-run and once on unmount.
//
// # Derived values
//
// UseDerived caches a computation for the render pass. A change to a
// field it read bumps a render counter; the value is recomputed on the
// re-render that follows:
//
//	total := hooks.UseDerived(h, func() int {
//	    return reactive.Read[int](state, "a") + reactive.Read[int](state, "b")
//	})
//
// Panics from procedures, cleanups and computations are never recovered.
package hooks
