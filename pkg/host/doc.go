// Package host is a small component runtime that owns mounting, rendering,
// painting and unmounting.
//
// Components are render functions over a Host. The Host gives render code
// three capabilities:
//
//   - OnMount registers a setup/teardown pair that runs once per mount,
//     either before or after the component paints.
//   - UseCounter returns a render-state integer and a bump function that
//     marks the component dirty.
//   - UseHookSlot/SetHookSlot provide per-position storage that survives
//     re-renders.
//
// A Loop serializes everything on one goroutine: state mutations, flushes
// triggered by bumps, and mount/unmount calls. The Loop is also the error
// boundary; Component itself never recovers panics.
//
// Example:
//
//	loop := host.NewLoop(host.DefaultLoopConfig())
//	c := host.New("counter", func(h host.Host) string {
//	    return fmt.Sprint(hooks.UseDerived(h, func() int { return reactive.Read[int](state, "count") }))
//	}, &host.Config{Scheduler: loop.Scheduler()})
//	loop.Dispatch(c.Mount)
//	go loop.Run(ctx)
package host
