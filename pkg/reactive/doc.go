// Package reactive provides observable state objects and the tracking
// sessions that record which of their fields a piece of code reads.
//
// # Objects
//
// An Object is a set of named fields. Reading a field while a Session is
// recording adds the field to the session's dependencies:
//
//	state := reactive.NewObject(map[string]any{"count": 0})
//	s := reactive.Begin()
//	n := reactive.Read[int](state, "count")
//	s.Stop()
//
// # Subscriptions
//
// A stopped session can be subscribed once. The callback runs at most once,
// the first time any recorded field changes:
//
//	cancel := s.Subscribe(func() { fmt.Println("count changed") })
//	state.Set("count", 1) // prints
//	cancel()              // no-op, the subscription already fired
//
// Writes are delivered synchronously in the writer's goroutine after all
// object locks have been released. There is no batching.
//
// # Goroutines
//
// The recording session is per goroutine, the same way the framework keeps
// its tracking context. Reads made from goroutines spawned by tracked code
// are not recorded.
package reactive
