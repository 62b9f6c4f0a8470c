package hooks

import "github.com/vango-dev/reflex/pkg/reactive"

// Cleanup is a function returned by an effect procedure. It is called
// before the effect re-runs and when the effect is torn down.
type Cleanup func()

// subscription holds the live unsubscribe function of one evaluation slot.
// At most one is live at a time.
type subscription struct {
	unsub func()
}

// replace cancels the current subscription and keeps unsub in its place.
func (s *subscription) replace(unsub func()) {
	s.cancel()
	s.unsub = unsub
}

// cancel is idempotent.
func (s *subscription) cancel() {
	if s.unsub == nil {
		return
	}
	unsub := s.unsub
	s.unsub = nil
	unsub()
}

// track runs fn inside a new session. The session is stopped even if fn
// panics, so the goroutine's recorder is restored; the panic is not recovered.
func track(fn func()) *reactive.Session {
	s := reactive.Begin()
	defer s.Stop()
	fn()
	return s
}
