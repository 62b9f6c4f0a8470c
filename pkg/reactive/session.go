package reactive

import (
	"sync"
	"sync/atomic"
)

// fieldRef identifies one field of one object.
type fieldRef struct {
	obj  *Object
	name string
}

// Session records the fields read while it is active.
//
// A session is created by Begin right before user code runs and stopped
// right after. Once stopped it only serves as the handle for one
// subscription; the next evaluation begins a new session.
type Session struct {
	id  uint64
	gid uint64

	mu     sync.Mutex
	active bool
	deps   []fieldRef
	seen   map[fieldRef]struct{}

	// revs[i] is the revision of deps[i] at its first read.
	revs []uint64

	// prev is the session that was recording before this one began.
	prev *Session

	version atomic.Uint64
}

// Begin starts a session and makes it the recorder for the calling
// goroutine. A session that is already recording on this goroutine is
// suspended until the new one stops.
func Begin() *Session {
	gid := getGoroutineID()
	s := &Session{
		id:     nextID(),
		gid:    gid,
		active: true,
		seen:   make(map[fieldRef]struct{}),
	}
	s.prev = setCurrentSession(gid, s)
	return s
}

// Stop ends recording and restores the previous recorder. Stop is idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.seen = nil
	s.mu.Unlock()

	if currentSession(s.gid) == s {
		prev := s.prev
		for prev != nil && !prev.Active() {
			prev = prev.prev
		}
		setCurrentSession(s.gid, prev)
	}
	s.prev = nil
}

// ID returns the unique identifier for this session.
func (s *Session) ID() uint64 {
	return s.id
}

// Active reports whether the session is still recording.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Deps returns the number of distinct fields recorded.
func (s *Session) Deps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deps)
}

// Version increases every time a subscription on this session fires.
// It is an opaque trigger value.
func (s *Session) Version() uint64 {
	return s.version.Load()
}

func (s *Session) add(ref fieldRef, rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	if _, ok := s.seen[ref]; ok {
		return
	}
	s.seen[ref] = struct{}{}
	s.deps = append(s.deps, ref)
	s.revs = append(s.revs, rev)
}

// Subscribe registers onChange to run once, the first time any recorded
// field changes after it was read. A change that landed after the read,
// including one made by the evaluation itself or one made between Stop and
// Subscribe, fires the callback immediately, from within Subscribe.
//
// The returned function cancels the subscription. It is idempotent, and
// once it returns onChange can no longer run. Subscribing again requires a
// new session.
//
// Subscribe panics with ErrSessionActive if the session is still recording.
func (s *Session) Subscribe(onChange func()) (unsubscribe func()) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		panic(ErrSessionActive)
	}
	deps := s.deps
	revs := s.revs
	s.mu.Unlock()

	sub := &subscription{
		id:       nextID(),
		session:  s,
		onChange: onChange,
		refs:     deps,
	}

	stale := false
	for i, ref := range deps {
		if ref.obj.watch(ref.name, sub) != revs[i] {
			stale = true
		}
	}
	if stale {
		sub.fire()
	}
	return sub.cancel
}

const (
	subLive int32 = iota
	subFired
	subCancelled
)

// subscription is a one-shot registration on a stopped session.
type subscription struct {
	id       uint64
	session  *Session
	onChange func()
	refs     []fieldRef
	state    atomic.Int32
}

// fire runs the callback unless the subscription already fired or was cancelled.
func (sub *subscription) fire() {
	if !sub.state.CompareAndSwap(subLive, subFired) {
		return
	}
	sub.detach()
	sub.session.version.Add(1)
	sub.onChange()
}

func (sub *subscription) cancel() {
	if sub.state.CompareAndSwap(subLive, subCancelled) {
		sub.detach()
	}
}

func (sub *subscription) detach() {
	for _, ref := range sub.refs {
		ref.obj.unwatch(ref.name, sub)
	}
}
