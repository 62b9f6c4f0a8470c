package reactive

import (
	"runtime"
	"sync"
)

// recorders stores the recording session of each goroutine, keyed by
// goroutine ID. Goroutines with no recording session have no entry.
var recorders sync.Map // map[uint64]*Session

// getGoroutineID returns a unique identifier for the current goroutine.
// This uses the runtime stack to extract the goroutine ID.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> "
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// currentSession returns the session recording on the given goroutine, or nil.
func currentSession(gid uint64) *Session {
	if s, ok := recorders.Load(gid); ok {
		return s.(*Session)
	}
	return nil
}

// setCurrentSession makes s the recorder for the goroutine and returns the
// previous one. A nil s removes the entry so idle goroutines leave nothing behind.
func setCurrentSession(gid uint64, s *Session) *Session {
	old := currentSession(gid)
	if s == nil {
		recorders.Delete(gid)
	} else {
		recorders.Store(gid, s)
	}
	return old
}

// record adds a field read, observed at revision rev, to the calling
// goroutine's session, if any.
func record(o *Object, name string, rev uint64) {
	if s := currentSession(getGoroutineID()); s != nil {
		s.add(fieldRef{obj: o, name: name}, rev)
	}
}

// Untracked runs fn with no recording session, so reads inside fn do not
// become dependencies of the surrounding evaluation.
//
// Example:
//
//	Untracked(func() {
//	    log.Println("count is", state.Get("count"))
//	})
func Untracked(fn func()) {
	gid := getGoroutineID()
	old := setCurrentSession(gid, nil)
	defer setCurrentSession(gid, old)
	fn()
}
