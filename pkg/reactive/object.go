package reactive

import (
	"reflect"
	"sort"
	"sync"
)

// Reader is the read side shared by Object and View.
type Reader interface {
	Get(name string) any
	Has(name string) bool
	Peek(name string) any
	Keys() []string
}

// field is one named slot of an Object. A field entry may exist without a
// value when a session read it before it was ever set.
type field struct {
	value   any
	present bool

	// rev increases on every change. Sessions keep the rev seen at each
	// read and compare it at Subscribe to catch changes made since.
	rev uint64

	// watchers are the live subscriptions depending on this field.
	watchers []*subscription
}

// Object is a reactive state object holding named fields.
// All methods are safe for concurrent use.
type Object struct {
	id uint64

	mu     sync.RWMutex
	fields map[string]*field
}

var _ Reader = (*Object)(nil)

// NewObject creates an object with the given initial fields.
// The map is copied.
func NewObject(initial map[string]any) *Object {
	o := &Object{
		id:     nextID(),
		fields: make(map[string]*field, len(initial)),
	}
	for k, v := range initial {
		o.fields[k] = &field{value: v, present: true}
	}
	return o
}

// ID returns the unique identifier for this object.
func (o *Object) ID() uint64 {
	return o.id
}

// Get returns the field value and records the read against the current
// session. Missing fields read as nil and are still recorded, so setting
// them later notifies the reader.
func (o *Object) Get(name string) any {
	o.mu.RLock()
	var value any
	var rev uint64
	if f := o.fields[name]; f != nil {
		value = f.value
		rev = f.rev
	}
	o.mu.RUnlock()

	// The revision is read with the value, so a change that lands after
	// this point is seen as stale by Subscribe.
	record(o, name, rev)
	return value
}

// Has reports whether the field is set. The check is recorded like a read.
func (o *Object) Has(name string) bool {
	o.mu.RLock()
	var ok bool
	var rev uint64
	if f := o.fields[name]; f != nil {
		ok = f.present
		rev = f.rev
	}
	o.mu.RUnlock()

	record(o, name, rev)
	return ok
}

// Peek returns the field value without recording the read.
func (o *Object) Peek(name string) any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if f := o.fields[name]; f != nil {
		return f.value
	}
	return nil
}

// Keys returns the names of the fields that are set, sorted. Not recorded.
func (o *Object) Keys() []string {
	o.mu.RLock()
	keys := make([]string, 0, len(o.fields))
	for k, f := range o.fields {
		if f.present {
			keys = append(keys, k)
		}
	}
	o.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Set stores value and notifies subscriptions watching the field if the
// value changed.
func (o *Object) Set(name string, value any) {
	o.mu.Lock()
	f := o.fieldLocked(name)
	if f.present && valuesEqual(f.value, value) {
		o.mu.Unlock()
		return
	}
	f.value = value
	f.present = true
	subs := o.changedLocked(f)
	o.mu.Unlock()

	notify(subs)
}

// Update atomically reads and replaces the field value.
// fn runs under the object lock and must not touch the object.
func (o *Object) Update(name string, fn func(any) any) {
	o.mu.Lock()
	f := o.fieldLocked(name)
	value := fn(f.value)
	if f.present && valuesEqual(f.value, value) {
		o.mu.Unlock()
		return
	}
	f.value = value
	f.present = true
	subs := o.changedLocked(f)
	o.mu.Unlock()

	notify(subs)
}

// Delete removes the field. Readers of the field are notified.
func (o *Object) Delete(name string) {
	o.mu.Lock()
	f := o.fields[name]
	if f == nil || !f.present {
		o.mu.Unlock()
		return
	}
	f.value = nil
	f.present = false
	subs := o.changedLocked(f)
	o.mu.Unlock()

	notify(subs)
}

// ReadOnly returns a read-only view of the object.
func (o *Object) ReadOnly() View {
	return View{o: o}
}

func (o *Object) fieldLocked(name string) *field {
	f := o.fields[name]
	if f == nil {
		f = &field{}
		o.fields[name] = f
	}
	return f
}

// changedLocked bumps the revision and returns a copy of the watchers,
// ordered by subscription age.
func (o *Object) changedLocked(f *field) []*subscription {
	f.rev++
	if len(f.watchers) == 0 {
		return nil
	}
	subs := make([]*subscription, len(f.watchers))
	copy(subs, f.watchers)
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	return subs
}

// watch registers sub for changes to the field and returns the revision
// observed at registration time.
func (o *Object) watch(name string, sub *subscription) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	f := o.fieldLocked(name)
	f.watchers = append(f.watchers, sub)
	return f.rev
}

// unwatch removes sub from the field's watchers.
func (o *Object) unwatch(name string, sub *subscription) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f := o.fields[name]
	if f == nil {
		return
	}
	for i, existing := range f.watchers {
		if existing == sub {
			// Order doesn't matter; notification sorts by ID.
			last := len(f.watchers) - 1
			f.watchers[i] = f.watchers[last]
			f.watchers[last] = nil
			f.watchers = f.watchers[:last]
			return
		}
	}
}

// watcherCount returns the number of live subscriptions on the field.
func (o *Object) watcherCount(name string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if f := o.fields[name]; f != nil {
		return len(f.watchers)
	}
	return 0
}

func notify(subs []*subscription) {
	for _, sub := range subs {
		sub.fire()
	}
}

// valuesEqual reports whether a field write is a no-op.
func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Read returns the field as T, recording the read. Missing fields and
// fields of another type yield the zero value.
func Read[T any](r Reader, name string) T {
	v, _ := r.Get(name).(T)
	return v
}

// PeekAs is Read without recording.
func PeekAs[T any](r Reader, name string) T {
	v, _ := r.Peek(name).(T)
	return v
}
