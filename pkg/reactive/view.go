package reactive

// View is a read-only view of an Object. Reads through a view are recorded
// exactly like reads on the object itself; a view has no mutators.
type View struct {
	o *Object
}

var _ Reader = View{}

// Get returns the field value, recording the read.
func (v View) Get(name string) any { return v.o.Get(name) }

// Has reports whether the field is set, recording the read.
func (v View) Has(name string) bool { return v.o.Has(name) }

// Peek returns the field value without recording the read.
func (v View) Peek(name string) any { return v.o.Peek(name) }

// Keys returns the sorted names of the fields that are set.
func (v View) Keys() []string { return v.o.Keys() }
