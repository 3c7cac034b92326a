package value

// Slot is a mutable view onto a single Value cell — a Variable's own
// storage, or (after threading through zero or more Subscripts) an array
// element or object entry nested inside it. Get/Set let Subscript.Open
// implement "clone-if-shared, then mutate" (§4.2) without the value
// package needing to know anything about where the outermost Value lives
// (a heap Variable, in practice).
type Slot struct {
	get func() Value
	set func(Value) // nil for a read-only (non-assignable) slot
}

func NewSlot(get func() Value, set func(Value)) Slot {
	return Slot{get: get, set: set}
}

func (s Slot) Get() Value { return s.get() }

func (s Slot) Assignable() bool { return s.set != nil }

func (s Slot) Set(v Value) { s.set(v) }
