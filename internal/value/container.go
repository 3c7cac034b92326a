package value

import (
	"sync/atomic"
)

// StringData is an immutable, prehashable UTF-8 byte sequence. Strings
// never need copy-on-write (nothing can mutate them in place), so no
// refcount is required beyond the Go pointer itself.
type StringData struct {
	bytes  []byte
	hash   uint64
	hashed bool
}

func NewStringData(s string) *StringData {
	return &StringData{bytes: []byte(s)}
}

func (s *StringData) String() string { return string(s.bytes) }

func (s *StringData) Len() int { return len(s.bytes) }

func (s *StringData) Bytes() []byte { return s.bytes }

// Hash computes (and caches) the FNV-1a hash of the string. Object keys
// embed this so dictionary lookups never recompute it (§9 design notes:
// "hash map with prehashed keys").
func (s *StringData) Hash() uint64 {
	if s.hashed {
		return s.hash
	}
	var h uint64 = 14695981039346656037
	for _, b := range s.bytes {
		h ^= uint64(b)
		h *= 1099511628211
	}
	s.hash = h
	s.hashed = true
	return h
}

// shared is embedded by every copy-on-write container kind (array,
// object). refs counts logical owners: every Variable or Reference that
// captured this container by value increments it; a mutating operation
// clones the payload first whenever refs > 1, then proceeds on the
// private copy (clone-if-shared, §3.1 and §9 "ref-count sharing with
// COW").
type shared struct {
	refs int32
}

func (s *shared) Retain() { atomic.AddInt32(&s.refs, 1) }

func (s *shared) Release() { atomic.AddInt32(&s.refs, -1) }

func (s *shared) IsShared() bool { return atomic.LoadInt32(&s.refs) > 1 }

// ArrayData is the payload of an `array` Value: an ordered, growable
// sequence of Values.
type ArrayData struct {
	shared
	Elements []Value
}

func NewArrayData(elems []Value) *ArrayData {
	return &ArrayData{Elements: elems}
}

func (a *ArrayData) Clone() *ArrayData {
	cp := make([]Value, len(a.Elements))
	copy(cp, a.Elements)
	return NewArrayData(cp)
}

// MakeUnique returns an ArrayData safe to mutate in place: itself if it
// has at most one owner, or a fresh clone (with its own refs reset to 1)
// otherwise. The caller is responsible for re-homing the Value it derived
// `a` from onto the returned pointer.
func (a *ArrayData) MakeUnique() *ArrayData {
	if !a.IsShared() {
		return a
	}
	a.Release()
	clone := a.Clone()
	clone.Retain()
	return clone
}

// ObjectData is the payload of an `object` Value: an insertion-ordered
// mapping from prehashed string key to Value.
type ObjectData struct {
	shared
	keys   []string
	hashes []uint64
	vals   map[string]Value
}

func NewObjectData() *ObjectData {
	return &ObjectData{vals: make(map[string]Value)}
}

func (o *ObjectData) Len() int { return len(o.keys) }

func (o *ObjectData) Keys() []string { return o.keys }

func (o *ObjectData) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Set inserts or overwrites a key, preserving first-insertion order.
func (o *ObjectData) Set(key string, v Value) {
	if _, exists := o.vals[key]; !exists {
		o.keys = append(o.keys, key)
		o.hashes = append(o.hashes, NewStringData(key).Hash())
	}
	o.vals[key] = v
}

// Unset removes a key, returning its prior value (or Null, false).
func (o *ObjectData) Unset(key string) (Value, bool) {
	v, ok := o.vals[key]
	if !ok {
		return Null, false
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			o.hashes = append(o.hashes[:i], o.hashes[i+1:]...)
			break
		}
	}
	return v, true
}

func (o *ObjectData) Clone() *ObjectData {
	clone := NewObjectData()
	clone.keys = append([]string(nil), o.keys...)
	clone.hashes = append([]uint64(nil), o.hashes...)
	for k, v := range o.vals {
		clone.vals[k] = v
	}
	return clone
}

func (o *ObjectData) MakeUnique() *ObjectData {
	if !o.IsShared() {
		return o
	}
	o.Release()
	clone := o.Clone()
	clone.Retain()
	return clone
}

// OpaqueHandle is a script-visible handle to a host-defined object (§9
// "Opaque"). CloneOpt lets the host object decline cloning (it returns
// false, forcing in-place mutation to be observed by all aliases) or
// provide a shallow copy (it returns a new handle and true).
type OpaqueHandle struct {
	shared
	Description string
	Native      OpaqueObject
}

// OpaqueObject is implemented by host types exposed to scripts as an
// `opaque` Value. Tracer, when non-nil, is invoked by the GC (§4.6) to
// report Variables transitively reachable from this object.
type OpaqueObject interface {
	TypeName() string
	CloneOpt() (OpaqueObject, bool)
}

func NewOpaqueHandle(desc string, obj OpaqueObject) *OpaqueHandle {
	return &OpaqueHandle{Description: desc, Native: obj}
}

// FunctionData is the payload of a `function` Value: either a native
// function (a bare function pointer plus description, per §3.1) or a
// polymorphic Callable behind a shared handle (a script closure or an
// adapter produced by the Binding Generator).
type FunctionData struct {
	shared
	Description string
	Callable    Callable
}

// Callable is implemented by every script-visible function: native
// closures produced by the Binding Generator, script closures
// (*runtime.InstantiatedFunction via an adapter), and the variadic
// arguer bound to `__varg`.
type Callable interface {
	Describe() string
}

func NewFunctionData(desc string, c Callable) *FunctionData {
	return &FunctionData{Description: desc, Callable: c}
}
