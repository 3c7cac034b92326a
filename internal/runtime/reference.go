package runtime

import (
	"asteria/internal/memory"
	"asteria/internal/value"
)

// RefKind tags the five Reference variants of §3.3/§3.4.
type RefKind uint8

const (
	RefInvalid RefKind = iota
	RefVoid
	RefTemporary
	RefVariable
	RefPTC
)

func (k RefKind) String() string {
	switch k {
	case RefVoid:
		return "void"
	case RefTemporary:
		return "temporary"
	case RefVariable:
		return "variable"
	case RefPTC:
		return "ptc"
	default:
		return "invalid"
	}
}

// Reference is the addressing primitive of §3.3: a base (one of invalid,
// void, a temporary value, a heap Variable, or a pending tail call) plus
// zero or more Subscripts chained onto it. Every expression in the
// evaluator produces a Reference; statements and operators then
// dereference it in one of four modes (§3.4).
type Reference struct {
	kind     RefKind
	temp     value.Value
	variable *memory.Variable
	ptc      *PTCArguments
	subs     []value.Subscript
}

func InvalidRef() Reference { return Reference{kind: RefInvalid} }

func VoidRef() Reference { return Reference{kind: RefVoid} }

func TempRef(v value.Value) Reference { return Reference{kind: RefTemporary, temp: v} }

func VariableRef(v *memory.Variable) Reference { return Reference{kind: RefVariable, variable: v} }

func PTCRef(p *PTCArguments) Reference { return Reference{kind: RefPTC, ptc: p} }

func (r Reference) Kind() RefKind { return r.kind }

func (r Reference) IsPTC() bool { return r.kind == RefPTC }

func (r Reference) PTCArgs() *PTCArguments { return r.ptc }

// Variable exposes the underlying heap cell for a bare (no subscript)
// variable Reference, used by assignment statements that need to check
// immutability before the Mutable dereference call, and by declaration
// statements binding a name.
func (r Reference) Variable() *memory.Variable { return r.variable }

// WithSubscript returns a new Reference with s appended to the chain
// (the result of evaluating `a[i]` or `a.k` against an existing
// Reference `a`).
func (r Reference) WithSubscript(s value.Subscript) Reference {
	subs := make([]value.Subscript, len(r.subs)+1)
	copy(subs, r.subs)
	subs[len(subs)-1] = s
	r.subs = subs
	return r
}

// baseSlot resolves the Reference's base (pre-subscript) storage into a
// Slot. RefInvalid, RefVoid and RefPTC never have a base value and raise
// the exact messages of §3.4.
func (r Reference) baseSlot() (value.Slot, *RuntimeError) {
	switch r.kind {
	case RefTemporary:
		v := r.temp
		return value.NewSlot(func() value.Value { return v }, nil), nil
	case RefVariable:
		vr := r.variable
		return value.NewSlot(
			func() value.Value { return vr.Get() },
			func(v value.Value) {
				if vr.Initialized() {
					vr.Assign(v)
				} else {
					vr.Initialize(v)
				}
			},
		), nil
	case RefVoid:
		return value.Slot{}, Format("attempt to use the result of a discarded expression")
	case RefPTC:
		return value.Slot{}, Format("pending tail call was not resolved before use")
	default:
		return value.Slot{}, Format("attempt to use an invalid reference")
	}
}

// resolveChain walks every subscript with ReadOptional, short-circuiting
// to (Null, true) on the first miss — this is the readonly path used by
// ReadOnly and Copy, which never materialize missing elements.
func (r Reference) resolveChainReadOnly() (value.Value, *RuntimeError) {
	slot, err := r.baseSlot()
	if err != nil {
		return value.Null, err
	}
	cur := slot.Get()
	for _, s := range r.subs {
		v, ok := s.ReadOptional(cur)
		if !ok {
			return value.Null, nil
		}
		cur = v
	}
	return cur, nil
}

// resolveChainMutable walks every subscript with Open, materializing
// missing elements as it goes, and returns the final writable Slot.
func (r Reference) resolveChainMutable() (value.Slot, *RuntimeError) {
	slot, err := r.baseSlot()
	if err != nil {
		return value.Slot{}, err
	}
	if !slot.Assignable() {
		return value.Slot{}, Format("attempt to modify a temporary value")
	}
	for _, s := range r.subs {
		next, oerr := s.Open(slot)
		if oerr != nil {
			return value.Slot{}, Format("%s", oerr.Error())
		}
		slot = next
	}
	return slot, nil
}

func (r Reference) requireInitializedVariable() *RuntimeError {
	if r.kind != RefVariable {
		return nil
	}
	if !r.variable.Initialized() {
		return Format("attempt to use a variable that has not been initialized")
	}
	return nil
}

// ReadOnly implements dereference-to-readonly (§3.4): missing subscripts
// collapse to null rather than raising, but an invalid/void/ptc base, or
// an uninitialized variable, still raises.
func (r Reference) ReadOnly() (value.Value, *RuntimeError) {
	if err := r.requireInitializedVariable(); err != nil {
		return value.Null, err
	}
	return r.resolveChainReadOnly()
}

// Copy implements dereference-to-copy: identical to ReadOnly except that
// the caller receives an independent value — since Value copies are
// already logical (copy-on-write) copies, this is ReadOnly plus one
// retain-on-read for container kinds so the source and the copy are
// never observed to alias after either is later mutated.
func (r Reference) Copy() (value.Value, *RuntimeError) {
	v, err := r.ReadOnly()
	if err != nil {
		return value.Null, err
	}
	return copyOnRead(v), nil
}

func copyOnRead(v value.Value) value.Value {
	switch v.Kind() {
	case value.Array:
		ad := v.AsArray()
		ad.Retain()
		return v
	case value.Object:
		od := v.AsObject()
		od.Retain()
		return v
	default:
		return v
	}
}

// Mutable implements dereference-to-mutable: the base must be a
// Variable, already initialized, and not immutable (§3.4's const check —
// applied once here rather than per-subscript, since constness is a
// property of the declaration, not of any one element inside it).
func (r Reference) Mutable() (value.Slot, *RuntimeError) {
	if r.kind != RefVariable {
		return value.Slot{}, Format("attempt to modify a non-variable reference")
	}
	if !r.variable.Initialized() {
		return value.Slot{}, Format("attempt to use a variable that has not been initialized")
	}
	if r.variable.Immutable() && len(r.subs) == 0 {
		return value.Slot{}, Format("attempt to modify a constant variable")
	}
	return r.resolveChainMutable()
}

// Unset implements dereference-to-unset: `unset a.b[i]` removes and
// returns the targeted element. Unsetting a bare variable (no subscript)
// reserves (re-arms) the variable instead of removing it.
func (r Reference) Unset() (value.Value, *RuntimeError) {
	if r.kind != RefVariable {
		return value.Null, Format("attempt to unset a non-variable reference")
	}
	if r.variable.Immutable() {
		return value.Null, Format("attempt to unset through a constant variable")
	}
	if len(r.subs) == 0 {
		old := value.Null
		if r.variable.Initialized() {
			old, _ = r.ReadOnly()
		}
		r.variable.Initialize(value.Null)
		return old, nil
	}
	slot, err := r.baseSlot()
	if err != nil {
		return value.Null, err
	}
	for i := 0; i < len(r.subs)-1; i++ {
		next, oerr := r.subs[i].Open(slot)
		if oerr != nil {
			return value.Null, Format("%s", oerr.Error())
		}
		slot = next
	}
	v, uerr := r.subs[len(r.subs)-1].Unset(slot)
	if uerr != nil {
		return value.Null, Format("%s", uerr.Error())
	}
	return v, nil
}
