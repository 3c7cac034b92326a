package value

import (
	"fmt"
	"math/rand"
)

// SubKind tags the five Subscript variants of §3.2: array index, object
// key, head/tail sentinels, and the random-pick subscript.
type SubKind int

const (
	SubIndex SubKind = iota
	SubKey
	SubHead
	SubTail
	SubRandom
)

// Subscript is one step of a Reference's path (§3.2). It defines four
// partial operations on a parent Value: ReadOptional, Open (materializing
// on write), and Unset; "write-optional" is Open followed by Set and is
// not a separate method.
type Subscript struct {
	Kind  SubKind
	Index int64
	Key   string
	Seed  uint32
}

func IndexSubscript(i int64) Subscript { return Subscript{Kind: SubIndex, Index: i} }
func KeySubscript(k string) Subscript  { return Subscript{Kind: SubKey, Key: k} }
func HeadSubscript() Subscript         { return Subscript{Kind: SubHead} }
func TailSubscript() Subscript         { return Subscript{Kind: SubTail} }
func RandomSubscript(seed uint32) Subscript {
	return Subscript{Kind: SubRandom, Seed: seed}
}

// resolveIndex applies the "negative counts from end, wrap once then
// saturate to not-present" rule of §3.2/§4.2.
func resolveIndex(i int64, length int) (int, bool) {
	if i < 0 {
		i += int64(length)
	}
	if i < 0 || i >= int64(length) {
		return 0, false
	}
	return int(i), true
}

// ReadOptional implements the readonly dereference step: a miss returns
// (Null, false) rather than raising, so an enclosing `x.y[i].z` chain can
// short-circuit to the static null singleton (spec.md §8 invariant 5).
func (s Subscript) ReadOptional(parent Value) (Value, bool) {
	switch s.Kind {
	case SubIndex:
		if parent.Kind() != Array {
			return Null, false
		}
		elems := parent.AsArray().Elements
		idx, ok := resolveIndex(s.Index, len(elems))
		if !ok {
			return Null, false
		}
		return elems[idx], true

	case SubKey:
		if parent.Kind() != Object {
			return Null, false
		}
		return parent.AsObject().Get(s.Key)

	case SubHead:
		if parent.Kind() != Array {
			return Null, false
		}
		elems := parent.AsArray().Elements
		if len(elems) == 0 {
			return Null, false
		}
		return elems[0], true

	case SubTail:
		if parent.Kind() != Array {
			return Null, false
		}
		elems := parent.AsArray().Elements
		if len(elems) == 0 {
			return Null, false
		}
		return elems[len(elems)-1], true

	case SubRandom:
		if parent.Kind() != Array {
			return Null, false
		}
		elems := parent.AsArray().Elements
		if len(elems) == 0 {
			return Null, false
		}
		r := rand.New(rand.NewSource(int64(s.Seed)))
		return elems[r.Intn(len(elems))], true
	}
	return Null, false
}

// Open always returns a writable slot, auto-vivifying the parent as an
// empty array/object if it was null, and extending arrays as needed
// (§4.2). It is the only Subscript operation that may mutate the parent
// container's shape.
func (s Subscript) Open(parent Slot) (Slot, error) {
	switch s.Kind {
	case SubIndex:
		return openIndex(parent, s.Index)
	case SubKey:
		return openKey(parent, s.Key)
	case SubHead:
		return openEdge(parent, true)
	case SubTail:
		return openEdge(parent, false)
	case SubRandom:
		// "on open, behaves like array-tail" (§4.2).
		return openEdge(parent, false)
	}
	return Slot{}, fmt.Errorf("invalid subscript")
}

func ensureArray(parent Slot) (*ArrayData, error) {
	pv := parent.Get()
	if pv.IsNull() {
		pv = NewArray(NewArrayData(nil))
		parent.Set(pv)
	}
	if pv.Kind() != Array {
		return nil, fmt.Errorf("subscript not valid for %s", pv.TypeName())
	}
	ad := pv.AsArray().MakeUnique()
	if ad != pv.AsArray() {
		parent.Set(NewArray(ad))
	}
	return ad, nil
}

func openIndex(parent Slot, i int64) (Slot, error) {
	ad, err := ensureArray(parent)
	if err != nil {
		return Slot{}, err
	}
	idx := i
	if idx < 0 {
		idx += int64(len(ad.Elements))
		if idx < 0 {
			return Slot{}, fmt.Errorf("negative array index out of range")
		}
	}
	for int64(len(ad.Elements)) <= idx {
		ad.Elements = append(ad.Elements, Null)
	}
	i2 := int(idx)
	return NewSlot(
		func() Value { return ad.Elements[i2] },
		func(v Value) { ad.Elements[i2] = v },
	), nil
}

func openEdge(parent Slot, head bool) (Slot, error) {
	ad, err := ensureArray(parent)
	if err != nil {
		return Slot{}, err
	}
	if head {
		ad.Elements = append([]Value{Null}, ad.Elements...)
		return NewSlot(
			func() Value { return ad.Elements[0] },
			func(v Value) { ad.Elements[0] = v },
		), nil
	}
	ad.Elements = append(ad.Elements, Null)
	last := len(ad.Elements) - 1
	return NewSlot(
		func() Value { return ad.Elements[last] },
		func(v Value) { ad.Elements[last] = v },
	), nil
}

func openKey(parent Slot, key string) (Slot, error) {
	pv := parent.Get()
	if pv.IsNull() {
		pv = NewObject(NewObjectData())
		parent.Set(pv)
	}
	if pv.Kind() != Object {
		return Slot{}, fmt.Errorf("subscript `.%s` not valid for %s", key, pv.TypeName())
	}
	od := pv.AsObject().MakeUnique()
	if od != pv.AsObject() {
		parent.Set(NewObject(od))
	}
	if _, ok := od.Get(key); !ok {
		od.Set(key, Null)
	}
	return NewSlot(
		func() Value { v, _ := od.Get(key); return v },
		func(v Value) { od.Set(key, v) },
	), nil
}

// Unset removes and returns the subelement identified by this subscript.
// Zero subscripts applied to a Reference is an error at the Reference
// layer (§3.4); Unset itself always acts on an already-resolved parent.
func (s Subscript) Unset(parent Slot) (Value, error) {
	switch s.Kind {
	case SubIndex:
		pv := parent.Get()
		if pv.Kind() != Array {
			return Null, fmt.Errorf("subscript not valid for %s", pv.TypeName())
		}
		ad := pv.AsArray().MakeUnique()
		if ad != pv.AsArray() {
			parent.Set(NewArray(ad))
		}
		idx, ok := resolveIndex(s.Index, len(ad.Elements))
		if !ok {
			return Null, nil
		}
		removed := ad.Elements[idx]
		ad.Elements = append(ad.Elements[:idx], ad.Elements[idx+1:]...)
		return removed, nil

	case SubKey:
		pv := parent.Get()
		if pv.Kind() != Object {
			return Null, fmt.Errorf("subscript `.%s` not valid for %s", s.Key, pv.TypeName())
		}
		od := pv.AsObject().MakeUnique()
		if od != pv.AsObject() {
			parent.Set(NewObject(od))
		}
		v, _ := od.Unset(s.Key)
		return v, nil

	case SubHead, SubTail, SubRandom:
		pv := parent.Get()
		if pv.Kind() != Array {
			return Null, fmt.Errorf("subscript not valid for %s", pv.TypeName())
		}
		ad := pv.AsArray().MakeUnique()
		if ad != pv.AsArray() {
			parent.Set(NewArray(ad))
		}
		if len(ad.Elements) == 0 {
			return Null, nil
		}
		if s.Kind == SubHead {
			v := ad.Elements[0]
			ad.Elements = ad.Elements[1:]
			return v, nil
		}
		last := len(ad.Elements) - 1
		v := ad.Elements[last]
		ad.Elements = ad.Elements[:last]
		return v, nil
	}
	return Null, fmt.Errorf("invalid subscript")
}
