package value

import "math"

// Ordering is the four-way result of Compare: values of different kinds
// (outside the small numeric-vs-numeric exception) or either operand
// being NaN compare Unordered, matching §3.1's invariant.
type Ordering int

const (
	Less Ordering = iota - 1
	Equal
	Greater
	Unordered
)

// Equal implements script `==`. It never raises; unordered comparisons
// (NaN, incompatible kinds) are simply not equal.
func Equal(a, b Value) bool {
	c := Compare(a, b)
	return c == Equal
}

// Compare implements the relational operators. Integers and reals compare
// across kinds (mixed-numeric comparison is well defined); every other
// cross-kind comparison, and any comparison involving NaN, is Unordered.
func Compare(a, b Value) Ordering {
	if a.kind == b.kind {
		switch a.kind {
		case Null:
			return Equal
		case Boolean:
			return compareInt(a.i, b.i)
		case Integer:
			return compareInt(a.i, b.i)
		case Real:
			return compareReal(a.d, b.d)
		case String:
			return compareBytes(a.AsString().Bytes(), b.AsString().Bytes())
		case Array:
			return compareArrays(a.AsArray(), b.AsArray())
		case Object:
			return compareObjects(a.AsObject(), b.AsObject())
		case Opaque:
			if a.AsOpaque() == b.AsOpaque() {
				return Equal
			}
			return Unordered
		case Function:
			if a.AsFunction() == b.AsFunction() {
				return Equal
			}
			return Unordered
		}
	}

	// Mixed integer/real comparison is defined; everything else across
	// kinds is unordered.
	if a.kind == Integer && b.kind == Real {
		return compareReal(float64(a.i), b.d)
	}
	if a.kind == Real && b.kind == Integer {
		return compareReal(a.d, float64(b.i))
	}
	return Unordered
}

func compareInt(a, b int64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func compareReal(a, b float64) Ordering {
	if math.IsNaN(a) || math.IsNaN(b) {
		return Unordered
	}
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func compareBytes(a, b []byte) Ordering {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] < b[i] {
			return Less
		}
		if a[i] > b[i] {
			return Greater
		}
	}
	return compareInt(int64(len(a)), int64(len(b)))
}

func compareArrays(a, b *ArrayData) Ordering {
	n := len(a.Elements)
	if len(b.Elements) < n {
		n = len(b.Elements)
	}
	for i := 0; i < n; i++ {
		c := Compare(a.Elements[i], b.Elements[i])
		if c != Equal {
			return c
		}
	}
	return compareInt(int64(len(a.Elements)), int64(len(b.Elements)))
}

// compareObjects only supports equality: ordering over unordered maps
// (aside from identical insertion order) is not meaningful, matching the
// source language's restriction to `==`/`!=` on object values.
func compareObjects(a, b *ObjectData) Ordering {
	if a.Len() != b.Len() {
		return Unordered
	}
	for _, k := range a.keys {
		av, _ := a.Get(k)
		bv, ok := b.Get(k)
		if !ok || !Equal(av, bv) {
			return Unordered
		}
	}
	return Equal
}
