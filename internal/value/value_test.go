package value

import "testing"

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	if v.Kind() != Null {
		t.Fatalf("zero Value kind = %v, want Null", v.Kind())
	}
	if !v.IsNull() {
		t.Fatal("zero Value.IsNull() = false")
	}
	if !Equal(v, Null) {
		t.Fatal("zero Value does not compare equal to the Null singleton")
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null, false},
		{"false", NewBoolean(false), false},
		{"true", NewBoolean(true), true},
		{"zero integer", NewInteger(0), false},
		{"nonzero integer", NewInteger(1), true},
		{"negative integer", NewInteger(-1), true},
		{"empty string", NewString(""), false},
		{"nonempty string", NewString("x"), true},
		{"empty array", NewArray(NewArrayData(nil)), false},
		{"nonempty array", NewArray(NewArrayData([]Value{NewInteger(1)})), true},
	}
	for _, tt := range tests {
		if got := tt.v.Truthy(); got != tt.want {
			t.Errorf("%s: Truthy() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCompareMixedNumeric(t *testing.T) {
	if Compare(NewInteger(3), NewReal(3.0)) != Equal {
		t.Error("3 (integer) should compare Equal to 3.0 (real)")
	}
	if Compare(NewInteger(2), NewReal(3.0)) != Less {
		t.Error("2 should compare Less than 3.0")
	}
	if Compare(NewReal(4.5), NewInteger(4)) != Greater {
		t.Error("4.5 should compare Greater than 4")
	}
}

func TestCompareCrossKindIsUnordered(t *testing.T) {
	if Compare(NewInteger(1), NewString("1")) != Unordered {
		t.Error("integer vs string should be Unordered")
	}
	if Equal(NewInteger(1), NewString("1")) {
		t.Error("integer 1 should not equal string \"1\"")
	}
}

func TestCompareNaNIsUnordered(t *testing.T) {
	nan := NewReal(nan())
	if Compare(nan, nan) != Unordered {
		t.Error("NaN should never compare Equal, even to itself")
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestCompareStringLexicographic(t *testing.T) {
	if Compare(NewString("abc"), NewString("abd")) != Less {
		t.Error(`"abc" should compare Less than "abd"`)
	}
	if Compare(NewString("ab"), NewString("abc")) != Less {
		t.Error(`"ab" (prefix) should compare Less than "abc"`)
	}
}

func TestCompareArraysElementwise(t *testing.T) {
	a := NewArray(NewArrayData([]Value{NewInteger(1), NewInteger(2)}))
	b := NewArray(NewArrayData([]Value{NewInteger(1), NewInteger(3)}))
	if Compare(a, b) != Less {
		t.Error("[1,2] should compare Less than [1,3]")
	}
	c := NewArray(NewArrayData([]Value{NewInteger(1)}))
	if Compare(c, a) != Less {
		t.Error("shorter prefix array should compare Less than a longer one sharing its prefix")
	}
}

func TestSubscriptReadOptionalMissOnNull(t *testing.T) {
	s := IndexSubscript(5)
	v, ok := s.ReadOptional(Null)
	if ok || v.Kind() != Null {
		t.Fatalf("index subscript on null should miss to (Null, false), got (%v, %v)", v, ok)
	}
}

func TestSubscriptNegativeIndexCountsFromEnd(t *testing.T) {
	arr := NewArray(NewArrayData([]Value{NewInteger(10), NewInteger(20), NewInteger(30)}))
	v, ok := IndexSubscript(-1).ReadOptional(arr)
	if !ok || v.AsInteger() != 30 {
		t.Fatalf("index -1 should read the last element, got (%v, %v)", v, ok)
	}
	_, ok = IndexSubscript(-10).ReadOptional(arr)
	if ok {
		t.Fatal("index -10 on a 3-element array should miss, not wrap twice")
	}
}

func TestSubscriptOpenAutoVivifiesArray(t *testing.T) {
	var stored Value
	root := NewSlot(func() Value { return stored }, func(v Value) { stored = v })

	slot, err := IndexSubscript(2).Open(root)
	if err != nil {
		t.Fatalf("Open on null root: %v", err)
	}
	slot.Set(NewInteger(99))

	if stored.Kind() != Array {
		t.Fatalf("root should have been vivified into an array, got %v", stored.Kind())
	}
	elems := stored.AsArray().Elements
	if len(elems) != 3 {
		t.Fatalf("index 2 should extend the array to length 3, got %d", len(elems))
	}
	if elems[0].Kind() != Null || elems[1].Kind() != Null {
		t.Fatal("intermediate elements should be padded with Null")
	}
	if elems[2].AsInteger() != 99 {
		t.Fatalf("elems[2] = %v, want 99", elems[2])
	}
}

func TestSubscriptOpenAutoVivifiesObject(t *testing.T) {
	var stored Value
	root := NewSlot(func() Value { return stored }, func(v Value) { stored = v })

	slot, err := KeySubscript("name").Open(root)
	if err != nil {
		t.Fatalf("Open on null root: %v", err)
	}
	slot.Set(NewString("asteria"))

	if stored.Kind() != Object {
		t.Fatalf("root should have been vivified into an object, got %v", stored.Kind())
	}
	got, ok := stored.AsObject().Get("name")
	if !ok || got.AsString().String() != "asteria" {
		t.Fatalf("object[\"name\"] = (%v, %v), want (\"asteria\", true)", got, ok)
	}
}

func TestSubscriptOpenRejectsTypeMismatch(t *testing.T) {
	stored := NewInteger(7)
	root := NewSlot(func() Value { return stored }, func(v Value) { stored = v })
	if _, err := KeySubscript("k").Open(root); err == nil {
		t.Fatal("opening a key subscript against an integer root should error")
	}
}

func TestArrayCopyOnWrite(t *testing.T) {
	ad := NewArrayData([]Value{NewInteger(1), NewInteger(2)})
	ad.Retain() // v1's owner
	ad.Retain() // v2's owner
	v1 := NewArray(ad)
	v2 := NewArray(ad)

	unique := v1.AsArray().MakeUnique()
	if unique == v2.AsArray() {
		t.Fatal("MakeUnique on a shared ArrayData should clone, not mutate the shared copy in place")
	}
	if len(v2.AsArray().Elements) != 2 || v2.AsArray().Elements[0].AsInteger() != 1 {
		t.Fatal("the other reference's contents should be unaffected by the clone")
	}
}
