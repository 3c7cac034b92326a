package runtime

import (
	"testing"

	"asteria/internal/value"
)

func newTestGlobal() *GlobalContext {
	return NewGlobalContext(1)
}

func TestInvalidVoidPTCRefsRejectDereference(t *testing.T) {
	if _, err := InvalidRef().ReadOnly(); err == nil {
		t.Error("ReadOnly on RefInvalid should raise")
	}
	if _, err := VoidRef().ReadOnly(); err == nil {
		t.Error("ReadOnly on RefVoid should raise (§3.4: discarded expression)")
	}
	if _, err := PTCRef(&PTCArguments{}).ReadOnly(); err == nil {
		t.Error("ReadOnly on an unresolved RefPTC should raise")
	}
}

func TestTemporaryRefIsReadOnlyNotMutable(t *testing.T) {
	ref := TempRef(value.NewInteger(42))
	v, err := ref.ReadOnly()
	if err != nil || v.AsInteger() != 42 {
		t.Fatalf("ReadOnly on a temporary: got (%v, %v)", v, err)
	}
	if _, err := ref.Mutable(); err == nil {
		t.Error("Mutable on a temporary reference should raise (§3.4)")
	}
}

func TestUninitializedVariableRaisesOnRead(t *testing.T) {
	g := newTestGlobal()
	v, _ := g.Declare("x", false)
	ref := VariableRef(v)
	if _, err := ref.ReadOnly(); err == nil {
		t.Error("reading an uninitialized variable should raise")
	}
}

func TestMutableRejectsConstant(t *testing.T) {
	g := newTestGlobal()
	v, _ := g.Declare("pi", true)
	v.Initialize(value.NewReal(3.14))
	ref := VariableRef(v)
	if _, err := ref.Mutable(); err == nil {
		t.Error("Mutable on an immutable variable (no subscript) should raise")
	}
}

func TestMutableThroughSubscriptAllowsAssignment(t *testing.T) {
	g := newTestGlobal()
	v, _ := g.Declare("arr", false)
	v.Initialize(value.NewArray(value.NewArrayData([]value.Value{value.NewInteger(1), value.NewInteger(2)})))

	ref := VariableRef(v).WithSubscript(value.IndexSubscript(0))
	slot, err := ref.Mutable()
	if err != nil {
		t.Fatalf("Mutable on arr[0]: %v", err)
	}
	slot.Set(value.NewInteger(99))

	readBack, err := VariableRef(v).WithSubscript(value.IndexSubscript(0)).ReadOnly()
	if err != nil || readBack.AsInteger() != 99 {
		t.Fatalf("arr[0] after assignment = (%v, %v), want (99, nil)", readBack, err)
	}
}

func TestReadOnlyMissingSubscriptCollapsesToNull(t *testing.T) {
	g := newTestGlobal()
	v, _ := g.Declare("arr", false)
	v.Initialize(value.NewArray(value.NewArrayData(nil)))

	ref := VariableRef(v).WithSubscript(value.IndexSubscript(5)).WithSubscript(value.KeySubscript("k"))
	got, err := ref.ReadOnly()
	if err != nil {
		t.Fatalf("chained miss should not raise: %v", err)
	}
	if got.Kind() != value.Null {
		t.Fatalf("chained miss should collapse to Null, got %v", got)
	}
}

func TestCopyRetainsContainerOnRead(t *testing.T) {
	g := newTestGlobal()
	v, _ := g.Declare("arr", false)
	ad := value.NewArrayData([]value.Value{value.NewInteger(1)})
	v.Initialize(value.NewArray(ad))

	ref := VariableRef(v)
	cp, err := ref.Copy()
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if cp.AsArray() != ad {
		t.Fatal("Copy should be a logical (COW) copy aliasing the same ArrayData until mutated")
	}
}

func TestUnsetBareVariableRearmsRatherThanRemoves(t *testing.T) {
	g := newTestGlobal()
	v, _ := g.Declare("x", false)
	v.Initialize(value.NewInteger(7))

	old, err := VariableRef(v).Unset()
	if err != nil || old.AsInteger() != 7 {
		t.Fatalf("Unset should return the prior value, got (%v, %v)", old, err)
	}
	if v.Initialized() {
		t.Fatal("Unset on a bare variable should leave it uninitialized (re-armed), not still initialized")
	}
}

func TestUnsetThroughSubscriptRemovesElement(t *testing.T) {
	g := newTestGlobal()
	v, _ := g.Declare("arr", false)
	v.Initialize(value.NewArray(value.NewArrayData([]value.Value{
		value.NewInteger(1), value.NewInteger(2), value.NewInteger(3),
	})))

	removed, err := VariableRef(v).WithSubscript(value.IndexSubscript(1)).Unset()
	if err != nil || removed.AsInteger() != 2 {
		t.Fatalf("Unset arr[1]: got (%v, %v), want (2, nil)", removed, err)
	}
	remaining, _ := VariableRef(v).ReadOnly()
	elems := remaining.AsArray().Elements
	if len(elems) != 2 || elems[0].AsInteger() != 1 || elems[1].AsInteger() != 3 {
		t.Fatalf("arr after Unset(arr[1]) = %v, want [1, 3]", elems)
	}
}
