// Package value implements Asteria's script type system: a closed,
// nine-member discriminated union (§3.1 of the runtime spec).
//
// Value is a plain struct rather than an interface so that the zero value
// is always null (§3.1 invariant: "a Value whose storage is all-zero bits
// represents null"). Shared container kinds (string/opaque/function/array/
// object) carry a pointer into the `ref` field; scalar kinds pack their
// payload into `num`/`i`.
package value

import "math"

// Kind tags the nine primitive script types.
type Kind uint8

const (
	Null Kind = iota
	Boolean
	Integer
	Real
	String
	Opaque
	Function
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Boolean:
		return "boolean"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case String:
		return "string"
	case Opaque:
		return "opaque"
	case Function:
		return "function"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the tagged union described by §3.1. Copying a Value is always
// shallow: shared kinds alias their underlying data through `ref` until a
// mutation forces a copy-on-write clone (see container.go's MakeUnique).
type Value struct {
	kind Kind
	i    int64   // Integer, and Boolean (0/1)
	d    float64 // Real
	ref  any     // *StringData, *OpaqueHandle, *FunctionData, *ArrayData, *ObjectData
}

// Null is the static immutable null singleton. Every Value{} zero value
// compares equal to it; readonly dereference of a missing subscript
// returns this exact value (invariant 5 in spec.md §8).
var Null = Value{}

func NewNull() Value { return Value{} }

func NewBoolean(b bool) Value {
	if b {
		return Value{kind: Boolean, i: 1}
	}
	return Value{kind: Boolean, i: 0}
}

func NewInteger(i int64) Value { return Value{kind: Integer, i: i} }

func NewReal(d float64) Value { return Value{kind: Real, d: d} }

func NewString(s string) Value {
	return Value{kind: String, ref: NewStringData(s)}
}

func NewStringValue(sd *StringData) Value {
	return Value{kind: String, ref: sd}
}

func NewOpaque(h *OpaqueHandle) Value { return Value{kind: Opaque, ref: h} }

func NewFunction(f *FunctionData) Value { return Value{kind: Function, ref: f} }

func NewArray(ad *ArrayData) Value { return Value{kind: Array, ref: ad} }

func NewObject(od *ObjectData) Value { return Value{kind: Object, ref: od} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

func (v Value) Bool() bool { return v.kind == Boolean && v.i != 0 }

func (v Value) AsBoolean() bool { return v.i != 0 }

func (v Value) AsInteger() int64 { return v.i }

func (v Value) AsReal() float64 { return v.d }

func (v Value) AsString() *StringData {
	if v.kind != String {
		return nil
	}
	return v.ref.(*StringData)
}

func (v Value) AsOpaque() *OpaqueHandle {
	if v.kind != Opaque {
		return nil
	}
	return v.ref.(*OpaqueHandle)
}

func (v Value) AsFunction() *FunctionData {
	if v.kind != Function {
		return nil
	}
	return v.ref.(*FunctionData)
}

func (v Value) AsArray() *ArrayData {
	if v.kind != Array {
		return nil
	}
	return v.ref.(*ArrayData)
}

func (v Value) AsObject() *ObjectData {
	if v.kind != Object {
		return nil
	}
	return v.ref.(*ObjectData)
}

// Truthy implements script-level boolean coercion, used by `if`/`while`/
// logical operators. null, false, 0, 0.0, NaN, "" and the empty array/
// object are falsy; everything else is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case Boolean:
		return v.i != 0
	case Integer:
		return v.i != 0
	case Real:
		return v.d != 0 && !math.IsNaN(v.d)
	case String:
		return v.AsString().Len() != 0
	case Array:
		return len(v.AsArray().Elements) != 0
	case Object:
		return v.AsObject().Len() != 0
	default: // Opaque, Function
		return true
	}
}

// TypeName is the name the `typeof` operator and error messages use.
func (v Value) TypeName() string { return v.kind.String() }
