package runtime

import "asteria/internal/value"

// NativeBinding adapts a plain Go function into an Invocable Callable —
// the Binding Generator of §7.4. Native library code (internal/stdlib)
// never implements Invoke by hand; it picks whichever of the twelve
// constructors below matches the shape of the Go function it already
// has, and gets argument-dereferencing, self-binding and error-wrapping
// for free.
//
// The twelve shapes are the cross product of three independent axes:
// whether the function wants the caller's GlobalContext, whether it
// wants the call's `this` argument, and how it reports its result
// (a bare Value for functions that cannot fail, a (Value, error) pair
// for those that can, or a (Reference, error) pair for the rare binding
// that must hand back an lvalue — e.g. an accessor usable on the left
// of an assignment).
type NativeBinding struct {
	desc  string
	shape nativeShape
	fn    any
}

type nativeShape int

const (
	shapeValue nativeShape = iota
	shapeValueErr
	shapeRefErr
	shapeValueSelf
	shapeValueErrSelf
	shapeRefErrSelf
	shapeValueG
	shapeValueErrG
	shapeRefErrG
	shapeValueSelfG
	shapeValueErrSelfG
	shapeRefErrSelfG
)

func (b *NativeBinding) Describe() string { return b.desc }

func NewNativeValue(desc string, fn func(args []value.Value) value.Value) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeValue, fn: fn}
}

func NewNativeValueErr(desc string, fn func(args []value.Value) (value.Value, *RuntimeError)) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeValueErr, fn: fn}
}

func NewNativeRefErr(desc string, fn func(args []value.Value) (Reference, *RuntimeError)) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeRefErr, fn: fn}
}

func NewNativeValueSelf(desc string, fn func(self value.Value, args []value.Value) value.Value) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeValueSelf, fn: fn}
}

func NewNativeValueErrSelf(desc string, fn func(self value.Value, args []value.Value) (value.Value, *RuntimeError)) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeValueErrSelf, fn: fn}
}

func NewNativeRefErrSelf(desc string, fn func(self value.Value, args []value.Value) (Reference, *RuntimeError)) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeRefErrSelf, fn: fn}
}

func NewNativeValueG(desc string, fn func(g *GlobalContext, args []value.Value) value.Value) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeValueG, fn: fn}
}

func NewNativeValueErrG(desc string, fn func(g *GlobalContext, args []value.Value) (value.Value, *RuntimeError)) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeValueErrG, fn: fn}
}

func NewNativeRefErrG(desc string, fn func(g *GlobalContext, args []value.Value) (Reference, *RuntimeError)) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeRefErrG, fn: fn}
}

func NewNativeValueSelfG(desc string, fn func(g *GlobalContext, self value.Value, args []value.Value) value.Value) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeValueSelfG, fn: fn}
}

func NewNativeValueErrSelfG(desc string, fn func(g *GlobalContext, self value.Value, args []value.Value) (value.Value, *RuntimeError)) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeValueErrSelfG, fn: fn}
}

func NewNativeRefErrSelfG(desc string, fn func(g *GlobalContext, self value.Value, args []value.Value) (Reference, *RuntimeError)) *NativeBinding {
	return &NativeBinding{desc: desc, shape: shapeRefErrSelfG, fn: fn}
}

// Invoke dereferences every argument Reference to a plain Value (native
// bindings never need to observe an argument's lvalue-ness; one that
// does should return a RefErr shape and index into args itself through a
// closure over the original Reference slice captured at registration),
// then dispatches to the stored Go function according to its shape.
func (b *NativeBinding) Invoke(g *GlobalContext, self value.Value, args []Reference) (Reference, *RuntimeError) {
	vals := make([]value.Value, len(args))
	for i, a := range args {
		v, err := a.ReadOnly()
		if err != nil {
			return Reference{}, err
		}
		vals[i] = v
	}

	switch b.shape {
	case shapeValue:
		return TempRef(b.fn.(func([]value.Value) value.Value)(vals)), nil
	case shapeValueErr:
		v, err := b.fn.(func([]value.Value) (value.Value, *RuntimeError))(vals)
		if err != nil {
			return Reference{}, err
		}
		return TempRef(v), nil
	case shapeRefErr:
		return b.fn.(func([]value.Value) (Reference, *RuntimeError))(vals)

	case shapeValueSelf:
		return TempRef(b.fn.(func(value.Value, []value.Value) value.Value)(self, vals)), nil
	case shapeValueErrSelf:
		v, err := b.fn.(func(value.Value, []value.Value) (value.Value, *RuntimeError))(self, vals)
		if err != nil {
			return Reference{}, err
		}
		return TempRef(v), nil
	case shapeRefErrSelf:
		return b.fn.(func(value.Value, []value.Value) (Reference, *RuntimeError))(self, vals)

	case shapeValueG:
		return TempRef(b.fn.(func(*GlobalContext, []value.Value) value.Value)(g, vals)), nil
	case shapeValueErrG:
		v, err := b.fn.(func(*GlobalContext, []value.Value) (value.Value, *RuntimeError))(g, vals)
		if err != nil {
			return Reference{}, err
		}
		return TempRef(v), nil
	case shapeRefErrG:
		return b.fn.(func(*GlobalContext, []value.Value) (Reference, *RuntimeError))(g, vals)

	case shapeValueSelfG:
		return TempRef(b.fn.(func(*GlobalContext, value.Value, []value.Value) value.Value)(g, self, vals)), nil
	case shapeValueErrSelfG:
		v, err := b.fn.(func(*GlobalContext, value.Value, []value.Value) (value.Value, *RuntimeError))(g, self, vals)
		if err != nil {
			return Reference{}, err
		}
		return TempRef(v), nil
	case shapeRefErrSelfG:
		return b.fn.(func(*GlobalContext, value.Value, []value.Value) (Reference, *RuntimeError))(g, self, vals)
	}
	return Reference{}, Format("unreachable native binding shape")
}

// NewNativeFunctionValue wraps a NativeBinding as a script-visible
// function Value, ready for GlobalContext.RegisterNative.
func NewNativeFunctionValue(b *NativeBinding) *value.FunctionData {
	return value.NewFunctionData(b.desc, b)
}
