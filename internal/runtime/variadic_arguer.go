package runtime

import "asteria/internal/value"

// VariadicArguer is the native callable lazily bound to `__varg` inside
// a variadic function's scope (§4.4). Called with no arguments it
// returns the number of extra (unnamed) arguments the call received;
// called with one integer it returns a copy of that variadic argument,
// using the same negative-from-end indexing as an array subscript, and
// null for an out-of-range index rather than raising.
type VariadicArguer struct {
	extra []value.Value
}

func NewVariadicArguer(extra []value.Value) *VariadicArguer {
	return &VariadicArguer{extra: extra}
}

func (v *VariadicArguer) Describe() string { return "<variadic arguer>" }

func (v *VariadicArguer) Invoke(g *GlobalContext, self value.Value, args []Reference) (Reference, *RuntimeError) {
	if len(args) == 0 {
		return TempRef(value.NewInteger(int64(len(v.extra)))), nil
	}
	idxVal, err := args[0].ReadOnly()
	if err != nil {
		return Reference{}, err
	}
	if idxVal.Kind() != value.Integer {
		return Reference{}, Format("`__varg` expects an integer index, got %s", idxVal.TypeName())
	}
	i := idxVal.AsInteger()
	if i < 0 {
		i += int64(len(v.extra))
	}
	if i < 0 || i >= int64(len(v.extra)) {
		return TempRef(value.Null), nil
	}
	return TempRef(v.extra[i]), nil
}
