// Package eval is the Evaluator (spec.md §4.1): it drives a compiled
// Rod to completion, dispatches calls (including the PTC-unwrap caller
// loop of §4.4), and implements the scalar/container operator semantics
// the compiler's solidified nodes call into.
package eval

import (
	"math"

	"asteria/internal/runtime"
	"asteria/internal/value"
)

// BinaryOp implements the closed set of binary operators the parser's
// Binary/LogicalExpr nodes carry as a bare string (`+`, `-`, `*`, `/`,
// `%`, `==`, `!=`, `<`, `>`, `<=`, `>=`). `+` on two strings concatenates
// (the one cross-kind exception — every other operator requires both
// operands to already agree in kind, coercing integer/real freely since
// spec.md's comparison rules already treat those two as one ordered
// family).
func BinaryOp(op string, l, r value.Value) (value.Value, *runtime.RuntimeError) {
	switch op {
	case "==":
		return value.NewBoolean(value.Equal(l, r)), nil
	case "!=":
		return value.NewBoolean(!value.Equal(l, r)), nil
	case "<", ">", "<=", ">=":
		ord := value.Compare(l, r)
		if ord == value.Unordered {
			return value.Null, runtime.Format("`%s` is not ordered against `%s`", l.TypeName(), r.TypeName())
		}
		switch op {
		case "<":
			return value.NewBoolean(ord == value.Less), nil
		case ">":
			return value.NewBoolean(ord == value.Greater), nil
		case "<=":
			return value.NewBoolean(ord != value.Greater), nil
		default:
			return value.NewBoolean(ord != value.Less), nil
		}
	case "+":
		if l.Kind() == value.String && r.Kind() == value.String {
			return value.NewString(l.AsString().String() + r.AsString().String()), nil
		}
		return arith(op, l, r)
	case "-", "*", "/", "%":
		return arith(op, l, r)
	default:
		return value.Null, runtime.Format("unsupported operator `%s`", op)
	}
}

func arith(op string, l, r value.Value) (value.Value, *runtime.RuntimeError) {
	if l.Kind() == value.Integer && r.Kind() == value.Integer {
		a, b := l.AsInteger(), r.AsInteger()
		switch op {
		case "+":
			return value.NewInteger(a + b), nil
		case "-":
			return value.NewInteger(a - b), nil
		case "*":
			return value.NewInteger(a * b), nil
		case "/":
			if b == 0 {
				return value.Null, runtime.Format("integer division by zero")
			}
			return value.NewInteger(a / b), nil
		case "%":
			if b == 0 {
				return value.Null, runtime.Format("integer division by zero")
			}
			return value.NewInteger(a % b), nil
		}
	}
	af, aok := asReal(l)
	bf, bok := asReal(r)
	if !aok || !bok {
		return value.Null, runtime.Format("`%s` is not valid for operands of kind %s and %s", op, l.TypeName(), r.TypeName())
	}
	switch op {
	case "+":
		return value.NewReal(af + bf), nil
	case "-":
		return value.NewReal(af - bf), nil
	case "*":
		return value.NewReal(af * bf), nil
	case "/":
		return value.NewReal(af / bf), nil
	case "%":
		return value.NewReal(math.Mod(af, bf)), nil
	}
	return value.Null, runtime.Format("unsupported operator `%s`", op)
}

func asReal(v value.Value) (float64, bool) {
	switch v.Kind() {
	case value.Real:
		return v.AsReal(), true
	case value.Integer:
		return float64(v.AsInteger()), true
	default:
		return 0, false
	}
}

// UnaryOp implements `!` (logical negation, coercing via Truthy) and
// numeric negation `-`.
func UnaryOp(op string, v value.Value) (value.Value, *runtime.RuntimeError) {
	switch op {
	case "!":
		return value.NewBoolean(!v.Truthy()), nil
	case "-":
		switch v.Kind() {
		case value.Integer:
			return value.NewInteger(-v.AsInteger()), nil
		case value.Real:
			return value.NewReal(-v.AsReal()), nil
		default:
			return value.Null, runtime.Format("unary `-` is not valid for %s", v.TypeName())
		}
	default:
		return value.Null, runtime.Format("unsupported unary operator `%s`", op)
	}
}
