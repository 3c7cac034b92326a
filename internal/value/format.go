package value

import (
	"strings"

	"asteria/internal/numfmt"
)

// ToDisplayString renders a Value the way the `to_string` builtin and the
// printer's default formatting do. Containers render recursively with
// literal-like syntax; strings are not quoted by ToDisplayString itself
// (Inspect below quotes them, for nested/array/object contexts).
func ToDisplayString(v Value) string {
	switch v.kind {
	case Null:
		return "null"
	case Boolean:
		if v.AsBoolean() {
			return "true"
		}
		return "false"
	case Integer:
		return numfmt.FormatInteger(v.i, numfmt.Decimal)
	case Real:
		return numfmt.FormatReal(v.d, numfmt.Decimal)
	case String:
		return v.AsString().String()
	case Opaque:
		return "<opaque: " + v.AsOpaque().Native.TypeName() + ">"
	case Function:
		return "<function: " + v.AsFunction().Description + ">"
	case Array:
		return Inspect(v)
	case Object:
		return Inspect(v)
	default:
		return ""
	}
}

// Inspect renders a Value the way a REPL or debugger would: strings are
// quoted, containers render their elements recursively via Inspect.
func Inspect(v Value) string {
	switch v.kind {
	case String:
		return quote(v.AsString().String())
	case Array:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.AsArray().Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(Inspect(e))
		}
		sb.WriteByte(']')
		return sb.String()
	case Object:
		od := v.AsObject()
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range od.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			val, _ := od.Get(k)
			sb.WriteString(quote(k))
			sb.WriteString(": ")
			sb.WriteString(Inspect(val))
		}
		sb.WriteByte('}')
		return sb.String()
	default:
		return ToDisplayString(v)
	}
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
