package runtime

import (
	"strings"

	"asteria/internal/value"
)

// ArgReader implements the "try overload" pattern native bindings use to
// accept more than one call signature (§7.3's Argument Reader): each
// typed read either consumes the next argument and advances, or marks
// the current overload attempt as failed without raising — so the
// binding can fall through to StartOverload for the next candidate
// signature. Only once every recorded overload has failed does
// ThrowNoMatchingCall raise, listing every signature that was tried.
type ArgReader struct {
	funcName string
	args     []Reference
	pos      int
	ok       bool
	attempts []string
}

func NewArgReader(funcName string, args []Reference) *ArgReader {
	return &ArgReader{funcName: funcName, args: args}
}

// StartOverload resets the cursor to try matching signature against the
// call's arguments from the beginning.
func (r *ArgReader) StartOverload(signature string) *ArgReader {
	r.pos = 0
	r.ok = true
	r.attempts = append(r.attempts, signature)
	return r
}

func (r *ArgReader) fail() *ArgReader { r.ok = false; return r }

func (r *ArgReader) next() (value.Value, bool) {
	if !r.ok || r.pos >= len(r.args) {
		return value.Null, false
	}
	v, err := r.args[r.pos].ReadOnly()
	if err != nil {
		r.ok = false
		return value.Null, false
	}
	return v, true
}

func (r *ArgReader) RequiredInteger(out *int64) *ArgReader {
	v, ok := r.next()
	if !ok || v.Kind() != value.Integer {
		return r.fail()
	}
	*out = v.AsInteger()
	r.pos++
	return r
}

func (r *ArgReader) RequiredReal(out *float64) *ArgReader {
	v, ok := r.next()
	if !ok {
		return r.fail()
	}
	switch v.Kind() {
	case value.Real:
		*out = v.AsReal()
	case value.Integer:
		*out = float64(v.AsInteger())
	default:
		return r.fail()
	}
	r.pos++
	return r
}

func (r *ArgReader) RequiredString(out *string) *ArgReader {
	v, ok := r.next()
	if !ok || v.Kind() != value.String {
		return r.fail()
	}
	*out = v.AsString().String()
	r.pos++
	return r
}

func (r *ArgReader) RequiredBoolean(out *bool) *ArgReader {
	v, ok := r.next()
	if !ok || v.Kind() != value.Boolean {
		return r.fail()
	}
	*out = v.AsBoolean()
	r.pos++
	return r
}

func (r *ArgReader) RequiredValue(out *value.Value) *ArgReader {
	v, ok := r.next()
	if !ok {
		return r.fail()
	}
	*out = v
	r.pos++
	return r
}

func (r *ArgReader) OptionalInteger(out *int64, def int64) *ArgReader {
	if !r.ok {
		return r
	}
	if r.pos >= len(r.args) {
		*out = def
		return r
	}
	return r.RequiredInteger(out)
}

func (r *ArgReader) OptionalString(out *string, def string) *ArgReader {
	if !r.ok {
		return r
	}
	if r.pos >= len(r.args) {
		*out = def
		return r
	}
	return r.RequiredString(out)
}

func (r *ArgReader) OptionalValue(out *value.Value) *ArgReader {
	if !r.ok {
		return r
	}
	if r.pos >= len(r.args) {
		*out = value.Null
		return r
	}
	return r.RequiredValue(out)
}

// Rest returns every remaining argument without consuming it, for a
// trailing variadic parameter; it never fails the overload.
func (r *ArgReader) Rest() []value.Value {
	if !r.ok {
		return nil
	}
	out := make([]value.Value, 0, len(r.args)-r.pos)
	for i := r.pos; i < len(r.args); i++ {
		v, err := r.args[i].ReadOnly()
		if err != nil {
			r.ok = false
			return nil
		}
		out = append(out, v)
	}
	r.pos = len(r.args)
	return out
}

// EndOverload reports whether the overload currently being tried
// consumed every supplied argument with no failed read.
func (r *ArgReader) EndOverload() bool {
	return r.ok && r.pos == len(r.args)
}

func (r *ArgReader) ThrowNoMatchingCall() *RuntimeError {
	return Format("no matching overload found for `%s(%d argument%s)`; tried: %s",
		r.funcName, len(r.args), plural(len(r.args)), strings.Join(r.attempts, "; "))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
