package runtime

import (
	"asteria/internal/memory"
	"asteria/internal/value"
)

// Executable is a compiled function body. internal/rod's Rod type
// implements it; runtime itself stays ignorant of the AVM Rod node
// layout, so this package never imports internal/rod (rod imports
// runtime instead).
type Executable interface {
	// Execute runs the body in callCtx (already populated with bound
	// parameters and magic names) and returns either a normal result
	// Reference (possibly RefPTC, for a tail call the caller must
	// unwrap) or a RuntimeError that is still unwinding.
	Execute(callCtx *Context) (Reference, *RuntimeError)
}

// Invocable is implemented by every Callable the evaluator can actually
// call: script closures (InstantiatedFunction), the variadic arguer
// bound to `__varg`, and native bindings produced by the Binding
// Generator. A bare value.Callable that is not also Invocable (none
// exist in this runtime, but the type split keeps the boundary honest)
// could still be described and compared, just never called.
type Invocable interface {
	value.Callable
	Invoke(g *GlobalContext, self value.Value, args []Reference) (Reference, *RuntimeError)
}

// InstantiatedFunction is a script closure (§4.4): a compiled body
// paired with the lexical Context it closed over, plus its declared
// parameter list. Constructed once per `func` expression evaluation (so
// each closure captures its own enclosing scope), not once per call.
type InstantiatedFunction struct {
	Name       string
	ParamNames []string
	Variadic   bool
	Closure    *Context
	Body       Executable
	Loc        SourceLocation
}

func (f *InstantiatedFunction) Describe() string {
	if f.Name == "" {
		return "<anonymous function>"
	}
	return "<function " + f.Name + ">"
}

// TraceVariables implements memory.Tracer: a closure keeps its captured
// scope chain alive for as long as the function Value itself is
// reachable, even after the enclosing block has otherwise exited.
func (f *InstantiatedFunction) TraceVariables(visit func(*memory.Variable)) {
	if f.Closure != nil {
		f.Closure.GCRoots(visit)
	}
}

// Invoke binds args to parameters in a fresh function-scoped Context and
// runs the body. self is the function's own Value (for `__func`,
// recursion without a name). Argument binding uses dereference-to-copy:
// each argument is read once into the parameter's own Variable storage,
// matching pass-by-value-with-COW semantics (§4.4, §3.1).
func (f *InstantiatedFunction) Invoke(g *GlobalContext, self value.Value, args []Reference) (Reference, *RuntimeError) {
	ctx := NewFunctionContext(f.Closure)
	// §4.4's magic names: __this is the call's receiver (eagerly stored,
	// since the caller already has it in hand); __func is a temporary
	// string naming the currently-executing function, not the Function
	// value itself — that's what lets a script read "what am I" without
	// needing to have bound itself to a name (anonymous recursion, e.g.
	// via __func-based dispatch, still needs a lookup by name elsewhere).
	ctx.BindMagic("__this", self)
	ctx.BindMagic("__func", value.NewString(f.Name))

	n := len(f.ParamNames)
	for i, name := range f.ParamNames {
		v, derr := ctx.Declare(name, false)
		if derr != nil {
			return Reference{}, derr
		}
		if i < len(args) {
			val, rerr := args[i].Copy()
			if rerr != nil {
				return Reference{}, rerr
			}
			v.Initialize(val)
		} else {
			v.Initialize(value.Null)
		}
	}

	if f.Variadic {
		var rest []value.Value
		if len(args) > n {
			for _, a := range args[n:] {
				val, rerr := a.Copy()
				if rerr != nil {
					return Reference{}, rerr
				}
				rest = append(rest, val)
			}
		}
		varg := NewVariadicArguer(rest)
		ctx.BindMagic("__varg", value.NewFunction(value.NewFunctionData("__varg", varg)))
	}

	g.Hooks.OnFunctionEnter(ctx)
	ref, rerr := f.Body.Execute(ctx)
	if !ref.IsPTC() {
		// A tail-returning body already spliced its own defers onto the
		// PTCArguments (the compiled tail-return node calls TakeDefers
		// itself); every other exit — normal return or fallthrough, or an
		// exception unwinding through this frame — runs them here.
		rerr = ctx.RunOwnDefers(rerr)
	}
	g.Hooks.OnFunctionLeave(ctx)
	return ref, rerr
}
