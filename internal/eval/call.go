package eval

import (
	"asteria/internal/runtime"
	"asteria/internal/value"
)

// Call performs a non-tail-position function call: invoke target, then
// immediately run the PTC-unwrap loop on whatever comes back. Every
// call site in a compiled Rod goes through this helper except a
// `return <call>` in true tail position, which instead hands the raw
// RefPTC straight to its own caller's Status register untouched — that
// is what makes the tail call "proper" (no Go stack growth here, since
// Call is not re-entered until the chain's real result is known).
func Call(g *runtime.GlobalContext, target value.Value, self value.Value, args []runtime.Reference, loc runtime.SourceLocation) (runtime.Reference, *runtime.RuntimeError) {
	fd := target.AsFunction()
	if fd == nil {
		return runtime.Reference{}, runtime.Format("attempt to call a non-function value of type %s", target.TypeName())
	}
	inv, ok := fd.Callable.(runtime.Invocable)
	if !ok {
		return runtime.Reference{}, runtime.Format("value is not callable")
	}

	g.Hooks.OnCall(target, loc)
	result, err := inv.Invoke(g, self, args)
	if err != nil {
		err.PushFrame(runtime.Frame{Kind: runtime.FrameFunc, Loc: loc, Note: fd.Description})
		return runtime.Reference{}, err
	}

	final, err := runtime.Unwrap(g, result)
	if err != nil {
		err.PushFrame(runtime.Frame{Kind: runtime.FrameFunc, Loc: loc, Note: fd.Description})
		return runtime.Reference{}, err
	}

	if v, rerr := final.ReadOnly(); rerr == nil {
		g.Hooks.OnReturn(v)
	}
	return final, nil
}

// TailCall builds the PTC sentinel a `return <call-expr>` in tail
// position yields: the call is not performed here at all (§4.4) — it is
// deferred to whichever Call/Unwrap site eventually observes this
// Reference, collapsing an arbitrarily long tail-call chain into O(1)
// Go stack frames.
func TailCall(target, self value.Value, args []runtime.Reference, loc runtime.SourceLocation, callerName string, defers []runtime.Deferred) runtime.Reference {
	p := runtime.NewPTCArguments(target, self, args, loc, callerName)
	p.Defers = defers
	return runtime.PTCRef(p)
}
