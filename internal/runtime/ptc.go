package runtime

import "asteria/internal/value"

// PTCArguments captures a pending tail call (§4.4's "proper tail calls"):
// everything needed to actually perform the call later, plus the
// defer list of the scope that decided to tail-call instead of
// returning directly. A `return` statement in tail position produces a
// RefPTC Reference wrapping one of these instead of performing the call
// itself, so the function's own native (Go) stack frame can be popped
// immediately afterward — only the caller-side Unwrap loop below ever
// actually invokes the target, iteratively, so a chain of tail calls of
// any length costs O(1) Go stack depth.
type PTCArguments struct {
	Target value.Value
	Self   value.Value
	Args   []Reference

	// Defers is the tail-returning scope's own defer list (already in
	// run order via Context.TakeDefers), carried along to run once the
	// whole chain resolves to a real value or exception — §4.5's
	// tail-call interaction rule.
	Defers []Deferred

	Loc        SourceLocation
	CallerName string
}

func NewPTCArguments(target, self value.Value, args []Reference, loc SourceLocation, callerName string) *PTCArguments {
	return &PTCArguments{Target: target, Self: self, Args: args, Loc: loc, CallerName: callerName}
}

// Unwrap performs the PTC caller-loop protocol: while ref is a pending
// tail call, invoke its target and replace ref with the result,
// accumulating each link's captured defers so they run, innermost-first,
// once a real (non-PTC) Reference or an exception finally surfaces.
func Unwrap(g *GlobalContext, ref Reference) (Reference, *RuntimeError) {
	var pending []Deferred

	for ref.IsPTC() {
		p := ref.PTCArgs()
		fd := p.Target.AsFunction()
		if fd == nil {
			return Reference{}, runCapturedDefers(pending, Format("attempt to call a non-function value `%s`", p.Target.TypeName()))
		}
		inv, ok := fd.Callable.(Invocable)
		if !ok {
			return Reference{}, runCapturedDefers(pending, Format("value is not callable"))
		}

		pending = append(append([]Deferred{}, p.Defers...), pending...)

		g.Hooks.OnCall(p.Target, p.Loc)
		result, err := inv.Invoke(g, p.Self, p.Args)
		if err != nil {
			return Reference{}, runCapturedDefers(pending, err)
		}
		ref = result
	}

	if err := runCapturedDefers(pending, nil); err != nil {
		return Reference{}, err
	}
	return ref, nil
}

// runCapturedDefers runs a PTC chain's accumulated defers in order. If
// propagating is non-nil (an exception already in flight — either from
// the final call in the chain, or from an earlier non-function/non-
// callable fault) each defer's own frame is annotated to show it ran as
// part of an unwound tail call; a defer that itself throws supersedes
// the propagating exception, matching ordinary unwind-time defer rules.
func runCapturedDefers(defers []Deferred, propagating *RuntimeError) *RuntimeError {
	for _, d := range defers {
		if propagating != nil {
			propagating.PushFrame(Frame{Kind: FrameDefer, Loc: d.Loc, Note: "[proper tail call]"})
		}
		if derr := d.Run(); derr != nil {
			propagating = derr
		}
	}
	return propagating
}
