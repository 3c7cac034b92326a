package eval

import (
	"asteria/internal/rod"
	"asteria/internal/runtime"
	"asteria/internal/value"
)

// Program is a solidified top-level script: one Rod run directly in the
// Global Context, the way a function body runs in a function Context.
type Program struct {
	Body *rod.Rod
}

// Run drives prog's Rod to completion in g (§4.1's step rule applied at
// program scope): step every top-level node, unwrap a trailing tail
// call through the PTC caller loop exactly as an ordinary call site
// would, then drain the Global Context's own defer list — a `defer`
// statement outside any function attaches there (see Context.PushDefer)
// and must still run once the script finishes, successfully or not.
func Run(g *runtime.GlobalContext, prog *Program) (value.Value, *runtime.RuntimeError) {
	ref, err := prog.Body.Execute(g.Context)
	if err == nil {
		ref, err = runtime.Unwrap(g, ref)
	}
	err = g.RunOwnDefers(err)
	if err != nil {
		return value.Null, err
	}
	return ref.ReadOnly()
}

// Step executes a single already-solidified Rod in ctx without touching
// any enclosing defer list — the building block RunProgram, a function
// body (via InstantiatedFunction.Invoke), and a bare block statement all
// reduce to: a nested block's own StatusBreak/StatusContinue/StatusReturn*
// propagates straight out to whichever loop or function Rod is listening
// for it, unchanged, since the status register is a single evaluator-wide
// concept rather than one scoped per block (§4.1).
func Step(ctx *runtime.Context, body *rod.Rod) (rod.StepResult, *runtime.RuntimeError) {
	return body.Step(ctx)
}
