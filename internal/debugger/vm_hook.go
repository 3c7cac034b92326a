// internal/debugger/vm_hook.go
package debugger

import (
	"asteria/internal/hooks"
	"asteria/internal/runtime"
	"asteria/internal/value"
)

// EvalDebugHook implements runtime.Hooks, wrapping a *hooks.TraceHooks so
// the debugger gets its trace output for free, while layering breakpoint
// checking and the interactive prompt on top. It replaces the teacher's
// VMDebugHook, which hooked sentra's EnhancedVM at each bytecode
// instruction (internal/vm, deleted); the new Evaluator exposes no
// per-instruction hook finer than OnSingleStepTrap, so this hook pauses
// there instead of at a bytecode IP.
type EvalDebugHook struct {
	*hooks.TraceHooks
	debugger *Debugger
}

// NewEvalDebugHook attaches d to the evaluator's hook bus.
func NewEvalDebugHook(d *Debugger) *EvalDebugHook {
	return &EvalDebugHook{TraceHooks: hooks.NewTraceHooks(), debugger: d}
}

var _ runtime.Hooks = (*EvalDebugHook)(nil)

func (h *EvalDebugHook) OnFunctionEnter(ctx *runtime.Context) {
	h.TraceHooks.OnFunctionEnter(ctx)
	h.debugger.pushFrame(StackFrame{Function: "<function>"})
}

func (h *EvalDebugHook) OnFunctionLeave(ctx *runtime.Context) {
	h.TraceHooks.OnFunctionLeave(ctx)
	h.debugger.popFrame()
}

// OnSingleStepTrap is the debugger's one pause point: every top-level
// Rod node in a compiled body traps here before executing, letting
// CheckBreakpoint match against its SourceLocation.
func (h *EvalDebugHook) OnSingleStepTrap(loc runtime.SourceLocation) {
	h.TraceHooks.OnSingleStepTrap(loc)
	if h.debugger.CheckBreakpoint(loc.File, int(loc.Line)) {
		h.debugger.ShowCurrentLocation(loc.File, int(loc.Line))
		h.debugger.RunDebugger()
	}
}

func (h *EvalDebugHook) OnException(err *runtime.RuntimeError) {
	h.TraceHooks.OnException(err)
	h.debugger.state = Paused
}

func (h *EvalDebugHook) OnCall(target value.Value, loc runtime.SourceLocation) {
	h.TraceHooks.OnCall(target, loc)
}
