// Package hooks supplies the concrete Abstract_Hooks driver (spec.md
// §7.5) that the CLI's --trace flag and the debugger attach to a Global
// Context. runtime.NopHooks is the silent default; TraceHooks is the
// observable one.
//
// Grounded on sentra/internal/debugger/vm_hook.go's VMDebugHook, which
// hooked sentra's EnhancedVM at each bytecode instruction. That VM and
// its DebugHook interface are gone along with the bytecode chunk they
// drove; this port re-grounds the same call-stack-tracking idea on
// runtime.Hooks, the interface the new Evaluator actually calls.
package hooks

import (
	"fmt"
	"io"
	"os"

	"asteria/internal/memory"
	"asteria/internal/runtime"
	"asteria/internal/value"
)

// Frame is one entry of TraceHooks' own call stack view, rebuilt from
// OnFunctionEnter/OnFunctionLeave pairs rather than borrowed from
// RuntimeError's backtrace (which only exists once something throws).
type Frame struct {
	Target value.Value
	Loc    runtime.SourceLocation
}

// TraceHooks prints a line for every call, return, function enter/leave,
// declaration, single-step trap, and exception to Out — the mechanism
// backing `asteria run --trace`. It also keeps a live call stack a
// debugger front-end can inspect (CallStack) without re-deriving it from
// a RuntimeError, since most trap points have no exception in flight.
type TraceHooks struct {
	Out   io.Writer
	stack []Frame
}

// NewTraceHooks creates a TraceHooks writing to os.Stderr, matching
// --trace's existing convention of keeping script stdout (the `print`
// statement's own destination) separate from diagnostic trace output.
func NewTraceHooks() *TraceHooks {
	return &TraceHooks{Out: os.Stderr}
}

var _ runtime.Hooks = (*TraceHooks)(nil)

func (h *TraceHooks) OnCall(target value.Value, loc runtime.SourceLocation) {
	fmt.Fprintf(h.Out, "call %s at %s\n", value.ToDisplayString(target), loc)
}

func (h *TraceHooks) OnReturn(result value.Value) {
	fmt.Fprintf(h.Out, "return %s\n", value.ToDisplayString(result))
}

func (h *TraceHooks) OnFunctionEnter(ctx *runtime.Context) {
	h.stack = append(h.stack, Frame{})
	fmt.Fprintf(h.Out, "enter (depth %d)\n", len(h.stack))
}

func (h *TraceHooks) OnFunctionLeave(ctx *runtime.Context) {
	if len(h.stack) > 0 {
		h.stack = h.stack[:len(h.stack)-1]
	}
	fmt.Fprintf(h.Out, "leave (depth %d)\n", len(h.stack))
}

func (h *TraceHooks) OnVariableDeclare(name string, v *memory.Variable) {
	fmt.Fprintf(h.Out, "declare %s\n", name)
}

// OnSingleStepTrap fires once per top-level Rod node (SPEC_FULL.md's
// debugger section); since solidify.go does not yet stamp real
// Line/Column values onto SourceLocation (see its loc doc comment), a
// breakpoint keyed on file:line can only match at file granularity until
// the parser threads position info down onto the AST.
func (h *TraceHooks) OnSingleStepTrap(loc runtime.SourceLocation) {
	fmt.Fprintf(h.Out, "step %s\n", loc)
}

func (h *TraceHooks) OnException(err *runtime.RuntimeError) {
	fmt.Fprintf(h.Out, "exception: %s\n", err.Error())
	for _, f := range err.Frames() {
		fmt.Fprintf(h.Out, "  at %s (%s)\n", f.Loc, f.Kind)
	}
}

// Depth reports the current call stack depth, for a driver (the
// debugger's `where` command) that wants it without walking Frames.
func (h *TraceHooks) Depth() int { return len(h.stack) }
