package runtime

import (
	"asteria/internal/memory"
	"asteria/internal/value"
)

// Hooks is the Abstract_Hooks bus of §7.5: a Global Context carries one,
// and the evaluator calls it at every observable point (a function call,
// a return, a scope entry/exit, a declaration, a single-step trap, an
// exception). internal/hooks provides the concrete driver-facing
// implementation (the debugger and the CLI's --trace flag); scripts
// running without either attach NopHooks.
type Hooks interface {
	OnCall(target value.Value, loc SourceLocation)
	OnReturn(result value.Value)
	OnFunctionEnter(ctx *Context)
	OnFunctionLeave(ctx *Context)
	OnVariableDeclare(name string, v *memory.Variable)
	OnSingleStepTrap(loc SourceLocation)
	OnException(err *RuntimeError)
}

// NopHooks is the default Hooks implementation: every method is a no-op.
type NopHooks struct{}

func (NopHooks) OnCall(value.Value, SourceLocation)         {}
func (NopHooks) OnReturn(value.Value)                       {}
func (NopHooks) OnFunctionEnter(*Context)                    {}
func (NopHooks) OnFunctionLeave(*Context)                    {}
func (NopHooks) OnVariableDeclare(string, *memory.Variable)  {}
func (NopHooks) OnSingleStepTrap(SourceLocation)             {}
func (NopHooks) OnException(*RuntimeError)                   {}
