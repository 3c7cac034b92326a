// Package rod implements the AVM Rod (spec.md §3.6): the linear,
// already-resolved representation a compiled function body executes
// from. Each Node is one record: an executor, plus the metadata the
// spec's header layout carries alongside it — a source location for
// backtraces, and (rarely) a destructor or GC tracer for a node that
// captured heap state at compile time.
//
// The original implementation packs records into one contiguous byte
// buffer with two header shapes (direct: operands inline; indirect: a
// pointer to a separately-allocated operand block) so the interpreter
// never fetches heap-allocated closures for primitive steps. Go has
// no portable way to lay out "variable-length struct in a byte slice"
// without unsafe tricks that would fight the language rather than fit
// it, so this port keeps the two-shape distinction as a descriptive
// Kind tag on an ordinary Node struct — a Direct node's Exec closure
// embeds its operands directly (as captured locals); an Indirect node's
// Exec instead dispatches into one or more nested Rods (an if's
// branches, a loop's body, a function's body), recorded in Children
// purely so tooling (the debugger, a disassembler) can walk the
// structure without re-deriving it from closures.
package rod

import (
	"asteria/internal/memory"
	"asteria/internal/runtime"
)

// NodeKind tags the two header shapes of §3.6.
type NodeKind uint8

const (
	NodeDirect NodeKind = iota
	NodeIndirect
)

// Status is the evaluator's status register (§4.1): what a node handed
// control back for, beyond "ran fine, keep going".
type Status int

const (
	StatusNext Status = iota
	StatusReturnVoid
	StatusReturnRef
	StatusBreakUnlabeled
	StatusContinueUnlabeled
)

// StepResult is what executing one Node (or one Rod) yields.
type StepResult struct {
	Status Status
	Value  runtime.Reference
}

var nextResult = StepResult{Status: StatusNext}

// Executor is a single compiled step: an expression evaluation, a
// statement, or a control-construct dispatcher.
type Executor func(ctx *runtime.Context) (StepResult, *runtime.RuntimeError)

// Node is one AVM Rod record.
type Node struct {
	Kind     NodeKind
	Loc      runtime.SourceLocation
	Exec     Executor
	Children []*Rod // non-nil only for NodeIndirect, for introspection

	// Dtor and Tracer are rarely populated: a node that closed over a
	// heap Variable at compile time (a hoisted constant referencing
	// mutable state) can supply a Tracer so the GC still sees it, and a
	// Dtor to release any non-GC resource the node privately owns.
	Dtor   func()
	Tracer func(visit func(*memory.Variable))
}

// Rod is a finalized sequence of Nodes — one function body, or one
// nested block within it.
type Rod struct {
	Nodes     []Node
	finalized bool
}

func NewRod() *Rod { return &Rod{} }

// Append adds a node to a Rod still under construction. Per §3.6, a Rod
// becomes immutable once Finalize is called; Append after that is a
// host bug (the compiler finished emitting before reading its own
// output), so it panics rather than silently corrupting an already-live
// function body.
func (r *Rod) Append(n Node) {
	if r.finalized {
		panic("rod: Append after Finalize")
	}
	r.Nodes = append(r.Nodes, n)
}

// Finalize locks the Rod against further mutation.
func (r *Rod) Finalize() *Rod {
	r.finalized = true
	return r
}

// Step runs every node in order, stopping at the first non-Next status
// or the end of the sequence (§4.1's step rule).
func (r *Rod) Step(ctx *runtime.Context) (StepResult, *runtime.RuntimeError) {
	for i := range r.Nodes {
		ctx.Global().Hooks.OnSingleStepTrap(r.Nodes[i].Loc)
		res, err := r.Nodes[i].Exec(ctx)
		if err != nil {
			return StepResult{}, err
		}
		if res.Status != StatusNext {
			return res, nil
		}
	}
	return nextResult, nil
}

// Execute implements runtime.Executable, letting a Rod back an
// InstantiatedFunction's body directly: a function that falls off the
// end of its Rod without an explicit return yields void, matching
// ordinary block semantics.
func (r *Rod) Execute(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
	res, err := r.Step(ctx)
	if err != nil {
		return runtime.Reference{}, err
	}
	switch res.Status {
	case StatusReturnRef:
		return res.Value, nil
	case StatusBreakUnlabeled:
		return runtime.Reference{}, runtime.Format("stray `break`")
	case StatusContinueUnlabeled:
		return runtime.Reference{}, runtime.Format("stray `continue`")
	default:
		return runtime.VoidRef(), nil
	}
}

// TraceVariables implements memory.Tracer for the rare Rod that holds
// nodes with their own Tracer.
func (r *Rod) TraceVariables(visit func(*memory.Variable)) {
	for _, n := range r.Nodes {
		if n.Tracer != nil {
			n.Tracer(visit)
		}
	}
}
