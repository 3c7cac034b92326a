package rod

import (
	"testing"

	"asteria/internal/runtime"
)

func newTestCtx() *runtime.Context {
	g := runtime.NewGlobalContext(1)
	return g.Context
}

func nodeAt(loc runtime.SourceLocation, exec Executor) Node {
	return Node{Kind: NodeDirect, Loc: loc, Exec: exec}
}

func TestStepRunsAllNodesToCompletion(t *testing.T) {
	var ran []int
	r := NewRod()
	for i := 0; i < 3; i++ {
		i := i
		r.Append(nodeAt(runtime.SourceLocation{}, func(ctx *runtime.Context) (StepResult, *runtime.RuntimeError) {
			ran = append(ran, i)
			return StepResult{Status: StatusNext}, nil
		}))
	}
	r.Finalize()

	res, err := r.Step(newTestCtx())
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if res.Status != StatusNext {
		t.Fatalf("falling off the end should yield StatusNext, got %v", res.Status)
	}
	if len(ran) != 3 || ran[0] != 0 || ran[1] != 1 || ran[2] != 2 {
		t.Fatalf("expected all 3 nodes to run in order, got %v", ran)
	}
}

func TestStepStopsAtFirstNonNextStatus(t *testing.T) {
	var ran []int
	r := NewRod()
	r.Append(nodeAt(runtime.SourceLocation{}, func(ctx *runtime.Context) (StepResult, *runtime.RuntimeError) {
		ran = append(ran, 0)
		return StepResult{Status: StatusBreakUnlabeled}, nil
	}))
	r.Append(nodeAt(runtime.SourceLocation{}, func(ctx *runtime.Context) (StepResult, *runtime.RuntimeError) {
		ran = append(ran, 1)
		return StepResult{Status: StatusNext}, nil
	}))
	r.Finalize()

	res, err := r.Step(newTestCtx())
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if res.Status != StatusBreakUnlabeled {
		t.Fatalf("Step should surface the first non-Next status, got %v", res.Status)
	}
	if len(ran) != 1 {
		t.Fatalf("the second node should never run once the first breaks, ran = %v", ran)
	}
}

func TestStepStopsAtFirstError(t *testing.T) {
	var ranSecond bool
	r := NewRod()
	r.Append(nodeAt(runtime.SourceLocation{}, func(ctx *runtime.Context) (StepResult, *runtime.RuntimeError) {
		return StepResult{}, runtime.Format("boom")
	}))
	r.Append(nodeAt(runtime.SourceLocation{}, func(ctx *runtime.Context) (StepResult, *runtime.RuntimeError) {
		ranSecond = true
		return StepResult{Status: StatusNext}, nil
	}))
	r.Finalize()

	_, err := r.Step(newTestCtx())
	if err == nil {
		t.Fatal("expected the first node's error to propagate")
	}
	if ranSecond {
		t.Fatal("a node after a failing one should never execute")
	}
}

func TestExecuteTranslatesStatusToOutcome(t *testing.T) {
	tests := []struct {
		name       string
		status     Status
		wantVoid   bool
		wantErr    bool
	}{
		{"falls off the end", StatusNext, true, false},
		{"explicit return value", StatusReturnRef, false, false},
		{"stray break", StatusBreakUnlabeled, false, true},
		{"stray continue", StatusContinueUnlabeled, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRod()
			r.Append(nodeAt(runtime.SourceLocation{}, func(ctx *runtime.Context) (StepResult, *runtime.RuntimeError) {
				return StepResult{Status: tt.status, Value: runtime.VoidRef()}, nil
			}))
			r.Finalize()

			ref, err := r.Execute(newTestCtx())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if tt.wantVoid && ref.Kind() != runtime.RefVoid {
				t.Fatalf("expected a void reference, got kind %v", ref.Kind())
			}
		})
	}
}

func TestAppendAfterFinalizePanics(t *testing.T) {
	r := NewRod()
	r.Finalize()
	defer func() {
		if recover() == nil {
			t.Fatal("Append after Finalize should panic")
		}
	}()
	r.Append(nodeAt(runtime.SourceLocation{}, func(ctx *runtime.Context) (StepResult, *runtime.RuntimeError) {
		return StepResult{Status: StatusNext}, nil
	}))
}

func TestStepFiresSingleStepTrapPerNode(t *testing.T) {
	var traps []runtime.SourceLocation
	g := runtime.NewGlobalContext(1)
	g.Hooks = trapRecorder{record: func(loc runtime.SourceLocation) { traps = append(traps, loc) }}

	r := NewRod()
	locA := runtime.SourceLocation{File: "a.ast", Line: 1}
	locB := runtime.SourceLocation{File: "a.ast", Line: 2}
	r.Append(nodeAt(locA, func(ctx *runtime.Context) (StepResult, *runtime.RuntimeError) {
		return StepResult{Status: StatusNext}, nil
	}))
	r.Append(nodeAt(locB, func(ctx *runtime.Context) (StepResult, *runtime.RuntimeError) {
		return StepResult{Status: StatusNext}, nil
	}))
	r.Finalize()

	if _, err := r.Step(g.Context); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(traps) != 2 || traps[0] != locA || traps[1] != locB {
		t.Fatalf("expected OnSingleStepTrap fired once per node with its Loc, got %v", traps)
	}
}

// trapRecorder is a minimal runtime.Hooks implementation that only
// overrides OnSingleStepTrap, embedding NopHooks for every other method.
type trapRecorder struct {
	runtime.NopHooks
	record func(runtime.SourceLocation)
}

func (r trapRecorder) OnSingleStepTrap(loc runtime.SourceLocation) { r.record(loc) }
