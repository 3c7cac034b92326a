package compiler

import (
	"testing"

	"asteria/internal/eval"
	"asteria/internal/lexer"
	"asteria/internal/parser"
	"asteria/internal/runtime"
	"asteria/internal/value"
)

// runScript parses, solidifies and runs src against a fresh Global
// Context, the same pipeline cmd/asteria's `run` command and the REPL
// drive a script through.
func runScript(t *testing.T, src string) (value.Value, *runtime.RuntimeError) {
	t.Helper()
	scanner := lexer.NewScanner(src)
	tokens := scanner.ScanTokens()
	p := parser.NewParserWithSource(tokens, src, "<test>")
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("parse error: %v", p.Errors[0])
	}
	prog, diag := Solidify("<test>", stmts)
	if diag != nil {
		t.Fatalf("compile error: %s", diag.Message)
	}
	g := runtime.NewGlobalContext(1)
	return eval.Run(g, prog)
}

func mustRun(t *testing.T, src string) value.Value {
	t.Helper()
	v, err := runScript(t, src)
	if err != nil {
		t.Fatalf("script failed: %s", err.Error())
	}
	return v
}

func TestArithmeticPrecedence(t *testing.T) {
	v := mustRun(t, "return 2 + 3 * 4")
	if v.Kind() != value.Integer || v.AsInteger() != 14 {
		t.Fatalf("got %s", value.ToDisplayString(v))
	}
}

func TestIntegerDivisionByZero(t *testing.T) {
	_, err := runScript(t, "return 1 / 0")
	if err == nil {
		t.Fatal("expected division-by-zero error")
	}
}

func TestIfElseBranching(t *testing.T) {
	tests := []struct {
		src  string
		want int64
	}{
		{"let x = 5\nif x > 3 { return 1 }\nreturn 0", 1},
		{"let x = 2\nif x > 3 { return 1 }\nreturn 0", 0},
		{"let x = 2\nif x > 3 { return 1 } else { return 2 }", 2},
	}
	for _, tt := range tests {
		v := mustRun(t, tt.src)
		if v.AsInteger() != tt.want {
			t.Errorf("src %q: got %s, want %d", tt.src, value.ToDisplayString(v), tt.want)
		}
	}
}

func TestWhileLoopAccumulation(t *testing.T) {
	src := `
let i = 0
let sum = 0
while i < 10 {
	sum = sum + i
	i = i + 1
}
return sum
`
	v := mustRun(t, src)
	if v.AsInteger() != 45 {
		t.Fatalf("got %s, want 45", value.ToDisplayString(v))
	}
}

func TestWhileBreakAndContinue(t *testing.T) {
	// break at 5, continue skipping evens: sum of 1,3 = 4
	src := `
let i = 0
let sum = 0
while i < 10 {
	i = i + 1
	if i >= 5 {
		break
	}
	if i - (i / 2) * 2 == 0 {
		continue
	}
	sum = sum + i
}
return sum
`
	v := mustRun(t, src)
	if v.AsInteger() != 4 {
		t.Fatalf("got %s, want 4", value.ToDisplayString(v))
	}
}

func TestCStyleForLoop(t *testing.T) {
	src := `
let sum = 0
for (let i = 0; i < 5; i = i + 1) {
	sum = sum + i
}
return sum
`
	v := mustRun(t, src)
	if v.AsInteger() != 10 {
		t.Fatalf("got %s, want 10", value.ToDisplayString(v))
	}
}

func TestForInOverArray(t *testing.T) {
	src := `
let sum = 0
for x in [1, 2, 3, 4] {
	sum = sum + x
}
return sum
`
	v := mustRun(t, src)
	if v.AsInteger() != 10 {
		t.Fatalf("got %s, want 10", value.ToDisplayString(v))
	}
}

func TestFunctionCallAndRecursion(t *testing.T) {
	src := `
fn fib(n) {
	if n < 2 {
		return n
	}
	return fib(n - 1) + fib(n - 2)
}
return fib(10)
`
	v := mustRun(t, src)
	if v.AsInteger() != 55 {
		t.Fatalf("got %s, want 55", value.ToDisplayString(v))
	}
}

// TestProperTailCallDepth exercises the PTC Unwrap loop (spec.md §4.4):
// a tail-recursive accumulator of enough depth to blow any Go stack that
// actually recursed natively, run entirely through Unwrap's iterative
// loop instead.
func TestProperTailCallDepth(t *testing.T) {
	src := `
fn sumTo(n, acc) {
	if n <= 0 {
		return acc
	}
	return sumTo(n - 1, acc + n)
}
return sumTo(100000, 0)
`
	v := mustRun(t, src)
	if v.AsInteger() != 5000050000 {
		t.Fatalf("got %s, want 5000050000", value.ToDisplayString(v))
	}
}

func TestClosureCapturesEnclosingScope(t *testing.T) {
	src := `
fn makeAdder(x) {
	return fn(y) => x + y
}
let add5 = makeAdder(5)
return add5(10)
`
	v := mustRun(t, src)
	if v.AsInteger() != 15 {
		t.Fatalf("got %s, want 15", value.ToDisplayString(v))
	}
}

func TestArrayAndObjectLiterals(t *testing.T) {
	src := `
let arr = [1, 2, 3]
let obj = {"a": 1, "b": 2}
return arr[1] + obj["b"]
`
	v := mustRun(t, src)
	if v.AsInteger() != 4 {
		t.Fatalf("got %s, want 4", value.ToDisplayString(v))
	}
}

func TestStringConcatenation(t *testing.T) {
	src := `
let a = "hello"
let b = "world"
return a + b
`
	v := mustRun(t, src)
	if v.Kind() != value.String || v.AsString().String() != "helloworld" {
		t.Fatalf("got %s", value.ToDisplayString(v))
	}
}

// TestDeferRunsOnNormalReturn exercises §4.5: defers registered inside a
// function body run, most-recently-registered first, when the function
// returns normally (not via a tail call).
func TestDeferRunsOnNormalReturn(t *testing.T) {
	src := `
let trace = ""
fn run() {
	defer { trace = trace + "1" }
	defer { trace = trace + "2" }
	return 0
}
run()
return trace
`
	v := mustRun(t, src)
	if v.AsString().String() != "21" {
		t.Fatalf("got %q, want \"21\" (LIFO defer order)", v.AsString().String())
	}
}

// TestDeferRunsAcrossTailCall exercises §4.5's tail-call interaction
// rule: a defer registered in a scope that then returns via a tail call
// must still run once the whole PTC chain resolves, even though the
// scope that registered it has already returned its own Go frame.
func TestDeferRunsAcrossTailCall(t *testing.T) {
	src := `
let trace = ""
fn inner() {
	trace = trace + "inner"
	return 0
}
fn outer() {
	defer { trace = trace + "-deferred" }
	return inner()
}
outer()
return trace
`
	v := mustRun(t, src)
	if v.AsString().String() != "inner-deferred" {
		t.Fatalf("got %q, want \"inner-deferred\"", v.AsString().String())
	}
}

func TestUndeclaredIdentifierIsError(t *testing.T) {
	_, err := runScript(t, "return doesNotExist")
	if err == nil {
		t.Fatal("expected undeclared-identifier error")
	}
}

func TestImmutableArithmeticDoesNotMutateSharedArray(t *testing.T) {
	// Array literals are copy-on-read (runtime.Reference.Copy) when bound
	// by `let`, so two `let`-bound names never alias the same ArrayData.
	src := `
let a = [1, 2, 3]
let b = a
return a[0]
`
	v := mustRun(t, src)
	if v.AsInteger() != 1 {
		t.Fatalf("got %s, want 1", value.ToDisplayString(v))
	}
}
