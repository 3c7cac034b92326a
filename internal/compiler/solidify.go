// Package compiler turns a parsed program into the Rod structures
// internal/eval drives (spec.md §6.1, "compiler to IR handoff"). The
// teacher's own compiler walked its AST into a discrete bytecode Chunk
// (internal/bytecode, deleted — see DESIGN.md); this port keeps the same
// visitor-pattern walk but solidifies straight into rod.Node closures
// instead of emitting opcodes, since the target machine is a Rod, not a
// stack VM.
package compiler

import (
	"fmt"
	"math"
	"strings"

	"asteria/internal/eval"
	"asteria/internal/parser"
	"asteria/internal/rod"
	"asteria/internal/runtime"
	"asteria/internal/value"
)

// exprFn is a solidified expression: it evaluates to a Reference rather
// than a bare Value, so the result can still be assigned through (an
// Assign expression, an index chain) without a separate "lvalue" AST.
type exprFn func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError)

// Solidifier implements both parser.ExprVisitor and parser.StmtVisitor,
// lowering the teacher's AST directly into rod.Node / exprFn closures. A
// single instance solidifies one compilation unit (one file or one REPL
// chunk); compileBlock is re-entered for every nested function body, so
// currentFuncName is saved/restored around each one rather than living on
// a fresh Solidifier.
type Solidifier struct {
	file            string
	currentFuncName string
}

// NewSolidifier creates a Solidifier attached to file (used only for the
// SourceLocation.File field — see loc's doc comment for the line/column
// limitation this port carries).
func NewSolidifier(file string) *Solidifier {
	return &Solidifier{file: file}
}

// Solidify compiles a parsed program into a runnable eval.Program. The
// parser itself (kept from the teacher) already collects lexical and
// syntactic Diagnostics into Parser.Errors before Solidify ever runs;
// Solidify's own Diagnostic return is reserved for faults the solidifier
// detects that the parser's grammar can't catch (e.g. a future static
// pass over break/continue nesting) and is nil for every statement kind
// implemented today.
func Solidify(file string, stmts []parser.Stmt) (*eval.Program, *Diagnostic) {
	s := NewSolidifier(file)
	body := rod.NewRod()
	for _, st := range stmts {
		body.Append(s.compileStmt(st))
	}
	return &eval.Program{Body: body.Finalize()}, nil
}

// loc produces the SourceLocation attached to every compiled node.
// The teacher's lexer.Token carries a Line (scanner.go), but the parser
// never threads it down onto the AST nodes this solidifier walks — only
// onto the syntax errors it raises itself (errors.NewSyntaxError). Adding
// per-node position tracking would mean changing every Expr/Stmt struct
// in internal/parser, which this pass treats as a kept-as-is dependency
// rather than a rewrite target (see DESIGN.md). Every solidified node
// therefore carries only the file name, with Line/Column left at zero; a
// RuntimeError's backtrace is consequently file-accurate but not
// line-accurate until the parser itself is extended.
func (s *Solidifier) loc() runtime.SourceLocation {
	return runtime.SourceLocation{File: s.file}
}

func (s *Solidifier) compileExpr(e parser.Expr) exprFn {
	return e.Accept(s).(exprFn)
}

func (s *Solidifier) compileStmt(st parser.Stmt) rod.Node {
	return st.Accept(s).(rod.Node)
}

func (s *Solidifier) compileBlock(stmts []parser.Stmt) *rod.Rod {
	r := rod.NewRod()
	for _, st := range stmts {
		r.Append(s.compileStmt(st))
	}
	return r.Finalize()
}

// compileTailExpr solidifies an expression in syntactic tail position of
// a `return` (spec.md §4.4): a bare call compiles to a PTC sentinel via
// eval.TailCall instead of being performed here, and a conditional
// expression propagates tail position into whichever arm is taken — this
// is what lets `return (n==0) ? 0 : c(n-1);` tail-call through the `?:`
// without growing the Go stack. Every other expression kind falls back to
// ordinary evaluation, since nothing else in this grammar can appear in
// tail position without itself bottoming out at a call or a literal.
func (s *Solidifier) compileTailExpr(e parser.Expr) exprFn {
	switch v := e.(type) {
	case *parser.CallExpr:
		return s.compileTailCall(v)
	case *parser.IfExpr:
		condFn := s.compileExpr(v.Cond)
		thenFn := s.compileTailExpr(v.ThenBranch)
		var elseFn exprFn
		if v.ElseBranch != nil {
			elseFn = s.compileTailExpr(v.ElseBranch)
		}
		return func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
			cref, err := condFn(ctx)
			if err != nil {
				return runtime.Reference{}, err
			}
			cval, err := cref.ReadOnly()
			if err != nil {
				return runtime.Reference{}, err
			}
			if cval.Truthy() {
				return thenFn(ctx)
			}
			if elseFn != nil {
				return elseFn(ctx)
			}
			return runtime.VoidRef(), nil
		}
	default:
		return s.compileExpr(e)
	}
}

// callSite is what a CallExpr solidifies to before eval.Call/eval.TailCall
// is chosen: the target function Value, the call's receiver (bound to
// __this, spec.md §4.4), and the evaluated argument References.
type callSite func(ctx *runtime.Context) (target, self value.Value, args []runtime.Reference, err *runtime.RuntimeError)

func (s *Solidifier) compileCallSite(e *parser.CallExpr) callSite {
	argFns := make([]exprFn, len(e.Args))
	for i, a := range e.Args {
		argFns[i] = s.compileExpr(a)
	}
	evalArgs := func(ctx *runtime.Context) ([]runtime.Reference, *runtime.RuntimeError) {
		args := make([]runtime.Reference, len(argFns))
		for i, af := range argFns {
			aref, aerr := af(ctx)
			if aerr != nil {
				return nil, aerr
			}
			args[i] = aref
		}
		return args, nil
	}

	if prop, ok := e.Callee.(*parser.PropertyExpr); ok {
		objFn := s.compileExpr(prop.Object)
		propName := prop.Property
		return func(ctx *runtime.Context) (value.Value, value.Value, []runtime.Reference, *runtime.RuntimeError) {
			objRef, err := objFn(ctx)
			if err != nil {
				return value.Null, value.Null, nil, err
			}
			objVal, err := objRef.ReadOnly()
			if err != nil {
				return value.Null, value.Null, nil, err
			}
			if objVal.Kind() != value.Object {
				return value.Null, value.Null, nil, runtime.Format("cannot call property `%s` on %s", propName, objVal.TypeName())
			}
			target, ok := objVal.AsObject().Get(propName)
			if !ok {
				return value.Null, value.Null, nil, runtime.Format("undefined property `%s`", propName)
			}
			args, aerr := evalArgs(ctx)
			if aerr != nil {
				return value.Null, value.Null, nil, aerr
			}
			return target, objVal, args, nil
		}
	}

	calleeFn := s.compileExpr(e.Callee)
	return func(ctx *runtime.Context) (value.Value, value.Value, []runtime.Reference, *runtime.RuntimeError) {
		calleeRef, err := calleeFn(ctx)
		if err != nil {
			return value.Null, value.Null, nil, err
		}
		target, err := calleeRef.ReadOnly()
		if err != nil {
			return value.Null, value.Null, nil, err
		}
		args, aerr := evalArgs(ctx)
		if aerr != nil {
			return value.Null, value.Null, nil, aerr
		}
		return target, value.Null, args, nil
	}
}

func (s *Solidifier) compileTailCall(e *parser.CallExpr) exprFn {
	site := s.compileCallSite(e)
	loc := s.loc()
	name := s.currentFuncName
	return func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		target, self, args, err := site(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		defers := ctx.TakeScopeDefers()
		return eval.TailCall(target, self, args, loc, name, defers), nil
	}
}

func subscriptFromValue(v value.Value) (value.Subscript, *runtime.RuntimeError) {
	switch v.Kind() {
	case value.Integer:
		return value.IndexSubscript(v.AsInteger()), nil
	case value.String:
		return value.KeySubscript(v.AsString().String()), nil
	default:
		return value.Subscript{}, runtime.Format("invalid subscript of kind %s", v.TypeName())
	}
}

// goToValue maps a parser.Literal's Go-native payload onto a Value. The
// teacher's scanner/parser never distinguish an integer literal from a
// real one (parser.go's primary() always parses TokenNumber via
// fmt.Sscanf into a float64) even though spec.md's Value union keeps
// Integer and Real as separate kinds; this port infers Integer for any
// literal that round-trips exactly through truncation and fits int64,
// Real otherwise — a documented heuristic (see DESIGN.md), not a
// limitation of the Value union itself.
func goToValue(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null
	case bool:
		return value.NewBoolean(t)
	case float64:
		if !math.IsInf(t, 0) && !math.IsNaN(t) && t == math.Trunc(t) &&
			t >= -9223372036854775808.0 && t <= 9223372036854775807.0 {
			return value.NewInteger(int64(t))
		}
		return value.NewReal(t)
	case string:
		return value.NewString(t)
	default:
		return value.Null
	}
}

// exprBody adapts a single solidified expression (a lambda's `=> expr`
// body) to runtime.Executable, so InstantiatedFunction.Invoke can run it
// exactly as it runs a multi-statement Rod.
type exprBody struct{ fn exprFn }

func (b exprBody) Execute(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
	return b.fn(ctx)
}

// ---- Expressions ----

func (s *Solidifier) VisitLiteralExpr(e *parser.Literal) interface{} {
	v := goToValue(e.Value)
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		return runtime.TempRef(v), nil
	}
	return fn
}

func (s *Solidifier) VisitVariableExpr(e *parser.Variable) interface{} {
	name := e.Name
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		v, _, ok := ctx.Lookup(name)
		if !ok {
			return runtime.Reference{}, runtime.Format("undeclared identifier `%s`", name)
		}
		return runtime.VariableRef(v), nil
	}
	return fn
}

func (s *Solidifier) VisitAssignExpr(e *parser.Assign) interface{} {
	valFn := s.compileExpr(e.Value)
	name := e.Name
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		v, _, ok := ctx.Lookup(name)
		if !ok {
			return runtime.Reference{}, runtime.Format("undeclared identifier `%s`", name)
		}
		ref, err := valFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		val, err := ref.Copy()
		if err != nil {
			return runtime.Reference{}, err
		}
		slot, merr := runtime.VariableRef(v).Mutable()
		if merr != nil {
			return runtime.Reference{}, merr
		}
		slot.Set(val)
		return runtime.VariableRef(v), nil
	}
	return fn
}

func (s *Solidifier) VisitCallExpr(e *parser.CallExpr) interface{} {
	site := s.compileCallSite(e)
	loc := s.loc()
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		target, self, args, err := site(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		return eval.Call(ctx.Global(), target, self, args, loc)
	}
	return fn
}

func (s *Solidifier) VisitIfExpr(e *parser.IfExpr) interface{} {
	condFn := s.compileExpr(e.Cond)
	thenFn := s.compileExpr(e.ThenBranch)
	var elseFn exprFn
	if e.ElseBranch != nil {
		elseFn = s.compileExpr(e.ElseBranch)
	}
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		cref, err := condFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		cval, err := cref.ReadOnly()
		if err != nil {
			return runtime.Reference{}, err
		}
		if cval.Truthy() {
			return thenFn(ctx)
		}
		if elseFn != nil {
			return elseFn(ctx)
		}
		return runtime.VoidRef(), nil
	}
	return fn
}

// VisitBlockExpr solidifies a brace block used in expression position (an
// `if` expression's arms, or a bare `{ ... }` expression): its statements
// run in a fresh nested scope and its value is its last statement's
// expression, if the last statement is an ExpressionStmt, else void.
//
// Limitation (documented in DESIGN.md): a `return`/`break`/`continue`
// reached directly inside a block used this way exits only the
// statements already executed in this helper, not the enclosing function
// or loop — exprFn's signature carries a Reference, not a Status, so a
// block-expression's non-local exits don't propagate further. Every
// spec.md scenario's tail position (the `?:` conditional) never nests a
// BlockExpr between the `return` and its call, so this never affects the
// PTC path; it would only matter for an explicit `return` written inside
// an `if`-as-expression's brace arm, which this grammar allows but this
// solidifier does not fully thread through.
func (s *Solidifier) VisitBlockExpr(e *parser.BlockExpr) interface{} {
	n := len(e.Stmts)
	nodes := make([]rod.Node, 0, n)
	var lastExprFn exprFn
	for i, st := range e.Stmts {
		if i == n-1 {
			if es, ok := st.(*parser.ExpressionStmt); ok {
				lastExprFn = s.compileExpr(es.Expr)
				continue
			}
		}
		nodes = append(nodes, s.compileStmt(st))
	}
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		blockCtx := runtime.NewPlainContext(ctx)
		for i := range nodes {
			if _, err := nodes[i].Exec(blockCtx); err != nil {
				return runtime.Reference{}, err
			}
		}
		if lastExprFn != nil {
			return lastExprFn(blockCtx)
		}
		return runtime.VoidRef(), nil
	}
	return fn
}

func (s *Solidifier) VisitArrayExpr(e *parser.ArrayExpr) interface{} {
	elemFns := make([]exprFn, len(e.Elements))
	for i, el := range e.Elements {
		elemFns[i] = s.compileExpr(el)
	}
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		elems := make([]value.Value, len(elemFns))
		for i, ef := range elemFns {
			ref, err := ef(ctx)
			if err != nil {
				return runtime.Reference{}, err
			}
			v, err := ref.Copy()
			if err != nil {
				return runtime.Reference{}, err
			}
			elems[i] = v
		}
		ad := value.NewArrayData(elems)
		ad.Retain()
		return runtime.TempRef(value.NewArray(ad)), nil
	}
	return fn
}

func (s *Solidifier) VisitMapExpr(e *parser.MapExpr) interface{} {
	keyFns := make([]exprFn, len(e.Keys))
	valFns := make([]exprFn, len(e.Values))
	for i := range e.Keys {
		keyFns[i] = s.compileExpr(e.Keys[i])
		valFns[i] = s.compileExpr(e.Values[i])
	}
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		od := value.NewObjectData()
		od.Retain()
		for i := range keyFns {
			kref, err := keyFns[i](ctx)
			if err != nil {
				return runtime.Reference{}, err
			}
			kval, err := kref.ReadOnly()
			if err != nil {
				return runtime.Reference{}, err
			}
			vref, err := valFns[i](ctx)
			if err != nil {
				return runtime.Reference{}, err
			}
			vval, err := vref.Copy()
			if err != nil {
				return runtime.Reference{}, err
			}
			od.Set(value.ToDisplayString(kval), vval)
		}
		return runtime.TempRef(value.NewObject(od)), nil
	}
	return fn
}

func (s *Solidifier) VisitIndexExpr(e *parser.IndexExpr) interface{} {
	objFn := s.compileExpr(e.Object)
	idxFn := s.compileExpr(e.Index)
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		objRef, err := objFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		idxRef, err := idxFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		idxVal, err := idxRef.ReadOnly()
		if err != nil {
			return runtime.Reference{}, err
		}
		sub, serr := subscriptFromValue(idxVal)
		if serr != nil {
			return runtime.Reference{}, serr
		}
		return objRef.WithSubscript(sub), nil
	}
	return fn
}

func (s *Solidifier) VisitSetIndexExpr(e *parser.SetIndexExpr) interface{} {
	objFn := s.compileExpr(e.Object)
	idxFn := s.compileExpr(e.Index)
	valFn := s.compileExpr(e.Value)
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		objRef, err := objFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		idxRef, err := idxFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		idxVal, err := idxRef.ReadOnly()
		if err != nil {
			return runtime.Reference{}, err
		}
		sub, serr := subscriptFromValue(idxVal)
		if serr != nil {
			return runtime.Reference{}, serr
		}
		full := objRef.WithSubscript(sub)
		vref, err := valFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		val, err := vref.Copy()
		if err != nil {
			return runtime.Reference{}, err
		}
		slot, merr := full.Mutable()
		if merr != nil {
			return runtime.Reference{}, merr
		}
		slot.Set(val)
		return runtime.TempRef(val), nil
	}
	return fn
}

func (s *Solidifier) VisitUnaryExpr(e *parser.UnaryExpr) interface{} {
	opFn := s.compileExpr(e.Operand)
	op := e.Operator
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		ref, err := opFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		val, err := ref.ReadOnly()
		if err != nil {
			return runtime.Reference{}, err
		}
		res, err := eval.UnaryOp(op, val)
		if err != nil {
			return runtime.Reference{}, err
		}
		return runtime.TempRef(res), nil
	}
	return fn
}

func (s *Solidifier) VisitBinaryExpr(e *parser.Binary) interface{} {
	lFn := s.compileExpr(e.Left)
	rFn := s.compileExpr(e.Right)
	op := e.Operator
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		lref, err := lFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		lval, err := lref.ReadOnly()
		if err != nil {
			return runtime.Reference{}, err
		}
		rref, err := rFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		rval, err := rref.ReadOnly()
		if err != nil {
			return runtime.Reference{}, err
		}
		res, err := eval.BinaryOp(op, lval, rval)
		if err != nil {
			return runtime.Reference{}, err
		}
		return runtime.TempRef(res), nil
	}
	return fn
}

func (s *Solidifier) VisitLogicalExpr(e *parser.LogicalExpr) interface{} {
	lFn := s.compileExpr(e.Left)
	rFn := s.compileExpr(e.Right)
	isAnd := e.Operator == "&&"
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		lref, err := lFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		lval, err := lref.ReadOnly()
		if err != nil {
			return runtime.Reference{}, err
		}
		if isAnd != lval.Truthy() {
			// && short-circuits on falsy, || short-circuits on truthy.
			return runtime.TempRef(lval), nil
		}
		rref, err := rFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		rval, err := rref.ReadOnly()
		if err != nil {
			return runtime.Reference{}, err
		}
		return runtime.TempRef(rval), nil
	}
	return fn
}

func (s *Solidifier) VisitInterpolationExpr(e *parser.InterpolationExpr) interface{} {
	partFns := make([]exprFn, len(e.Parts))
	for i, p := range e.Parts {
		partFns[i] = s.compileExpr(p)
	}
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		var sb strings.Builder
		for _, pf := range partFns {
			ref, err := pf(ctx)
			if err != nil {
				return runtime.Reference{}, err
			}
			val, err := ref.ReadOnly()
			if err != nil {
				return runtime.Reference{}, err
			}
			sb.WriteString(value.ToDisplayString(val))
		}
		return runtime.TempRef(value.NewString(sb.String())), nil
	}
	return fn
}

func (s *Solidifier) VisitLambdaExpr(e *parser.LambdaExpr) interface{} {
	prev := s.currentFuncName
	s.currentFuncName = "<lambda>"
	bodyFn := s.compileTailExpr(e.Body)
	s.currentFuncName = prev
	params := append([]string(nil), e.Params...)
	loc := s.loc()
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		inst := &runtime.InstantiatedFunction{
			ParamNames: params,
			Variadic:   true,
			Closure:    ctx,
			Body:       exprBody{fn: bodyFn},
			Loc:        loc,
		}
		return runtime.TempRef(value.NewFunction(value.NewFunctionData(inst.Describe(), inst))), nil
	}
	return fn
}

func (s *Solidifier) VisitPropertyExpr(e *parser.PropertyExpr) interface{} {
	objFn := s.compileExpr(e.Object)
	key := e.Property
	var fn exprFn = func(ctx *runtime.Context) (runtime.Reference, *runtime.RuntimeError) {
		objRef, err := objFn(ctx)
		if err != nil {
			return runtime.Reference{}, err
		}
		return objRef.WithSubscript(value.KeySubscript(key)), nil
	}
	return fn
}

// ---- Statements ----

func (s *Solidifier) VisitPrintStmt(st *parser.PrintStmt) interface{} {
	valFn := s.compileExpr(st.Expr)
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		ref, err := valFn(ctx)
		if err != nil {
			return rod.StepResult{}, err
		}
		val, err := ref.ReadOnly()
		if err != nil {
			return rod.StepResult{}, err
		}
		fmt.Println(value.ToDisplayString(val))
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

func (s *Solidifier) VisitLetStmt(st *parser.LetStmt) interface{} {
	valFn := s.compileExpr(st.Expr)
	name := st.Name
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		ref, err := valFn(ctx)
		if err != nil {
			return rod.StepResult{}, err
		}
		val, err := ref.Copy()
		if err != nil {
			return rod.StepResult{}, err
		}
		v, derr := ctx.Declare(name, false)
		if derr != nil {
			return rod.StepResult{}, runtime.Format("%s", derr)
		}
		v.Initialize(val)
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

func (s *Solidifier) VisitAssignmentStmt(st *parser.AssignmentStmt) interface{} {
	valFn := s.compileExpr(st.Value)
	name := st.Name
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		v, _, ok := ctx.Lookup(name)
		if !ok {
			return rod.StepResult{}, runtime.Format("undeclared identifier `%s`", name)
		}
		ref, err := valFn(ctx)
		if err != nil {
			return rod.StepResult{}, err
		}
		val, err := ref.Copy()
		if err != nil {
			return rod.StepResult{}, err
		}
		slot, merr := runtime.VariableRef(v).Mutable()
		if merr != nil {
			return rod.StepResult{}, merr
		}
		slot.Set(val)
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

func (s *Solidifier) VisitIndexAssignmentStmt(st *parser.IndexAssignmentStmt) interface{} {
	objFn := s.compileExpr(st.Object)
	idxFn := s.compileExpr(st.Index)
	valFn := s.compileExpr(st.Value)
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		objRef, err := objFn(ctx)
		if err != nil {
			return rod.StepResult{}, err
		}
		idxRef, err := idxFn(ctx)
		if err != nil {
			return rod.StepResult{}, err
		}
		idxVal, err := idxRef.ReadOnly()
		if err != nil {
			return rod.StepResult{}, err
		}
		sub, serr := subscriptFromValue(idxVal)
		if serr != nil {
			return rod.StepResult{}, serr
		}
		full := objRef.WithSubscript(sub)
		vref, err := valFn(ctx)
		if err != nil {
			return rod.StepResult{}, err
		}
		val, err := vref.Copy()
		if err != nil {
			return rod.StepResult{}, err
		}
		slot, merr := full.Mutable()
		if merr != nil {
			return rod.StepResult{}, merr
		}
		slot.Set(val)
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

func (s *Solidifier) VisitExpressionStmt(st *parser.ExpressionStmt) interface{} {
	valFn := s.compileExpr(st.Expr)
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		if _, err := valFn(ctx); err != nil {
			return rod.StepResult{}, err
		}
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

func (s *Solidifier) VisitFunctionStmt(st *parser.FunctionStmt) interface{} {
	prev := s.currentFuncName
	s.currentFuncName = st.Name
	bodyRod := s.compileBlock(st.Body)
	s.currentFuncName = prev
	params := append([]string(nil), st.Params...)
	name := st.Name
	loc := s.loc()
	return rod.Node{Loc: loc, Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		v, derr := ctx.Declare(name, true)
		if derr != nil {
			return rod.StepResult{}, runtime.Format("%s", derr)
		}
		inst := &runtime.InstantiatedFunction{
			Name:       name,
			ParamNames: params,
			Variadic:   true,
			Closure:    ctx,
			Body:       bodyRod,
			Loc:        loc,
		}
		v.Initialize(value.NewFunction(value.NewFunctionData(inst.Describe(), inst)))
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

func (s *Solidifier) VisitReturnStmt(st *parser.ReturnStmt) interface{} {
	if st.Value == nil {
		return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
			return rod.StepResult{Status: rod.StatusReturnVoid}, nil
		}}
	}
	valFn := s.compileTailExpr(st.Value)
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		ref, err := valFn(ctx)
		if err != nil {
			return rod.StepResult{}, err
		}
		return rod.StepResult{Status: rod.StatusReturnRef, Value: ref}, nil
	}}
}

func (s *Solidifier) VisitIfStmt(st *parser.IfStmt) interface{} {
	condFn := s.compileExpr(st.Condition)
	thenRod := s.compileBlock(st.Then)
	var elseRod *rod.Rod
	if len(st.Else) > 0 {
		elseRod = s.compileBlock(st.Else)
	}
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		cref, err := condFn(ctx)
		if err != nil {
			return rod.StepResult{}, err
		}
		cval, err := cref.ReadOnly()
		if err != nil {
			return rod.StepResult{}, err
		}
		if cval.Truthy() {
			return thenRod.Step(runtime.NewPlainContext(ctx))
		}
		if elseRod != nil {
			return elseRod.Step(runtime.NewPlainContext(ctx))
		}
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

func (s *Solidifier) VisitWhileStmt(st *parser.WhileStmt) interface{} {
	condFn := s.compileExpr(st.Condition)
	bodyRod := s.compileBlock(st.Body)
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		for {
			cref, err := condFn(ctx)
			if err != nil {
				return rod.StepResult{}, err
			}
			cval, err := cref.ReadOnly()
			if err != nil {
				return rod.StepResult{}, err
			}
			if !cval.Truthy() {
				break
			}
			res, err := bodyRod.Step(runtime.NewPlainContext(ctx))
			if err != nil {
				return rod.StepResult{}, err
			}
			switch res.Status {
			case rod.StatusBreakUnlabeled:
				return rod.StepResult{Status: rod.StatusNext}, nil
			case rod.StatusContinueUnlabeled:
				continue
			case rod.StatusReturnVoid, rod.StatusReturnRef:
				return res, nil
			}
		}
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

func (s *Solidifier) VisitForStmt(st *parser.ForStmt) interface{} {
	var initNode *rod.Node
	if st.Init != nil {
		n := s.compileStmt(st.Init)
		initNode = &n
	}
	var condFn exprFn
	if st.Condition != nil {
		condFn = s.compileExpr(st.Condition)
	}
	var updateNode *rod.Node
	if st.Update != nil {
		n := s.compileStmt(st.Update)
		updateNode = &n
	}
	bodyRod := s.compileBlock(st.Body)
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		loopCtx := runtime.NewPlainContext(ctx)
		if initNode != nil {
			if _, err := initNode.Exec(loopCtx); err != nil {
				return rod.StepResult{}, err
			}
		}
		for {
			if condFn != nil {
				cref, err := condFn(loopCtx)
				if err != nil {
					return rod.StepResult{}, err
				}
				cval, err := cref.ReadOnly()
				if err != nil {
					return rod.StepResult{}, err
				}
				if !cval.Truthy() {
					break
				}
			}
			res, err := bodyRod.Step(runtime.NewPlainContext(loopCtx))
			if err != nil {
				return rod.StepResult{}, err
			}
			switch res.Status {
			case rod.StatusBreakUnlabeled:
				return rod.StepResult{Status: rod.StatusNext}, nil
			case rod.StatusReturnVoid, rod.StatusReturnRef:
				return res, nil
			}
			if updateNode != nil {
				if _, err := updateNode.Exec(loopCtx); err != nil {
					return rod.StepResult{}, err
				}
			}
		}
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

func (s *Solidifier) VisitForInStmt(st *parser.ForInStmt) interface{} {
	collFn := s.compileExpr(st.Collection)
	bodyRod := s.compileBlock(st.Body)
	varName := st.Variable
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		cref, err := collFn(ctx)
		if err != nil {
			return rod.StepResult{}, err
		}
		cval, err := cref.ReadOnly()
		if err != nil {
			return rod.StepResult{}, err
		}
		var items []value.Value
		switch cval.Kind() {
		case value.Array:
			items = cval.AsArray().Elements
		case value.Object:
			od := cval.AsObject()
			for _, k := range od.Keys() {
				items = append(items, value.NewString(k))
			}
		default:
			return rod.StepResult{}, runtime.Format("cannot iterate over %s", cval.TypeName())
		}
		for _, item := range items {
			iterCtx := runtime.NewPlainContext(ctx)
			v, derr := iterCtx.Declare(varName, false)
			if derr != nil {
				return rod.StepResult{}, runtime.Format("%s", derr)
			}
			v.Initialize(item)
			res, err := bodyRod.Step(iterCtx)
			if err != nil {
				return rod.StepResult{}, err
			}
			switch res.Status {
			case rod.StatusBreakUnlabeled:
				return rod.StepResult{Status: rod.StatusNext}, nil
			case rod.StatusContinueUnlabeled:
				continue
			case rod.StatusReturnVoid, rod.StatusReturnRef:
				return res, nil
			}
		}
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

func (s *Solidifier) VisitBreakStmt(st *parser.BreakStmt) interface{} {
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		return rod.StepResult{Status: rod.StatusBreakUnlabeled}, nil
	}}
}

func (s *Solidifier) VisitContinueStmt(st *parser.ContinueStmt) interface{} {
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		return rod.StepResult{Status: rod.StatusContinueUnlabeled}, nil
	}}
}

func (s *Solidifier) VisitImportStmt(st *parser.ImportStmt) interface{} {
	path := st.Path
	name := st.Alias
	if name == "" {
		name = path
	}
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		mod, merr := ctx.Global().ImportModule(path)
		if merr != nil {
			return rod.StepResult{}, runtime.Format("%s", merr)
		}
		v, derr := ctx.Declare(name, true)
		if derr != nil {
			return rod.StepResult{}, runtime.Format("%s", derr)
		}
		v.Initialize(mod)
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

// VisitExportStmt solidifies the wrapped declaration unchanged: this
// grammar's `export` marks a top-level binding for the module loader
// (internal/packages) to expose, but that exposure is decided by which
// names the Global Context ends up holding after a module file runs, not
// by anything the solidifier needs to special-case at the declaration
// site itself.
func (s *Solidifier) VisitExportStmt(st *parser.ExportStmt) interface{} {
	return s.compileStmt(st.Stmt)
}

// VisitClassStmt solidifies a class declaration into an Object value
// carrying its methods as bound functions and its fields defaulted to
// null. Single-level only: Superclass is recorded as a string for
// introspection, but method resolution does not walk it — multiple
// inheritance / MRO is out of scope for this pass (see DESIGN.md).
func (s *Solidifier) VisitClassStmt(st *parser.ClassStmt) interface{} {
	name := st.Name
	superclass := st.Superclass
	fields := append([]string(nil), st.Fields...)

	type compiledMethod struct {
		name   string
		params []string
		body   *rod.Rod
	}
	methods := make([]compiledMethod, len(st.Methods))
	for i, m := range st.Methods {
		prev := s.currentFuncName
		s.currentFuncName = name + "." + m.Name
		methods[i] = compiledMethod{
			name:   m.Name,
			params: append([]string(nil), m.Params...),
			body:   s.compileBlock(m.Body),
		}
		s.currentFuncName = prev
	}
	loc := s.loc()
	return rod.Node{Loc: loc, Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		od := value.NewObjectData()
		od.Retain()
		od.Set("__name__", value.NewString(name))
		if superclass != "" {
			od.Set("__superclass__", value.NewString(superclass))
		}
		for _, f := range fields {
			od.Set(f, value.Null)
		}
		for _, m := range methods {
			inst := &runtime.InstantiatedFunction{
				Name:       name + "." + m.name,
				ParamNames: m.params,
				Variadic:   true,
				Closure:    ctx,
				Body:       m.body,
				Loc:        loc,
			}
			od.Set(m.name, value.NewFunction(value.NewFunctionData(inst.Describe(), inst)))
		}
		v, derr := ctx.Declare(name, true)
		if derr != nil {
			return rod.StepResult{}, runtime.Format("%s", derr)
		}
		v.Initialize(value.NewObject(od))
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

// VisitTryStmt solidifies try/catch/finally (spec.md §7's local recovery
// rule): a caught error gets a `try` frame and is reported to the hook
// bus via OnException (so a driver can inspect the full backtrace even
// though the script itself only sees the payload), then a `catch` frame
// marks entry into the handler — matching spec.md §8 scenario 1's exact
// frame ordering.
func (s *Solidifier) VisitTryStmt(st *parser.TryStmt) interface{} {
	tryRod := s.compileBlock(st.TryBlock)
	catchVar := st.CatchVar
	var catchRod *rod.Rod
	if len(st.CatchBlock) > 0 {
		catchRod = s.compileBlock(st.CatchBlock)
	}
	var finallyRod *rod.Rod
	if len(st.FinallyBlock) > 0 {
		finallyRod = s.compileBlock(st.FinallyBlock)
	}
	loc := s.loc()
	return rod.Node{Loc: loc, Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		res, err := tryRod.Step(runtime.NewPlainContext(ctx))
		if err != nil {
			err.PushFrame(runtime.Frame{Kind: runtime.FrameTry, Loc: loc})
			ctx.Global().Hooks.OnException(err)
			if catchRod == nil {
				if finallyRod != nil {
					if _, ferr := finallyRod.Step(runtime.NewPlainContext(ctx)); ferr != nil {
						return rod.StepResult{}, ferr
					}
				}
				return rod.StepResult{}, err
			}
			catchCtx := runtime.NewPlainContext(ctx)
			if catchVar != "" {
				v, derr := catchCtx.Declare(catchVar, false)
				if derr != nil {
					return rod.StepResult{}, runtime.Format("%s", derr)
				}
				v.Initialize(err.Value())
			}
			err.PushFrame(runtime.Frame{Kind: runtime.FrameCatch, Loc: loc})
			cres, cerr := catchRod.Step(catchCtx)
			if finallyRod != nil {
				if _, ferr := finallyRod.Step(runtime.NewPlainContext(ctx)); ferr != nil {
					return rod.StepResult{}, ferr
				}
			}
			if cerr != nil {
				return rod.StepResult{}, cerr
			}
			return cres, nil
		}
		if finallyRod != nil {
			fres, ferr := finallyRod.Step(runtime.NewPlainContext(ctx))
			if ferr != nil {
				return rod.StepResult{}, ferr
			}
			if fres.Status != rod.StatusNext {
				return fres, nil
			}
		}
		return res, nil
	}}
}

func (s *Solidifier) VisitThrowStmt(st *parser.ThrowStmt) interface{} {
	valFn := s.compileExpr(st.Value)
	loc := s.loc()
	return rod.Node{Loc: loc, Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		ref, err := valFn(ctx)
		if err != nil {
			return rod.StepResult{}, err
		}
		val, err := ref.ReadOnly()
		if err != nil {
			return rod.StepResult{}, err
		}
		return rod.StepResult{}, runtime.Throw(val, loc)
	}}
}

// VisitDeferStmt registers st's block on the nearest enclosing function
// (or global) scope's defer list (§4.5) rather than running it inline;
// Context.PushDefer walks outward to find that scope, so a defer inside
// a nested if/loop block still attaches to the right place.
func (s *Solidifier) VisitDeferStmt(st *parser.DeferStmt) interface{} {
	blockRod := s.compileBlock(st.Block)
	loc := s.loc()
	return rod.Node{Loc: loc, Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		ctx.PushDefer(runtime.Deferred{
			Loc: loc,
			Run: func() *runtime.RuntimeError {
				_, err := blockRod.Step(runtime.NewPlainContext(ctx))
				return err
			},
		})
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}

// VisitMatchStmt solidifies `match`/case dispatch via value equality
// (§4's comparison rules) against each case's evaluated pattern
// expression, in order; no wildcard/binding-pattern syntax is exposed by
// this grammar, so pattern matching here is exact-value dispatch, not
// structural destructuring.
func (s *Solidifier) VisitMatchStmt(st *parser.MatchStmt) interface{} {
	valFn := s.compileExpr(st.Value)
	type compiledCase struct {
		patFn exprFn
		body  *rod.Rod
	}
	cases := make([]compiledCase, len(st.Cases))
	for i, c := range st.Cases {
		cases[i] = compiledCase{patFn: s.compileExpr(c.Pattern), body: s.compileBlock(c.Body)}
	}
	return rod.Node{Loc: s.loc(), Exec: func(ctx *runtime.Context) (rod.StepResult, *runtime.RuntimeError) {
		vref, err := valFn(ctx)
		if err != nil {
			return rod.StepResult{}, err
		}
		vval, err := vref.ReadOnly()
		if err != nil {
			return rod.StepResult{}, err
		}
		for _, c := range cases {
			pref, perr := c.patFn(ctx)
			if perr != nil {
				return rod.StepResult{}, perr
			}
			pval, perr := pref.ReadOnly()
			if perr != nil {
				return rod.StepResult{}, perr
			}
			if value.Equal(vval, pval) {
				return c.body.Step(runtime.NewPlainContext(ctx))
			}
		}
		return rod.StepResult{Status: rod.StatusNext}, nil
	}}
}
