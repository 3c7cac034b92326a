package runtime

import (
	"asteria/internal/memory"
	"asteria/internal/value"
)

// ContextKind tags the four executive context flavors of §4.3 (Analytic
// contexts exist only in the compiler and have no runtime counterpart).
type ContextKind uint8

const (
	ContextPlain ContextKind = iota
	ContextFunction
	ContextDefer
	ContextGlobal
)

// Deferred is one registration made by a `defer` statement (§4.5): Run
// executes the deferred statement block and returns any exception it
// raises. Loc is the defer statement's own source location, attached to
// the FrameDefer backtrace entry if Run's execution throws.
type Deferred struct {
	Loc SourceLocation
	Run func() *RuntimeError
}

// Context is one lexical scope's runtime frame: a name→Variable map plus
// a link to its enclosing scope. Function scopes additionally own the
// lazily-bound magic names (`__this`, `__func`, `__varg`) and the active
// defer list described by §4.5.
type Context struct {
	kind   ContextKind
	parent *Context
	global *GlobalContext

	names []string
	vars  map[string]*memory.Variable

	// ContextFunction only.
	thisVar, funcVar, vargVar *memory.Variable
	thisVal, funcVal, vargVal value.Value
	thisSet, funcSet, vargSet bool

	// ContextDefer (and, transitively, the nearest enclosing
	// ContextFunction) accumulates deferred statements in LIFO order.
	defers []Deferred
}

func newContext(kind ContextKind, parent *Context, global *GlobalContext) *Context {
	return &Context{kind: kind, parent: parent, global: global, vars: make(map[string]*memory.Variable)}
}

func NewPlainContext(parent *Context) *Context {
	return newContext(ContextPlain, parent, parent.global)
}

func NewFunctionContext(parent *Context) *Context {
	return newContext(ContextFunction, parent, parent.global)
}

func NewDeferContext(parent *Context) *Context {
	return newContext(ContextDefer, parent, parent.global)
}

func (c *Context) Kind() ContextKind { return c.kind }

func (c *Context) Parent() *Context { return c.parent }

func (c *Context) Global() *GlobalContext { return c.global }

// OwnNames returns the names declared directly in this scope, in
// declaration order — used by the module loader to collect a script's
// top-level bindings into the object a script importing it sees.
func (c *Context) OwnNames() []string { return append([]string(nil), c.names...) }

// Declare binds name to a freshly allocated Variable in this scope. A
// redeclaration in the same scope is an error; shadowing an outer
// scope's name is not.
func (c *Context) Declare(name string, immutable bool) (*memory.Variable, error) {
	if _, exists := c.vars[name]; exists {
		return nil, Format("redeclaration of identifier `%s`", name)
	}
	v := c.global.Heap.NewUninitialized(immutable)
	c.vars[name] = v
	c.names = append(c.names, name)
	c.global.Hooks.OnVariableDeclare(name, v)
	return v, nil
}

// Lookup resolves a name by walking outward from c to the Global
// Context, returning the Variable and the context that owns it.
func (c *Context) Lookup(name string) (*memory.Variable, *Context, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		switch name {
		case "__this":
			if cur.kind == ContextFunction && cur.thisSet {
				return cur.thisVar, cur, true
			}
		case "__func":
			if cur.kind == ContextFunction && cur.funcSet {
				return cur.funcVar, cur, true
			}
		case "__varg":
			if cur.kind == ContextFunction && cur.vargSet {
				return cur.vargVar, cur, true
			}
		}
		if v, ok := cur.vars[name]; ok {
			return v, cur, true
		}
	}
	return nil, nil, false
}

// BindMagic lazily materializes one of a function context's magic names
// on first reference (§4.4): `__this` (the call's `this` argument),
// `__func` (the callee's own Function value, for recursion without a
// name), and `__varg` (a Variadic Arguer bound to the trailing variadic
// arguments).
func (c *Context) BindMagic(name string, v value.Value) {
	nv := c.global.Heap.NewInitialized(v, true)
	switch name {
	case "__this":
		c.thisVar, c.thisVal, c.thisSet = nv, v, true
	case "__func":
		c.funcVar, c.funcVal, c.funcSet = nv, v, true
	case "__varg":
		c.vargVar, c.vargVal, c.vargSet = nv, v, true
	}
}

// PushDefer registers d on the nearest enclosing function scope's defer
// list, innermost-first (LIFO at scope exit, per §4.5). A defer outside
// any function body attaches to the Global Context itself, running when
// the top-level program finishes (RunProgram drains it the same way
// Invoke drains a function's).
func (c *Context) PushDefer(d Deferred) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.kind == ContextFunction || cur.kind == ContextGlobal {
			cur.defers = append(cur.defers, d)
			return
		}
	}
}

// TakeDefers returns this (function) context's deferred list in the
// order they must run (most-recently-registered first) and clears it —
// used both by ordinary scope-exit unwinding and by the PTC protocol,
// which instead splices the list onto the pending call's PTCArguments
// (§4.5's "tail-call interaction" rule).
func (c *Context) TakeDefers() []Deferred {
	out := make([]Deferred, len(c.defers))
	for i, d := range c.defers {
		out[len(c.defers)-1-i] = d
	}
	c.defers = nil
	return out
}

// RunOwnDefers drains this (function) context's defer list and runs it
// in order, annotating any in-flight exception's backtrace as each
// defer executes. Called once a function body returns normally; a body
// that instead returns via a tail call never reaches this — its defers
// were already spliced onto the pending PTCArguments by the compiled
// tail-return node (ptc.go's runCapturedDefers runs them once the whole
// chain resolves instead).
func (c *Context) RunOwnDefers(propagating *RuntimeError) *RuntimeError {
	for _, d := range c.TakeDefers() {
		if propagating != nil {
			propagating.PushFrame(Frame{Kind: FrameDefer, Loc: d.Loc})
		}
		if derr := d.Run(); derr != nil {
			propagating = derr
		}
	}
	return propagating
}

// TakeScopeDefers walks outward from c to the nearest ContextFunction or
// ContextGlobal and drains its defer list exactly as TakeDefers does. A
// compiled tail-return node calls this (not TakeDefers directly) because
// the Context it executes in is often a nested block or loop scope, not
// the function/global scope the defers actually live on.
func (c *Context) TakeScopeDefers() []Deferred {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.kind == ContextFunction || cur.kind == ContextGlobal {
			return cur.TakeDefers()
		}
	}
	return nil
}

// GCRoots implements memory.RootProvider: every Variable declared
// (directly or via a magic name) anywhere in this scope chain is live.
func (c *Context) GCRoots(visit func(*memory.Variable)) {
	for cur := c; cur != nil; cur = cur.parent {
		for _, v := range cur.vars {
			visit(v)
		}
		if cur.thisSet {
			visit(cur.thisVar)
		}
		if cur.funcSet {
			visit(cur.funcVar)
		}
		if cur.vargSet {
			visit(cur.vargVar)
		}
	}
}
