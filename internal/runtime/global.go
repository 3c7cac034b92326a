package runtime

import (
	"math/rand"

	"asteria/internal/memory"
	"asteria/internal/value"
)

// ModuleLoader resolves an `import` path to the module's exported
// object, for the Global Context's module cache (§4.3, §9's packages
// discussion). internal/packages supplies the filesystem-backed
// implementation; a Global Context used purely for expression evaluation
// (the REPL's single-line mode) can leave this nil.
type ModuleLoader interface {
	Load(path string) (value.Value, error)
}

// GlobalContext is the outermost scope of a running script (§4.3): it
// owns the heap, the hook bus, the module loader and cache, and the
// top-level name bindings (both user declarations and registered
// natives, e.g. the std.* library surface).
type GlobalContext struct {
	*Context

	Heap   *memory.Heap
	Hooks  Hooks
	Loader ModuleLoader
	Rand   *rand.Rand

	moduleCache map[string]value.Value
}

// NewGlobalContext creates a fresh top-level scope over a new Heap.
// randSeed seeds the Global Context's RNG, used for std.rand and for any
// random-pick subscript that omits an explicit seed.
func NewGlobalContext(randSeed int64) *GlobalContext {
	g := &GlobalContext{
		Heap:        memory.NewHeap(0, 0),
		Hooks:       NopHooks{},
		Rand:        rand.New(rand.NewSource(randSeed)),
		moduleCache: make(map[string]value.Value),
	}
	g.Context = newContext(ContextGlobal, nil, g)
	g.Heap.AddRoot(g.Context)
	return g
}

// RegisterNative declares name as an immutable global bound to fn —
// the entry point std.* library tables use to install themselves.
func (g *GlobalContext) RegisterNative(name string, fn *value.FunctionData) {
	v, err := g.Declare(name, true)
	if err != nil {
		// A library registering the same name twice is a host bug, not a
		// script error; overwrite rather than panic so load order never
		// matters between std modules.
		v, _, _ = g.Lookup(name)
	}
	v.Initialize(value.NewFunction(fn))
}

// ImportModule resolves path through the Loader, caching the result for
// the lifetime of this Global Context (re-import returns the same
// object, matching the original implementation's single-evaluation
// module semantics).
func (g *GlobalContext) ImportModule(path string) (value.Value, error) {
	if v, ok := g.moduleCache[path]; ok {
		return v, nil
	}
	if g.Loader == nil {
		return value.Null, Format("no module loader configured")
	}
	v, err := g.Loader.Load(path)
	if err != nil {
		return value.Null, err
	}
	g.moduleCache[path] = v
	return v, nil
}
