// script_loader.go adapts this package's import-path resolution (the
// teacher's local/stdlib/remote search order — resolver.go's
// resolveLocalImport et al.) to the new Evaluator: a FileLoader runs the
// imported file to completion in its own Global Context sharing the
// importer's heap and hooks, then exposes every name that file declared
// at its own top level as the imported module's object.
//
// Superseded sibling: resolver.go's loadExports/loadStdlibExports walked
// the teacher's interface{}-valued VM exports; that path is gone along
// with the VM, but resolveLocalImport's path search (relative, then each
// of getDefaultSearchPaths) is kept and reused here unchanged.
package packages

import (
	"os"
	"path/filepath"

	"asteria/internal/compiler"
	"asteria/internal/eval"
	"asteria/internal/lexer"
	"asteria/internal/parser"
	"asteria/internal/runtime"
	"asteria/internal/value"
)

// FileLoader implements runtime.ModuleLoader by resolving path to a
// local .sn file and running it as a script.
type FileLoader struct {
	searchPaths []string
}

// NewFileLoader creates a loader searching the working directory first,
// then the teacher-derived default search paths (std library location,
// vendor directory, GOPATH-style module cache).
func NewFileLoader() *FileLoader {
	return &FileLoader{searchPaths: getDefaultSearchPaths()}
}

func (l *FileLoader) resolve(path string) (string, error) {
	candidates := []string{path, path + ".sn"}
	for _, base := range append([]string{"."}, l.searchPaths...) {
		for _, c := range candidates {
			full := filepath.Join(base, c)
			if _, err := os.Stat(full); err == nil {
				return full, nil
			}
		}
	}
	return "", os.ErrNotExist
}

// Load resolves, compiles, and runs path's file in a fresh module-scoped
// Global Context, then returns an object carrying every name the module
// declared at its own top level — `import "mymod"` then sees those as
// `mymod.<name>` via ordinary property access.
func (l *FileLoader) Load(path string) (value.Value, error) {
	full, err := l.resolve(path)
	if err != nil {
		return value.Null, err
	}
	src, err := os.ReadFile(full)
	if err != nil {
		return value.Null, err
	}

	scanner := lexer.NewScanner(string(src))
	tokens := scanner.ScanTokens()
	p := parser.NewParserWithSource(tokens, string(src), full)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		return value.Null, p.Errors[0]
	}

	prog, diag := compiler.Solidify(full, stmts)
	if diag != nil {
		return value.Null, diag
	}

	mg := runtime.NewGlobalContext(0)
	mg.Loader = l
	if _, rerr := eval.Run(mg, prog); rerr != nil {
		return value.Null, rerr
	}

	od := value.NewObjectData()
	od.Retain()
	for _, name := range mg.Context.OwnNames() {
		v, _, ok := mg.Context.Lookup(name)
		if !ok || !v.Initialized() {
			continue
		}
		od.Set(name, v.Get())
	}
	return value.NewObject(od), nil
}
