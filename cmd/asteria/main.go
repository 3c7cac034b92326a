// cmd/asteria/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"asteria/internal/compiler"
	"asteria/internal/debugger"
	"asteria/internal/eval"
	"asteria/internal/formatter"
	"asteria/internal/hooks"
	"asteria/internal/lexer"
	"asteria/internal/packages"
	"asteria/internal/parser"
	"asteria/internal/repl"
	"asteria/internal/runtime"
	"asteria/internal/stdlib"
)

const Version = "0.1.0"

var commandAliases = map[string]string{
	"r": "run",
	"i": "repl",
	"t": "test",
	"d": "debug",
	"c": "check",
	"f": "fmt",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Printf("asteria %s\n", Version)
	case "run":
		if len(args) < 2 {
			log.Fatal("usage: asteria run <file.ast>")
		}
		runFile(args[1])
	case "repl":
		repl.Start()
	case "debug":
		if len(args) < 2 {
			log.Fatal("usage: asteria debug <file.ast>")
		}
		debugFile(args[1])
	case "test":
		runTests(args[1:])
	case "check":
		if len(args) < 2 {
			log.Fatal("usage: asteria check <file.ast>")
		}
		checkSyntax(args[1])
	case "fmt":
		if len(args) < 2 {
			log.Fatal("usage: asteria fmt <file.ast>")
		}
		formatCode(args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

// newGlobalContext builds a Global Context with the standard library
// registered and a file-backed module loader, ready to run a script.
func newGlobalContext() *runtime.GlobalContext {
	g := runtime.NewGlobalContext(time.Now().UnixNano())
	g.Loader = packages.NewFileLoader()
	stdlib.RegisterDB(g)
	stdlib.RegisterTest(g)
	return g
}

func parseFile(filename string) ([]parser.Stmt, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read file: %w", err)
	}
	scanner := lexer.NewScanner(string(source))
	tokens := scanner.ScanTokens()
	p := parser.NewParserWithSource(tokens, string(source), filename)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		return nil, p.Errors[0]
	}
	return stmts, nil
}

func runFile(filename string) {
	stmts, err := parseFile(filename)
	if err != nil {
		log.Fatalf("parse error: %v", err)
	}
	prog, diag := compiler.Solidify(filename, stmts)
	if diag != nil {
		log.Fatalf("compile error: %s", diag.Message)
	}
	g := newGlobalContext()
	if _, rerr := eval.Run(g, prog); rerr != nil {
		fmt.Fprintln(os.Stderr, rerr.Error())
		for _, f := range rerr.Frames() {
			fmt.Fprintf(os.Stderr, "  at %s (%s)\n", f.Loc, f.Kind)
		}
		os.Exit(1)
	}
}

func debugFile(filename string) {
	stmts, err := parseFile(filename)
	if err != nil {
		log.Fatalf("parse error: %v", err)
	}
	prog, diag := compiler.Solidify(filename, stmts)
	if diag != nil {
		log.Fatalf("compile error: %s", diag.Message)
	}

	source, _ := os.ReadFile(filename)
	d := debugger.NewDebugger()
	d.LoadSourceFile(filename, string(source))

	g := newGlobalContext()
	g.Hooks = d.Attach()

	fmt.Printf("Starting asteria debugger for: %s\n", filename)
	fmt.Println("The program will start paused. Type 'help' for commands.")
	d.SetState(debugger.Paused)
	d.RunDebugger()

	if _, rerr := eval.Run(g, prog); rerr != nil {
		fmt.Fprintln(os.Stderr, rerr.Error())
		os.Exit(1)
	}
	fmt.Println("\nProgram execution completed")
}

func checkSyntax(filename string) {
	if _, err := parseFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: syntax is valid\n", filename)
}

func formatCode(filename string) {
	stmts, err := parseFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot format file with syntax errors: %v\n", err)
		os.Exit(1)
	}
	f := formatter.NewFormatter()
	formatted := f.Format(stmts)
	if err := os.WriteFile(filename, []byte(formatted), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing formatted file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: formatted successfully\n", filename)
}

// runTests runs every *_test.ast file matching the given glob patterns
// (or every one under the working directory when none are given),
// printing std.test.summary's own report at the end of each file.
func runTests(patterns []string) {
	var files []string
	if len(patterns) == 0 {
		matches, _ := filepath.Glob("*_test.ast")
		files = matches
	} else {
		for _, pat := range patterns {
			matches, err := filepath.Glob(pat)
			if err != nil {
				log.Fatalf("error finding test files: %v", err)
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		fmt.Println("no test files found (looking for *_test.ast)")
		return
	}

	failures := 0
	for _, file := range files {
		fmt.Printf("\n--- %s ---\n", file)
		stmts, err := parseFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse error in %s: %v\n", file, err)
			failures++
			continue
		}
		prog, diag := compiler.Solidify(file, stmts)
		if diag != nil {
			fmt.Fprintf(os.Stderr, "compile error in %s: %s\n", file, diag.Message)
			failures++
			continue
		}
		g := newGlobalContext()
		if _, rerr := eval.Run(g, prog); rerr != nil {
			fmt.Fprintf(os.Stderr, "error running %s: %s\n", file, rerr.Error())
			failures++
		}
	}
	if failures > 0 {
		fmt.Fprintf(os.Stderr, "\n%d/%d test file(s) failed\n", failures, len(files))
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(strings.TrimSpace(`
asteria - an embeddable scripting-language runtime

Usage:
  asteria run <file>     Run a script
  asteria repl           Start an interactive REPL
  asteria debug <file>   Run a script under the interactive debugger
  asteria test [globs]   Run *_test.ast files
  asteria check <file>   Check a script for syntax errors
  asteria fmt <file>     Reformat a script in place
  asteria version        Print the version
  asteria help           Show this message
`))
}
