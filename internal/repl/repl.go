// internal/repl/repl.go
package repl

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"asteria/internal/compiler"
	"asteria/internal/eval"
	"asteria/internal/lexer"
	"asteria/internal/parser"
	"asteria/internal/runtime"
	"asteria/internal/value"
)

// Start runs an interactive read-eval-print loop over one persistent
// runtime.GlobalContext, so a `let` bound on one line is still visible
// on the next — the REPL's one departure from a script file's one-shot
// Solidify+Run, since each line is its own compilation unit re-solidified
// against the same Global Context rather than accumulated into one Rod.
func Start() {
	fmt.Println("Asteria REPL | type 'exit' to quit")
	scanner := bufio.NewScanner(os.Stdin)
	g := runtime.NewGlobalContext(time.Now().UnixNano())

	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}
		if line == "" {
			continue
		}

		lex := lexer.NewScanner(line)
		tokens := lex.ScanTokens()
		p := parser.NewParserWithSource(tokens, line, "<repl>")
		stmts := p.Parse()
		if len(p.Errors) > 0 {
			for _, e := range p.Errors {
				fmt.Fprintln(os.Stderr, e)
			}
			continue
		}

		prog, diag := compiler.Solidify("<repl>", stmts)
		if diag != nil {
			fmt.Fprintln(os.Stderr, diag.Message)
			continue
		}

		result, rerr := eval.Run(g, prog)
		if rerr != nil {
			fmt.Fprintln(os.Stderr, rerr.Error())
			continue
		}
		if !result.IsNull() {
			fmt.Println(value.ToDisplayString(result))
		}
	}
}
