// Command vesper is the interpreter driver of spec.md §6.1: given no
// arguments it runs an interactive REPL; given one argument it runs
// that file and exits 65 on a parse/static error or 70 on a runtime
// error.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"vesper"
)

var (
	errColor  = color.New(color.FgRed)
	replColor = color.New(color.FgHiBlack)
)

func main() {
	flag.Parse()
	args := flag.Args()

	switch len(args) {
	case 0:
		runREPL()
	case 1:
		os.Exit(runFile(args[0]))
	default:
		fmt.Fprintln(os.Stderr, "usage: vesper [script]")
		os.Exit(64)
	}
}

// runFile implements spec.md §6.1's "interp <file>" shape.
func runFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		errColor.Fprintf(os.Stderr, "%s\n", err)
		return 74
	}

	it := vesper.NewInterpreter(os.Stdout, os.Stdin)
	stmts, compileErrs := compile(source)
	if len(compileErrs) > 0 {
		for _, e := range compileErrs {
			errColor.Fprintf(os.Stderr, "%s\n", e)
		}
		return 65
	}

	locals, resolveErrs := resolve(stmts)
	if len(resolveErrs) > 0 {
		for _, e := range resolveErrs {
			errColor.Fprintf(os.Stderr, "%s\n", e)
		}
		return 65
	}

	if err := it.Run(stmts, locals); err != nil {
		errColor.Fprintf(os.Stderr, "%s\n", err)
		return 70
	}
	return 0
}

// runREPL implements spec.md §6.1's bare-invocation shape: each line
// is parsed, resolved, and executed independently, and errors on one
// line do not poison the next.
func runREPL() {
	it := vesper.NewInterpreter(os.Stdout, os.Stdin)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		replColor.Fprint(os.Stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(os.Stdout)
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		stmts, parseErrs := compile([]byte(line))
		if len(parseErrs) > 0 {
			for _, e := range parseErrs {
				errColor.Fprintf(os.Stderr, "%s\n", e)
			}
			continue
		}

		locals, resolveErrs := resolve(stmts)
		if len(resolveErrs) > 0 {
			for _, e := range resolveErrs {
				errColor.Fprintf(os.Stderr, "%s\n", e)
			}
			continue
		}

		if err := it.Run(stmts, locals); err != nil {
			errColor.Fprintf(os.Stderr, "%s\n", err)
		}
	}
}

func compile(source []byte) ([]vesper.Stmt, []error) {
	lexer := vesper.NewLexer(string(source))
	tokens := lexer.Scan()
	if len(lexer.Errors) > 0 {
		errs := make([]error, len(lexer.Errors))
		for i, e := range lexer.Errors {
			errs[i] = e
		}
		return nil, errs
	}

	parser := vesper.NewParser(tokens)
	stmts, parseErrs := parser.Parse()
	if len(parseErrs) > 0 {
		errs := make([]error, len(parseErrs))
		for i, e := range parseErrs {
			errs[i] = e
		}
		return nil, errs
	}
	return stmts, nil
}

func resolve(stmts []vesper.Stmt) (map[vesper.Expr]int, []error) {
	resolver := vesper.NewResolver()
	resolveErrs := resolver.Resolve(stmts)
	if len(resolveErrs) > 0 {
		errs := make([]error, len(resolveErrs))
		for i, e := range resolveErrs {
			errs[i] = e
		}
		return nil, errs
	}
	return resolver.Locals, nil
}
