package vesper

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// registerBuiltins pre-binds the host built-ins into the globals
// environment (spec.md §6.2). They are ordinary Builtin callables, so
// they go through the same arity/dispatch path as any other callable.
func registerBuiltins(it *Interpreter) {
	define := func(name string, arity int, fn func(it *Interpreter, args []Value) (Value, error)) {
		it.globals.Define(name, &Builtin{name: name, arity: arity, fn: fn})
	}

	define("clock", 0, func(it *Interpreter, args []Value) (Value, error) {
		return Number(float64(time.Now().UnixNano()) / 1e9), nil
	})

	define("input", 0, func(it *Interpreter, args []Value) (Value, error) {
		line, err := it.Stdin.ReadString('\n')
		if err != nil && err != io.EOF {
			return Nil{}, fmt.Errorf("input: %w", err)
		}
		return String(strings.TrimRight(line, "\r\n")), nil
	})

	define("print", 1, func(it *Interpreter, args []Value) (Value, error) {
		fmt.Fprint(it.Stdout, Stringify(args[0]))
		return Nil{}, nil
	})

	define("println", 1, func(it *Interpreter, args []Value) (Value, error) {
		fmt.Fprintln(it.Stdout, Stringify(args[0]))
		return Nil{}, nil
	})
}
