package vesper

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the closed sum of runtime values: Nil | Bool | Number | String
// | Instance | Callable (user function, bound method, class, or built-in).
type Value interface {
	typeName() string
}

type Nil struct{}

func (Nil) typeName() string { return "nil" }

type Bool bool

func (Bool) typeName() string { return "bool" }

type Number float64

func (Number) typeName() string { return "number" }

type String string

func (String) typeName() string { return "string" }

// Callable is any value that can appear on the left of a call expression:
// a user function, a bound method, a class, or a built-in.
type Callable interface {
	Value
	Arity() int
	Call(it *Interpreter, args []Value) (Value, error)
}

// Function is a user-defined function value: its declaration plus the
// environment captured at the point it was evaluated (its closure).
// A bound method is a Function whose closure has one extra layer
// defining "this".
type Function struct {
	Name        string
	Params      []Token
	Body        []Stmt
	Closure     *Environment
	IsInitializer bool
}

func (*Function) typeName() string { return "function" }

func (f *Function) Arity() int { return len(f.Params) }

func (f *Function) Call(it *Interpreter, args []Value) (Value, error) {
	env := NewEnvironment(f.Closure)
	for i, param := range f.Params {
		env.Define(param.Lexeme, args[i])
	}

	fl, err := it.execBlock(f.Body, env)
	if err != nil {
		return nil, err
	}

	if f.IsInitializer {
		return f.Closure.getAt(0, "this")
	}
	if fl.kind == flowReturn {
		return fl.value, nil
	}
	return Nil{}, nil
}

// bind returns a new Function value with an extra environment layer on
// top of f's closure in which "this" is defined as instance. This is
// the sole mechanism for method binding (spec.md §4.3).
func (f *Function) bind(instance *Instance) *Function {
	env := NewEnvironment(f.Closure)
	env.Define("this", instance)
	return &Function{
		Name:          f.Name,
		Params:        f.Params,
		Body:          f.Body,
		Closure:       env,
		IsInitializer: f.IsInitializer,
	}
}

// Class is callable (constructs instances) and is itself instance-shaped:
// it owns a field map used for static fields and static methods.
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
	Fields     map[string]Value
}

func (*Class) typeName() string { return "class" }

func (c *Class) FindMethod(name string) *Function {
	if m, ok := c.Methods[name]; ok {
		return m
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil
}

func (c *Class) Arity() int {
	if init := c.FindMethod("__init__"); init != nil {
		return init.Arity()
	}
	return 0
}

func (c *Class) Call(it *Interpreter, args []Value) (Value, error) {
	instance := &Instance{Class: c, Fields: make(map[string]Value)}
	if init := c.FindMethod("__init__"); init != nil {
		if _, err := init.bind(instance).Call(it, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

func (c *Class) getField(name string) (Value, bool) {
	v, ok := c.Fields[name]
	return v, ok
}

func (c *Class) setField(name string, v Value) {
	c.Fields[name] = v
}

// Instance is a live object: a field table plus a reference to its class.
type Instance struct {
	Class  *Class
	Fields map[string]Value
}

func (*Instance) typeName() string { return "instance" }

func (i *Instance) getField(name string) (Value, bool) {
	v, ok := i.Fields[name]
	return v, ok
}

func (i *Instance) setField(name string, v Value) {
	i.Fields[name] = v
}

// Get implements property access (spec.md §4.3 "Property access (Get)"):
// fields shadow methods, and a found method comes back bound.
func (i *Instance) Get(name string) (Value, error) {
	if v, ok := i.Fields[name]; ok {
		return v, nil
	}
	if m := i.Class.FindMethod(name); m != nil {
		return m.bind(i), nil
	}
	return nil, fmt.Errorf("Undefined property '%s'.", name)
}

// fielded is implemented by any Value that owns a mutable field map:
// Instance, and Class (for static fields/methods). Property assignment
// (spec.md §4.3 "Property assignment (Set)") targets either.
type fielded interface {
	Value
	getField(name string) (Value, bool)
	setField(name string, v Value)
}

var (
	_ fielded = (*Instance)(nil)
	_ fielded = (*Class)(nil)
)

// Builtin is a host-implemented callable (clock, input, print, println).
type Builtin struct {
	name  string
	arity int
	fn    func(it *Interpreter, args []Value) (Value, error)
}

func (*Builtin) typeName() string { return "function" }

func (b *Builtin) Arity() int { return b.arity }

func (b *Builtin) Call(it *Interpreter, args []Value) (Value, error) {
	return b.fn(it, args)
}

// IsTruthy implements the language's truthiness rule: Nil and Bool(false)
// are falsy, everything else is truthy (spec.md §4.3).
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(val)
	default:
		return true
	}
}

// valuesEqual implements the language's equality rule (spec.md §3):
// Nil == Nil; same-typed pairs compare by host equality; mixed types
// are never equal.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	default:
		return a == b
	}
}

// Stringify implements the value-formatting contract of spec.md §6.3.
func Stringify(v Value) string {
	switch val := v.(type) {
	case Nil:
		return "nil"
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Number:
		return formatNumber(float64(val))
	case String:
		return string(val)
	case *Function:
		if val.Name == "" {
			return "<function>"
		}
		return fmt.Sprintf("<function %s>", val.Name)
	case *Builtin:
		return fmt.Sprintf("<function %s>", val.name)
	case *Class:
		return fmt.Sprintf("<class %s>", val.Name)
	case *Instance:
		return fmt.Sprintf("<%s instance>", val.Class.Name)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) && !strings.ContainsAny(strconv.FormatFloat(n, 'g', -1, 64), "eE") {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
