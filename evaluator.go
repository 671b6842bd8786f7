package vesper

import (
	"bufio"
	"io"
)

// flowKind tags the non-local control signal produced by executing a
// statement (spec.md §4.4). Using a result value instead of panics or
// exceptions keeps every exit path explicit, including the
// environment-restoration guarantee of spec.md §5.
type flowKind int

const (
	flowNormal flowKind = iota
	flowBreak
	flowContinue
	flowReturn
)

type flow struct {
	kind  flowKind
	value Value
}

var normalFlow = flow{kind: flowNormal}

// Interpreter is the tree-walking evaluator: it threads an Environment
// chain and the resolver's side-table through every AST node
// (spec.md §4.3).
type Interpreter struct {
	globals *Environment
	locals  map[Expr]int

	Stdout io.Writer
	Stdin  *bufio.Reader
}

// NewInterpreter builds an interpreter with the globals environment
// preloaded with the built-ins of spec.md §6.2.
func NewInterpreter(stdout io.Writer, stdin io.Reader) *Interpreter {
	it := &Interpreter{
		globals: NewEnvironment(nil),
		Stdout:  stdout,
		Stdin:   bufio.NewReader(stdin),
	}
	registerBuiltins(it)
	return it
}

// Run executes a resolved program's statements in the globals
// environment (spec.md §5): every block/function/for entry restores
// its enclosing environment on all exit paths, so after Run returns
// (success or runtime error) the active environment is globals again.
func (it *Interpreter) Run(stmts []Stmt, locals map[Expr]int) error {
	it.locals = locals
	for _, s := range stmts {
		if _, err := s.exec(it, it.globals); err != nil {
			return err
		}
	}
	return nil
}

// lookupVariable implements spec.md §3 invariant (i): a recorded
// hop-count reads directly from that ancestor; an unresolved reference
// is global.
func (it *Interpreter) lookupVariable(env *Environment, expr Expr, name string) (Value, error) {
	if depth, ok := it.locals[expr]; ok {
		return env.getAt(depth, name)
	}
	return it.globals.Get(name)
}

func (it *Interpreter) assignVariable(env *Environment, expr Expr, name string, v Value) error {
	if depth, ok := it.locals[expr]; ok {
		return env.assignAt(depth, name, v)
	}
	return it.globals.Assign(name, v)
}

// execBlock runs stmts in a fresh child environment and guarantees
// that env is what the caller keeps using afterward — the new scope
// is local to this call only (spec.md §5 "Environment restoration").
func (it *Interpreter) execBlock(stmts []Stmt, env *Environment) (flow, error) {
	for _, s := range stmts {
		fl, err := s.exec(it, env)
		if err != nil {
			return flow{}, err
		}
		if fl.kind != flowNormal {
			return fl, nil
		}
	}
	return normalFlow, nil
}

// ---- Expr.eval ----

func (e *AssignExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	v, err := e.Value.eval(it, env)
	if err != nil {
		return nil, err
	}
	if err := it.assignVariable(env, e, e.Name.Lexeme, v); err != nil {
		return nil, newRuntimeError(e.Name, "%s", err.Error())
	}
	return v, nil
}

func (e *SetExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	obj, err := e.Object.eval(it, env)
	if err != nil {
		return nil, err
	}
	target, ok := obj.(fielded)
	if !ok {
		return nil, newRuntimeError(e.Name, "Only instances have fields.")
	}
	v, err := e.Value.eval(it, env)
	if err != nil {
		return nil, err
	}
	target.setField(e.Name.Lexeme, v)
	return v, nil
}

func (e *ThisExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	return it.lookupVariable(env, e, e.Keyword.Lexeme)
}

func (e *SuperExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	depth := it.locals[e]
	superVal, err := env.getAt(depth, "super")
	if err != nil {
		return nil, newRuntimeError(e.Keyword, "%s", err.Error())
	}
	superclass := superVal.(*Class)

	instVal, err := env.getAt(depth-1, "this")
	if err != nil {
		return nil, newRuntimeError(e.Keyword, "%s", err.Error())
	}
	instance := instVal.(*Instance)

	method := superclass.FindMethod(e.Method.Lexeme)
	if method == nil {
		return nil, newRuntimeError(e.Method, "Undefined property '%s'.", e.Method.Lexeme)
	}
	return method.bind(instance), nil
}

func (e *TernaryExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	cond, err := e.Cond.eval(it, env)
	if err != nil {
		return nil, err
	}
	if IsTruthy(cond) {
		return e.Then.eval(it, env)
	}
	return e.Else.eval(it, env)
}

func (e *LogicalExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	left, err := e.Left.eval(it, env)
	if err != nil {
		return nil, err
	}
	if e.Op.Type == OR {
		if IsTruthy(left) {
			return left, nil
		}
	} else {
		if !IsTruthy(left) {
			return left, nil
		}
	}
	return e.Right.eval(it, env)
}

func (e *UnaryExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	right, err := e.Right.eval(it, env)
	if err != nil {
		return nil, err
	}
	switch e.Op.Type {
	case BANG:
		return Bool(!IsTruthy(right)), nil
	case MINUS:
		n, ok := right.(Number)
		if !ok {
			return nil, newRuntimeError(e.Op, "Operand must be a number.")
		}
		return -n, nil
	}
	panic("unreachable: unary operator " + e.Op.Type.String())
}

func (e *BinaryExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	left, err := e.Left.eval(it, env)
	if err != nil {
		return nil, err
	}
	right, err := e.Right.eval(it, env)
	if err != nil {
		return nil, err
	}

	switch e.Op.Type {
	case PLUS:
		return evalPlus(left, right, e.Op)
	case MINUS:
		a, b, err := numberOperands(left, right, e.Op)
		if err != nil {
			return nil, err
		}
		return a - b, nil
	case STAR:
		a, b, err := numberOperands(left, right, e.Op)
		if err != nil {
			return nil, err
		}
		return a * b, nil
	case SLASH:
		a, b, err := numberOperands(left, right, e.Op)
		if err != nil {
			return nil, err
		}
		return a / b, nil
	case GREATER:
		a, b, err := numberOperands(left, right, e.Op)
		if err != nil {
			return nil, err
		}
		return Bool(a > b), nil
	case GREATER_EQUAL:
		a, b, err := numberOperands(left, right, e.Op)
		if err != nil {
			return nil, err
		}
		return Bool(a >= b), nil
	case LESS:
		a, b, err := numberOperands(left, right, e.Op)
		if err != nil {
			return nil, err
		}
		return Bool(a < b), nil
	case LESS_EQUAL:
		a, b, err := numberOperands(left, right, e.Op)
		if err != nil {
			return nil, err
		}
		return Bool(a <= b), nil
	case EQUAL_EQUAL:
		return Bool(valuesEqual(left, right)), nil
	case BANG_EQUAL:
		return Bool(!valuesEqual(left, right)), nil
	}
	panic("unreachable: binary operator " + e.Op.Type.String())
}

// evalPlus implements the overload order of spec.md §4.3 "+ overloads".
func evalPlus(left, right Value, op Token) (Value, error) {
	if a, ok := left.(Number); ok {
		if b, ok := right.(Number); ok {
			return a + b, nil
		}
	}
	if a, ok := left.(String); ok {
		if b, ok := right.(String); ok {
			return a + b, nil
		}
	}
	if a, ok := left.(String); ok {
		if b, ok := right.(Number); ok {
			return a + String(Stringify(b)), nil
		}
	}
	if _, ok := left.(String); ok {
		return left.(String) + String(Stringify(right)), nil
	}
	if _, ok := right.(String); ok {
		return String(Stringify(left)) + right.(String), nil
	}
	return nil, newRuntimeError(op, "Operands must be two numbers or two strings.")
}

func numberOperands(left, right Value, op Token) (Number, Number, error) {
	a, aok := left.(Number)
	b, bok := right.(Number)
	if !aok || !bok {
		return 0, 0, newRuntimeError(op, "Operands must be a number.")
	}
	return a, b, nil
}

func (e *GroupingExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	return e.Inner.eval(it, env)
}

func (e *LiteralExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	return e.Value, nil
}

func (e *CallExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	callee, err := e.Callee.eval(it, env)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := a.eval(it, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, newRuntimeError(e.ClosingParen, "Object is not callable.")
	}

	if len(args) != fn.Arity() {
		return nil, newRuntimeError(e.ClosingParen, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}

	return fn.Call(it, args)
}

func (e *GetExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	obj, err := e.Object.eval(it, env)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *Instance:
		v, err := o.Get(e.Name.Lexeme)
		if err != nil {
			return nil, newRuntimeError(e.Name, "%s", err.Error())
		}
		return v, nil
	case *Class:
		v, ok := o.getField(e.Name.Lexeme)
		if !ok {
			return nil, newRuntimeError(e.Name, "Undefined property '%s'.", e.Name.Lexeme)
		}
		return v, nil
	default:
		return nil, newRuntimeError(e.Name, "Only instances have properties.")
	}
}

func (e *FunctionExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	return &Function{Name: e.Name, Params: e.Params, Body: e.Body, Closure: env}, nil
}

func (e *VariableExpr) eval(it *Interpreter, env *Environment) (Value, error) {
	v, err := it.lookupVariable(env, e, e.Name.Lexeme)
	if err != nil {
		return nil, newRuntimeError(e.Name, "%s", err.Error())
	}
	return v, nil
}

// ---- Stmt.exec ----

func (s *BlockStmt) exec(it *Interpreter, env *Environment) (flow, error) {
	return it.execBlock(s.Stmts, NewEnvironment(env))
}

func (s *ExprStmt) exec(it *Interpreter, env *Environment) (flow, error) {
	_, err := s.Expr.eval(it, env)
	return normalFlow, err
}

// VarStmt evaluates each initializer before defining its name, so a
// name can never observe its own initializer (spec.md §4.3 "Variable
// declaration").
func (s *VarStmt) exec(it *Interpreter, env *Environment) (flow, error) {
	for i, name := range s.Names {
		var v Value = Nil{}
		if s.Initializers[i] != nil {
			val, err := s.Initializers[i].eval(it, env)
			if err != nil {
				return flow{}, err
			}
			v = val
		}
		env.Define(name.Lexeme, v)
	}
	return normalFlow, nil
}

func (s *FunctionStmt) exec(it *Interpreter, env *Environment) (flow, error) {
	fn := &Function{Name: s.Function.Name, Params: s.Function.Params, Body: s.Function.Body, Closure: env}
	env.Define(s.Name.Lexeme, fn)
	return normalFlow, nil
}

// ClassStmt defines the class's name first (so methods and the class
// itself can refer to it), then builds the method table and static
// field map by walking each declared method, then assigns the
// constructed class value (spec.md §4.3 "Class declaration").
func (s *ClassStmt) exec(it *Interpreter, env *Environment) (flow, error) {
	env.Define(s.Name.Lexeme, Nil{})

	var superclass *Class
	if s.Superclass != nil {
		v, err := s.Superclass.eval(it, env)
		if err != nil {
			return flow{}, err
		}
		sc, ok := v.(*Class)
		if !ok {
			return flow{}, newRuntimeError(s.Superclass.Name, "Superclass must be a class.")
		}
		superclass = sc
	}

	classEnv := env
	if superclass != nil {
		classEnv = NewEnvironment(env)
		classEnv.Define("super", superclass)
	}

	methods := make(map[string]*Function)
	fields := make(map[string]Value)

	for _, m := range s.Methods {
		fn := &Function{
			Name:          m.Function.Name.Lexeme,
			Params:        m.Function.Function.Params,
			Body:          m.Function.Function.Body,
			Closure:       classEnv,
			IsInitializer: m.Function.Name.Lexeme == "__init__",
		}
		if m.IsStatic {
			fields[fn.Name] = fn
		} else {
			methods[fn.Name] = fn
		}
	}

	class := &Class{Name: s.Name.Lexeme, Superclass: superclass, Methods: methods, Fields: fields}

	if err := env.Assign(s.Name.Lexeme, class); err != nil {
		return flow{}, newRuntimeError(s.Name, "%s", err.Error())
	}
	return normalFlow, nil
}

func (s *BreakStmt) exec(it *Interpreter, env *Environment) (flow, error) {
	return flow{kind: flowBreak}, nil
}

func (s *ContinueStmt) exec(it *Interpreter, env *Environment) (flow, error) {
	return flow{kind: flowContinue}, nil
}

func (s *ReturnStmt) exec(it *Interpreter, env *Environment) (flow, error) {
	var v Value = Nil{}
	if s.Value != nil {
		val, err := s.Value.eval(it, env)
		if err != nil {
			return flow{}, err
		}
		v = val
	}
	return flow{kind: flowReturn, value: v}, nil
}

func (s *IfStmt) exec(it *Interpreter, env *Environment) (flow, error) {
	cond, err := s.Cond.eval(it, env)
	if err != nil {
		return flow{}, err
	}
	if IsTruthy(cond) {
		return s.Then.exec(it, env)
	}
	if s.Else != nil {
		return s.Else.exec(it, env)
	}
	return normalFlow, nil
}

// WhileStmt catches Break (ends the loop) and Continue (ends the
// current iteration) per spec.md §4.3 "Control flow".
func (s *WhileStmt) exec(it *Interpreter, env *Environment) (flow, error) {
	for {
		cond, err := s.Cond.eval(it, env)
		if err != nil {
			return flow{}, err
		}
		if !IsTruthy(cond) {
			return normalFlow, nil
		}

		fl, err := s.Body.exec(it, env)
		if err != nil {
			return flow{}, err
		}
		switch fl.kind {
		case flowBreak:
			return normalFlow, nil
		case flowReturn:
			return fl, nil
		}
	}
}

// ForStmt: the increment runs after the body whether or not Continue
// fired, but not if Break fired (spec.md §4.3 "for").
func (s *ForStmt) exec(it *Interpreter, env *Environment) (flow, error) {
	loopEnv := NewEnvironment(env)

	if s.Init != nil {
		if _, err := s.Init.exec(it, loopEnv); err != nil {
			return flow{}, err
		}
	}

	for {
		if s.Cond != nil {
			cond, err := s.Cond.eval(it, loopEnv)
			if err != nil {
				return flow{}, err
			}
			if !IsTruthy(cond) {
				return normalFlow, nil
			}
		}

		fl, err := s.Body.exec(it, loopEnv)
		if err != nil {
			return flow{}, err
		}
		if fl.kind == flowBreak {
			return normalFlow, nil
		}
		if fl.kind == flowReturn {
			return fl, nil
		}

		if s.Increment != nil {
			if _, err := s.Increment.eval(it, loopEnv); err != nil {
				return flow{}, err
			}
		}
	}
}
