package vesper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolverErrors(t *testing.T, source string) []*ParseError {
	t.Helper()
	stmts := parse(t, source)
	r := NewResolver()
	return r.Resolve(stmts)
}

func TestResolverBreakOutsideLoopIsError(t *testing.T) {
	errs := resolverErrors(t, `break;`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Cannot use 'break' outside of a loop.")
}

func TestResolverContinueOutsideLoopIsError(t *testing.T) {
	errs := resolverErrors(t, `continue;`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Cannot use 'continue' outside of a loop.")
}

func TestResolverBreakInsideLoopIsFine(t *testing.T) {
	errs := resolverErrors(t, `while (true) { break; }`)
	assert.Empty(t, errs)
}

func TestResolverReturnAtTopLevelIsError(t *testing.T) {
	errs := resolverErrors(t, `return 1;`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Cannot return from top-level code.")
}

func TestResolverReturnValueFromInitializerIsError(t *testing.T) {
	errs := resolverErrors(t, `
		class Foo {
			function __init__() { return 1; }
		}
	`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Cannot return a value from an initializer.")
}

func TestResolverThisOutsideClassIsError(t *testing.T) {
	errs := resolverErrors(t, `function f() { return this; }`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Cannot use 'this' outside of a class.")
}

func TestResolverThisInStaticMethodIsError(t *testing.T) {
	errs := resolverErrors(t, `
		class Foo {
			static function bar() { return this; }
		}
	`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Cannot use 'this' in a static method.")
}

func TestResolverSuperWithoutSuperclassIsError(t *testing.T) {
	errs := resolverErrors(t, `
		class Foo {
			function bar() { return super.bar(); }
		}
	`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Cannot use 'super' in a class with no superclass.")
}

func TestResolverClassCannotInheritFromItself(t *testing.T) {
	errs := resolverErrors(t, `class Foo inherits Foo {}`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "A class can't inherit from itself.")
}

func TestResolverReadOwnInitializerIsError(t *testing.T) {
	errs := resolverErrors(t, `function f() { var x = x; }`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Cannot read local variable in its own initializer.")
}

func TestResolverDuplicateDeclarationInSameScopeIsError(t *testing.T) {
	errs := resolverErrors(t, `function f() { var x = 1; var x = 2; }`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "already declared in this scope.")
}

func TestResolverAssignToConstIsError(t *testing.T) {
	errs := resolverErrors(t, `var x: const = 1; x = 2;`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Cannot assign to const variable 'x'.")
}

func TestResolverHopCountForClosureVariable(t *testing.T) {
	stmts := parse(t, `
		function outer() {
			var x = 1;
			function inner() { return x; }
			return inner;
		}
	`)
	r := NewResolver()
	errs := r.Resolve(stmts)
	require.Empty(t, errs)

	outer := stmts[0].(*FunctionStmt)
	innerDecl := outer.Function.Body[1].(*FunctionStmt)
	returnStmt := innerDecl.Function.Body[0].(*ReturnStmt)
	varExpr := returnStmt.Value.(*VariableExpr)

	depth, ok := r.Locals[varExpr]
	require.True(t, ok)
	assert.Equal(t, 1, depth)
}
