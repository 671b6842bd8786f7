package vesper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, source string) []Stmt {
	t.Helper()
	tokens := NewLexer(source).Scan()
	stmts, errs := NewParser(tokens).Parse()
	require.Empty(t, errs, "unexpected parse errors: %v", errs)
	return stmts
}

func TestParserTernaryIsRightAssociative(t *testing.T) {
	stmts := parse(t, `a ? b : c ? d : e;`)
	require.Len(t, stmts, 1)
	es := stmts[0].(*ExprStmt)
	tern := es.Expr.(*TernaryExpr)
	_, elseIsTernary := tern.Else.(*TernaryExpr)
	assert.True(t, elseIsTernary)
}

func TestParserAugmentedAssignmentDesugarsToBinary(t *testing.T) {
	stmts := parse(t, `x += 1;`)
	require.Len(t, stmts, 1)
	es := stmts[0].(*ExprStmt)
	assign := es.Expr.(*AssignExpr)
	bin := assign.Value.(*BinaryExpr)
	assert.Equal(t, PLUS, bin.Op.Type)
	assert.Equal(t, "+=", bin.Op.Lexeme)
	v, ok := bin.Left.(*VariableExpr)
	require.True(t, ok)
	assert.Equal(t, "x", v.Name.Lexeme)
}

func TestParserSetAugmentedAssignment(t *testing.T) {
	stmts := parse(t, `obj.field -= 2;`)
	require.Len(t, stmts, 1)
	es := stmts[0].(*ExprStmt)
	set := es.Expr.(*SetExpr)
	bin := set.Value.(*BinaryExpr)
	assert.Equal(t, MINUS, bin.Op.Type)
	_, ok := bin.Left.(*GetExpr)
	assert.True(t, ok)
}

func TestParserForLoopKeepsOwnShape(t *testing.T) {
	stmts := parse(t, `for (var i = 0; i < 3; i += 1) { print(i); }`)
	require.Len(t, stmts, 1)
	_, ok := stmts[0].(*ForStmt)
	assert.True(t, ok, "for loops must not be desugared into while loops")
}

func TestParserArrowFunctionExpression(t *testing.T) {
	stmts := parse(t, `var f = function(x) => x + 1;`)
	require.Len(t, stmts, 1)
	v := stmts[0].(*VarStmt)
	fn := v.Initializers[0].(*FunctionExpr)
	require.Len(t, fn.Body, 1)
	ret, ok := fn.Body[0].(*ReturnStmt)
	require.True(t, ok)
	assert.NotNil(t, ret.Value)
}

func TestParserClassWithInheritsAndStaticMethod(t *testing.T) {
	stmts := parse(t, `
		class Animal {
			function speak() { return "..."; }
		}
		class Dog inherits Animal {
			static function create() { return Dog(); }
			function speak() { return "Woof"; }
		}
	`)
	require.Len(t, stmts, 2)
	dog := stmts[1].(*ClassStmt)
	require.NotNil(t, dog.Superclass)
	assert.Equal(t, "Animal", dog.Superclass.Name.Lexeme)

	var sawStatic bool
	for _, m := range dog.Methods {
		if m.IsStatic {
			sawStatic = true
			assert.Equal(t, "create", m.Function.Name.Lexeme)
		}
	}
	assert.True(t, sawStatic)
}

func TestParserConstVarDeclaration(t *testing.T) {
	stmts := parse(t, `var x: const = 1;`)
	require.Len(t, stmts, 1)
	v := stmts[0].(*VarStmt)
	require.True(t, v.Consts[0])
}

func TestParserMultipleSyntaxErrorsRecoveredPerRun(t *testing.T) {
	tokens := NewLexer(`
		var ;
		var ;
		var ok = 1;
	`).Scan()
	_, errs := NewParser(tokens).Parse()
	assert.GreaterOrEqual(t, len(errs), 2, "parser should report more than one error per run")
}

func TestParserMissingLeftOperand(t *testing.T) {
	tokens := NewLexer(`var x = + 1;`).Scan()
	_, errs := NewParser(tokens).Parse()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Expect expression")
}
