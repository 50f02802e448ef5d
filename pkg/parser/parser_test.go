package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/ast"
	"github.com/emberlang/ember/pkg/parser"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := parser.New(input)
	program, err := p.Parse()
	require.NoError(t, err, "parser errors: %v", p.Errors())
	return program
}

func TestParseLiterals(t *testing.T) {
	program := parseProgram(t, `1
3.5
"hi"
True
False
None`)
	require.Len(t, program.Statements, 6)

	intStmt := program.Statements[0].(*ast.ExprStatement)
	assert.Equal(t, "1", intStmt.Expr.(*ast.IntLiteral).Value)

	floatStmt := program.Statements[1].(*ast.ExprStatement)
	assert.Equal(t, 3.5, floatStmt.Expr.(*ast.FloatLiteral).Value)

	strStmt := program.Statements[2].(*ast.ExprStatement)
	assert.Equal(t, "hi", strStmt.Expr.(*ast.StringLiteral).Value)

	trueStmt := program.Statements[3].(*ast.ExprStatement)
	assert.Equal(t, true, trueStmt.Expr.(*ast.BoolLiteral).Value)

	falseStmt := program.Statements[4].(*ast.ExprStatement)
	assert.Equal(t, false, falseStmt.Expr.(*ast.BoolLiteral).Value)

	_, ok := program.Statements[5].(*ast.ExprStatement).Expr.(*ast.NoneLiteral)
	assert.True(t, ok)
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string // TokenLiteral of the outermost BinaryExpr
	}{
		{"1 + 2 * 3", "+"},
		{"1 * 2 + 3", "+"},
		{"a or b and c", "or"},
		{"not a and b", "and"},
	}
	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		require.Len(t, program.Statements, 1)
		expr := program.Statements[0].(*ast.ExprStatement).Expr
		assert.Equal(t, tt.want, expr.TokenLiteral(), tt.input)
	}
}

func TestBinaryExprNestingAddMul(t *testing.T) {
	program := parseProgram(t, "1 + 2 * 3")
	expr := program.Statements[0].(*ast.ExprStatement).Expr.(*ast.BinaryExpr)
	assert.Equal(t, "+", expr.Op)
	_, leftIsInt := expr.Left.(*ast.IntLiteral)
	assert.True(t, leftIsInt)
	right := expr.Right.(*ast.BinaryExpr)
	assert.Equal(t, "*", right.Op)
}

func TestUnaryAndPrefixOperators(t *testing.T) {
	program := parseProgram(t, "-x\n+x\nnot x")
	require.Len(t, program.Statements, 3)
	neg := program.Statements[0].(*ast.ExprStatement).Expr.(*ast.UnaryExpr)
	assert.Equal(t, "-", neg.Op)
	pos := program.Statements[1].(*ast.ExprStatement).Expr.(*ast.UnaryExpr)
	assert.Equal(t, "+", pos.Op)
	not := program.Statements[2].(*ast.ExprStatement).Expr.(*ast.UnaryExpr)
	assert.Equal(t, "not", not.Op)
}

func TestCallAttrIndexChain(t *testing.T) {
	program := parseProgram(t, "a.b(c)[0]")
	require.Len(t, program.Statements, 1)
	idx := program.Statements[0].(*ast.ExprStatement).Expr.(*ast.IndexExpr)
	call := idx.Receiver.(*ast.CallExpr)
	attr := call.Callee.(*ast.AttrExpr)
	assert.Equal(t, "b", attr.Name)
	assert.IsType(t, &ast.Identifier{}, attr.Receiver)
	require.Len(t, call.Args, 1)
}

func TestListLiteral(t *testing.T) {
	program := parseProgram(t, "[1, 2, 3]")
	list := program.Statements[0].(*ast.ExprStatement).Expr.(*ast.ListLiteral)
	require.Len(t, list.Elements, 3)
}

func TestAssignStatement(t *testing.T) {
	program := parseProgram(t, "x = 1")
	assign := program.Statements[0].(*ast.AssignStatement)
	ident := assign.Target.(*ast.Identifier)
	assert.Equal(t, "x", ident.Name)
}

func TestAssignToAttribute(t *testing.T) {
	program := parseProgram(t, "obj.field = 1")
	assign := program.Statements[0].(*ast.AssignStatement)
	attr := assign.Target.(*ast.AttrExpr)
	assert.Equal(t, "field", attr.Name)
}

func TestIfElseStatement(t *testing.T) {
	program := parseProgram(t, `if x {
	y = 1
} else {
	y = 2
}`)
	ifStmt := program.Statements[0].(*ast.IfStatement)
	require.Len(t, ifStmt.Then, 1)
	require.Len(t, ifStmt.Else, 1)
}

func TestWhileStatement(t *testing.T) {
	program := parseProgram(t, `while x {
	y = 1
}`)
	while := program.Statements[0].(*ast.WhileStatement)
	require.Len(t, while.Body, 1)
}

func TestForStatement(t *testing.T) {
	program := parseProgram(t, `for item in items {
	x = item
}`)
	forStmt := program.Statements[0].(*ast.ForStatement)
	assert.Equal(t, "item", forStmt.Name)
	require.Len(t, forStmt.Body, 1)
}

func TestDefStatementWithDefaults(t *testing.T) {
	program := parseProgram(t, `def greet(name, greeting="hi") {
	return greeting
}`)
	def := program.Statements[0].(*ast.DefStatement)
	assert.Equal(t, "greet", def.Name)
	require.Len(t, def.Params, 2)
	assert.Equal(t, "name", def.Params[0].Name)
	assert.Nil(t, def.Params[0].Default)
	assert.Equal(t, "greeting", def.Params[1].Name)
	require.NotNil(t, def.Params[1].Default)
	assert.Equal(t, "hi", def.Params[1].Default.(*ast.StringLiteral).Value)
}

func TestBareReturn(t *testing.T) {
	program := parseProgram(t, `def f() {
	return
}`)
	def := program.Statements[0].(*ast.DefStatement)
	ret := def.Body[0].(*ast.ReturnStatement)
	assert.Nil(t, ret.Value)
}

func TestClassStatementWithSuper(t *testing.T) {
	program := parseProgram(t, `class Dog: Animal {
	def bark(self) {
		return 1
	}
}`)
	class := program.Statements[0].(*ast.ClassStatement)
	assert.Equal(t, "Dog", class.Name)
	assert.Equal(t, "Animal", class.Super)
	require.Len(t, class.Body, 1)
}

func TestClassStatementWithoutSuper(t *testing.T) {
	program := parseProgram(t, `class Animal {
}`)
	class := program.Statements[0].(*ast.ClassStatement)
	assert.Equal(t, "", class.Super)
}

func TestRaiseStatement(t *testing.T) {
	program := parseProgram(t, `raise "boom"`)
	raise := program.Statements[0].(*ast.RaiseStatement)
	assert.Equal(t, "boom", raise.Value.(*ast.StringLiteral).Value)
}

func TestParseErrorsAccumulate(t *testing.T) {
	p := parser.New("def (")
	_, err := p.Parse()
	require.Error(t, err)
	assert.NotEmpty(t, p.Errors())
}

func TestParenthesizedExpression(t *testing.T) {
	program := parseProgram(t, "(1 + 2) * 3")
	expr := program.Statements[0].(*ast.ExprStatement).Expr.(*ast.BinaryExpr)
	assert.Equal(t, "*", expr.Op)
	_, leftIsBinary := expr.Left.(*ast.BinaryExpr)
	assert.True(t, leftIsBinary)
}
