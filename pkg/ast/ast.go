// Package ast defines the abstract syntax tree for Ember's minimal
// brace-delimited, Python-family surface syntax: def/class/if/while/for,
// return/raise, attribute and index access, calls, list literals,
// assignment, and binary operators. The Node/Expression/Statement interface
// shape follows the teacher's pkg/ast.
package ast

// Node is implemented by every AST node.
type Node interface {
	TokenLiteral() string
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is a node executed for effect.
type Statement interface {
	Node
	statementNode()
}

// Program is the root node: a module's top-level statement list.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// Identifier is a bare name reference.
type Identifier struct{ Name string }

func (i *Identifier) TokenLiteral() string { return i.Name }
func (i *Identifier) expressionNode()      {}

// IntLiteral is an integer literal, stored as decimal text so the compiler
// can hand it straight to big.Int.SetString without an intermediate int64
// overflow check.
type IntLiteral struct{ Value string }

func (n *IntLiteral) TokenLiteral() string { return n.Value }
func (n *IntLiteral) expressionNode()      {}

// FloatLiteral is a floating-point literal.
type FloatLiteral struct{ Value float64 }

func (n *FloatLiteral) TokenLiteral() string { return "float" }
func (n *FloatLiteral) expressionNode()      {}

// StringLiteral is a quoted string literal.
type StringLiteral struct{ Value string }

func (n *StringLiteral) TokenLiteral() string { return n.Value }
func (n *StringLiteral) expressionNode()      {}

// BoolLiteral is the True/False keyword literal.
type BoolLiteral struct{ Value bool }

func (n *BoolLiteral) TokenLiteral() string { return "bool" }
func (n *BoolLiteral) expressionNode()      {}

// NoneLiteral is the None keyword literal.
type NoneLiteral struct{}

func (n *NoneLiteral) TokenLiteral() string { return "None" }
func (n *NoneLiteral) expressionNode()      {}

// ListLiteral is a `[a, b, c]` expression.
type ListLiteral struct{ Elements []Expression }

func (n *ListLiteral) TokenLiteral() string { return "[" }
func (n *ListLiteral) expressionNode()      {}

// BinaryExpr is a binary operator application; Op is one of
// + - * % / < <= > >= == != and or.
type BinaryExpr struct {
	Op          string
	Left, Right Expression
}

func (n *BinaryExpr) TokenLiteral() string { return n.Op }
func (n *BinaryExpr) expressionNode()      {}

// UnaryExpr is a prefix operator application; Op is one of - + not.
type UnaryExpr struct {
	Op      string
	Operand Expression
}

func (n *UnaryExpr) TokenLiteral() string { return n.Op }
func (n *UnaryExpr) expressionNode()      {}

// AttrExpr is a `recv.name` attribute load.
type AttrExpr struct {
	Receiver Expression
	Name     string
}

func (n *AttrExpr) TokenLiteral() string { return n.Name }
func (n *AttrExpr) expressionNode()      {}

// IndexExpr is a `recv[index]` expression.
type IndexExpr struct {
	Receiver, Index Expression
}

func (n *IndexExpr) TokenLiteral() string { return "[" }
func (n *IndexExpr) expressionNode()      {}

// CallExpr is a `callee(args...)` call.
type CallExpr struct {
	Callee Expression
	Args   []Expression
}

func (n *CallExpr) TokenLiteral() string { return "(" }
func (n *CallExpr) expressionNode()      {}

// ExprStatement wraps an expression evaluated for its side effects.
type ExprStatement struct{ Expr Expression }

func (n *ExprStatement) TokenLiteral() string { return n.Expr.TokenLiteral() }
func (n *ExprStatement) statementNode()       {}

// AssignStatement is `target = value`. The parser accepts any expression as
// Target; pkg/compiler restricts it to an Identifier or AttrExpr (there is no
// index-assignment — lists expose no mutation dunder and the opcode table
// has no StoreIndex).
type AssignStatement struct {
	Target Expression
	Value  Expression
}

func (n *AssignStatement) TokenLiteral() string { return "=" }
func (n *AssignStatement) statementNode()       {}

// ReturnStatement is `return expr` (Value is nil for a bare `return`).
type ReturnStatement struct{ Value Expression }

func (n *ReturnStatement) TokenLiteral() string { return "return" }
func (n *ReturnStatement) statementNode()       {}

// RaiseStatement is `raise expr`.
type RaiseStatement struct{ Value Expression }

func (n *RaiseStatement) TokenLiteral() string { return "raise" }
func (n *RaiseStatement) statementNode()       {}

// IfStatement is `if cond { ... } else { ... }`; Else may be nil.
type IfStatement struct {
	Cond       Expression
	Then, Else []Statement
}

func (n *IfStatement) TokenLiteral() string { return "if" }
func (n *IfStatement) statementNode()       {}

// WhileStatement is `while cond { ... }`.
type WhileStatement struct {
	Cond Expression
	Body []Statement
}

func (n *WhileStatement) TokenLiteral() string { return "while" }
func (n *WhileStatement) statementNode()       {}

// ForStatement is `for name in iter { ... }`.
type ForStatement struct {
	Name string
	Iter Expression
	Body []Statement
}

func (n *ForStatement) TokenLiteral() string { return "for" }
func (n *ForStatement) statementNode()       {}

// Param is one formal parameter, with an optional default expression.
type Param struct {
	Name    string
	Default Expression // nil if no default
}

// DefStatement is `def name(params) { body }`.
type DefStatement struct {
	Name   string
	Params []Param
	Body   []Statement
}

func (n *DefStatement) TokenLiteral() string { return "def" }
func (n *DefStatement) statementNode()       {}

// ClassStatement is `class Name: Super { body }`; Super is "" if omitted.
type ClassStatement struct {
	Name  string
	Super string
	Body  []Statement
}

func (n *ClassStatement) TokenLiteral() string { return "class" }
func (n *ClassStatement) statementNode()       {}
