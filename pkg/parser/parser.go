// Package parser implements a recursive-descent, Pratt-style parser for
// Ember's minimal brace-delimited, Python-family surface syntax. The overall
// shape — a Parser holding curTok/peekTok one token apart, nextToken()
// sliding the window forward, and a Parse() entry point that accumulates
// errors instead of stopping at the first one — follows the teacher's
// pkg/parser; the grammar itself is new; Ember has no message-send syntax,
// just ordinary infix/prefix operators and C-style statement blocks.
//
// Expressions are parsed with precedence climbing (the technique behind what
// Pratt parsing calls "binding power"): parsePrefixExpr handles anything that
// can start an expression (literals, identifiers, parenthesized
// sub-expressions, unary operators), and parseExpression's loop repeatedly
// folds in whatever infix or postfix operator follows, as long as it binds
// tighter than the precedence the caller passed in. Call/index/attribute
// access are treated as postfix operators at the highest precedence, so
// `a.b(c)[0]` parses as a left-associative chain without any special-casing
// beyond the precedence table.
package parser

import (
	"fmt"
	"strconv"

	"github.com/emberlang/ember/pkg/ast"
	"github.com/emberlang/ember/pkg/lexer"
)

// Precedence levels, lowest to highest binding power.
const (
	LOWEST int = iota
	OR
	AND
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x +x not x
	POSTFIX     // x.attr  x(args)  x[index]
)

var precedences = map[lexer.TokenType]int{
	lexer.TokenOr:  OR,
	lexer.TokenAnd: AND,

	lexer.TokenEq:    EQUALS,
	lexer.TokenNotEq: EQUALS,

	lexer.TokenLess:      LESSGREATER,
	lexer.TokenLessEq:    LESSGREATER,
	lexer.TokenGreater:   LESSGREATER,
	lexer.TokenGreaterEq: LESSGREATER,

	lexer.TokenPlus:  SUM,
	lexer.TokenMinus: SUM,

	lexer.TokenStar:    PRODUCT,
	lexer.TokenSlash:   PRODUCT,
	lexer.TokenPercent: PRODUCT,

	lexer.TokenDot:      POSTFIX,
	lexer.TokenLParen:   POSTFIX,
	lexer.TokenLBracket: POSTFIX,
}

// Parser turns a token stream into a Program. Construct with New and call
// Parse once; check Errors() (or the error Parse returns) before trusting
// the result.
type Parser struct {
	l *lexer.Lexer

	curTok  lexer.Token
	peekTok lexer.Token

	errors []string
}

// New primes curTok/peekTok by reading two tokens, so the parser always has
// one token of lookahead available from the start.
func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curTok.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekTok.Type == t }

// expectPeek advances past peekTok if it matches t, recording an error and
// leaving the token stream untouched otherwise. Nearly every statement-level
// production uses this to check for its required punctuation (`(`, `{`,
// `in`, ...).
func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("line %d: expected next token to be %s, got %s (%q) instead",
		p.peekTok.Line, t, p.peekTok.Type, p.peekTok.Literal))
	return false
}

func (p *Parser) addError(msg string) { p.errors = append(p.errors, msg) }

// Errors returns every parse error accumulated so far.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekTok.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curTok.Type]; ok {
		return pr
	}
	return LOWEST
}

// Parse consumes the entire token stream and returns the resulting Program.
// It does not stop at the first malformed statement — it records an error
// and keeps going, so one call surfaces as many mistakes as possible — but
// returns a non-nil error summarizing all of them if any occurred.
func (p *Parser) Parse() (*ast.Program, error) {
	program := &ast.Program{}
	for !p.curTokenIs(lexer.TokenEOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("parser errors: %v", p.errors)
	}
	return program, nil
}

// parseStatement dispatches on the current token's keyword, falling back to
// parseExprOrAssignStatement for anything that starts with an expression
// (a bare call like `print(x)`, or an assignment like `x = 1`).
func (p *Parser) parseStatement() ast.Statement {
	switch p.curTok.Type {
	case lexer.TokenDef:
		return p.parseDefStatement()
	case lexer.TokenClass:
		return p.parseClassStatement()
	case lexer.TokenIf:
		return p.parseIfStatement()
	case lexer.TokenWhile:
		return p.parseWhileStatement()
	case lexer.TokenFor:
		return p.parseForStatement()
	case lexer.TokenReturn:
		return p.parseReturnStatement()
	case lexer.TokenRaise:
		return p.parseRaiseStatement()
	default:
		return p.parseExprOrAssignStatement()
	}
}

// parseBlockBody consumes a `{ ... }` block assuming curTok is already the
// opening brace, leaving curTok on the closing brace when it returns — the
// same invariant every other parse function keeps (curTok always sits on
// the last token consumed).
func (p *Parser) parseBlockBody() []ast.Statement {
	var stmts []ast.Statement
	p.nextToken()
	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.nextToken()
	}
	return stmts
}

// parseDefStatement parses `def name(a, b=1) { ... }`.
func (p *Parser) parseDefStatement() ast.Statement {
	if !p.expectPeek(lexer.TokenIdentifier) {
		return nil
	}
	name := p.curTok.Literal
	if !p.expectPeek(lexer.TokenLParen) {
		return nil
	}
	params := p.parseParams()
	if !p.expectPeek(lexer.TokenLBrace) {
		return nil
	}
	body := p.parseBlockBody()
	return &ast.DefStatement{Name: name, Params: params, Body: body}
}

// parseParams parses a parenthesized, comma-separated parameter list.
// curTok is the opening `(` on entry; curTok is the closing `)` on exit.
// Once one parameter carries a default, every parameter after it must too —
// pkg/compiler enforces that, not the parser.
func (p *Parser) parseParams() []ast.Param {
	var params []ast.Param
	if p.peekTokenIs(lexer.TokenRParen) {
		p.nextToken()
		return params
	}
	p.nextToken()
	params = append(params, p.parseParam())
	for p.peekTokenIs(lexer.TokenComma) {
		p.nextToken()
		p.nextToken()
		params = append(params, p.parseParam())
	}
	p.expectPeek(lexer.TokenRParen)
	return params
}

func (p *Parser) parseParam() ast.Param {
	if !p.curTokenIs(lexer.TokenIdentifier) {
		p.addError(fmt.Sprintf("line %d: expected parameter name, got %s", p.curTok.Line, p.curTok.Type))
		return ast.Param{}
	}
	param := ast.Param{Name: p.curTok.Literal}
	if p.peekTokenIs(lexer.TokenAssign) {
		p.nextToken()
		p.nextToken()
		param.Default = p.parseExpression(LOWEST)
	}
	return param
}

// parseClassStatement parses `class Name { ... }` or `class Name: Super { ... }`.
func (p *Parser) parseClassStatement() ast.Statement {
	if !p.expectPeek(lexer.TokenIdentifier) {
		return nil
	}
	name := p.curTok.Literal
	super := ""
	if p.peekTokenIs(lexer.TokenColon) {
		p.nextToken()
		if !p.expectPeek(lexer.TokenIdentifier) {
			return nil
		}
		super = p.curTok.Literal
	}
	if !p.expectPeek(lexer.TokenLBrace) {
		return nil
	}
	body := p.parseBlockBody()
	return &ast.ClassStatement{Name: name, Super: super, Body: body}
}

// parseIfStatement parses `if cond { ... }` with an optional `else { ... }`.
func (p *Parser) parseIfStatement() ast.Statement {
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.TokenLBrace) {
		return nil
	}
	then := p.parseBlockBody()

	var elseBody []ast.Statement
	if p.peekTokenIs(lexer.TokenElse) {
		p.nextToken()
		if !p.expectPeek(lexer.TokenLBrace) {
			return nil
		}
		elseBody = p.parseBlockBody()
	}
	return &ast.IfStatement{Cond: cond, Then: then, Else: elseBody}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.TokenLBrace) {
		return nil
	}
	body := p.parseBlockBody()
	return &ast.WhileStatement{Cond: cond, Body: body}
}

// parseForStatement parses `for name in iterable { ... }`.
func (p *Parser) parseForStatement() ast.Statement {
	if !p.expectPeek(lexer.TokenIdentifier) {
		return nil
	}
	name := p.curTok.Literal
	if !p.expectPeek(lexer.TokenIn) {
		return nil
	}
	p.nextToken()
	iter := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.TokenLBrace) {
		return nil
	}
	body := p.parseBlockBody()
	return &ast.ForStatement{Name: name, Iter: iter, Body: body}
}

// parseReturnStatement parses `return expr` or a bare `return` closing a
// block (Value is left nil, compiled as an implicit None).
func (p *Parser) parseReturnStatement() ast.Statement {
	if p.peekTokenIs(lexer.TokenRBrace) || p.peekTokenIs(lexer.TokenEOF) {
		return &ast.ReturnStatement{}
	}
	p.nextToken()
	return &ast.ReturnStatement{Value: p.parseExpression(LOWEST)}
}

func (p *Parser) parseRaiseStatement() ast.Statement {
	p.nextToken()
	return &ast.RaiseStatement{Value: p.parseExpression(LOWEST)}
}

// parseExprOrAssignStatement parses an expression, then checks whether it's
// actually the target of an assignment (`target = value`). Any expression
// can appear here as a bare statement (e.g. `print(x)` for its side effect);
// only Identifier and AttrExpr are legal assignment targets, which
// pkg/compiler enforces rather than the parser, matching the grammar's
// looseness about what may appear as a statement.
func (p *Parser) parseExprOrAssignStatement() ast.Statement {
	expr := p.parseExpression(LOWEST)
	if p.peekTokenIs(lexer.TokenAssign) {
		p.nextToken()
		p.nextToken()
		value := p.parseExpression(LOWEST)
		return &ast.AssignStatement{Target: expr, Value: value}
	}
	return &ast.ExprStatement{Expr: expr}
}

// parseExpression is the Pratt loop: parse one prefix/primary expression,
// then keep folding in infix and postfix operators as long as they bind
// tighter than precedence. Example: parsing `1 + 2 * 3` at LOWEST parses
// `1`, sees `+` (SUM) binds tighter than LOWEST, recurses with precedence
// SUM for the right-hand side — which itself parses `2`, sees `*` (PRODUCT)
// binds tighter than SUM, and recurses again, giving `1 + (2 * 3)`.
//
// Statements have no terminator token, so an operator that starts a later
// line than the expression parsed so far is not folded in: it begins the
// next statement (`-x` then `+x` on two lines are two statements).
func (p *Parser) parseExpression(precedence int) ast.Expression {
	left := p.parsePrefixExpr()
	for !p.peekTokenIs(lexer.TokenEOF) && p.peekTok.Line == p.curTok.Line && precedence < p.peekPrecedence() {
		switch p.peekTok.Type {
		case lexer.TokenDot:
			p.nextToken()
			left = p.parseAttr(left)
		case lexer.TokenLParen:
			p.nextToken()
			left = p.parseCall(left)
		case lexer.TokenLBracket:
			p.nextToken()
			left = p.parseIndex(left)
		default:
			p.nextToken()
			left = p.parseInfixExpr(left)
		}
	}
	return left
}

// parsePrefixExpr parses anything that can start an expression: literals,
// identifiers, a parenthesized sub-expression, a list literal, or a prefix
// operator application.
func (p *Parser) parsePrefixExpr() ast.Expression {
	switch p.curTok.Type {
	case lexer.TokenInteger:
		return &ast.IntLiteral{Value: p.curTok.Literal}
	case lexer.TokenFloat:
		f, err := strconv.ParseFloat(p.curTok.Literal, 64)
		if err != nil {
			p.addError(fmt.Sprintf("line %d: invalid float literal %q", p.curTok.Line, p.curTok.Literal))
			return nil
		}
		return &ast.FloatLiteral{Value: f}
	case lexer.TokenString:
		return &ast.StringLiteral{Value: p.curTok.Literal}
	case lexer.TokenTrue:
		return &ast.BoolLiteral{Value: true}
	case lexer.TokenFalse:
		return &ast.BoolLiteral{Value: false}
	case lexer.TokenNone:
		return &ast.NoneLiteral{}
	case lexer.TokenIdentifier:
		return &ast.Identifier{Name: p.curTok.Literal}
	case lexer.TokenLParen:
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		p.expectPeek(lexer.TokenRParen)
		return expr
	case lexer.TokenLBracket:
		return &ast.ListLiteral{Elements: p.parseExpressionList(lexer.TokenRBracket)}
	case lexer.TokenMinus, lexer.TokenPlus, lexer.TokenNot:
		op := p.curTok.Literal
		p.nextToken()
		return &ast.UnaryExpr{Op: op, Operand: p.parseExpression(PREFIX)}
	default:
		p.addError(fmt.Sprintf("line %d: unexpected token %s (%q)", p.curTok.Line, p.curTok.Type, p.curTok.Literal))
		return nil
	}
}

func (p *Parser) parseInfixExpr(left ast.Expression) ast.Expression {
	op := p.curTok.Literal
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.BinaryExpr{Op: op, Left: left, Right: right}
}

// parseAttr parses `.name` immediately following left; curTok is the `.` on
// entry. A following `(...)` is picked up by the enclosing parseExpression
// loop on its next iteration, turning this into a CallExpr whose Callee is
// the AttrExpr — the usual way a bound-method call parses.
func (p *Parser) parseAttr(left ast.Expression) ast.Expression {
	if !p.expectPeek(lexer.TokenIdentifier) {
		return nil
	}
	return &ast.AttrExpr{Receiver: left, Name: p.curTok.Literal}
}

func (p *Parser) parseCall(callee ast.Expression) ast.Expression {
	return &ast.CallExpr{Callee: callee, Args: p.parseExpressionList(lexer.TokenRParen)}
}

func (p *Parser) parseIndex(receiver ast.Expression) ast.Expression {
	p.nextToken()
	idx := p.parseExpression(LOWEST)
	p.expectPeek(lexer.TokenRBracket)
	return &ast.IndexExpr{Receiver: receiver, Index: idx}
}

// parseExpressionList parses a comma-separated expression list up to and
// including end, assuming curTok is the list's opening delimiter on entry.
// Used for both call arguments and list literals.
func (p *Parser) parseExpressionList(end lexer.TokenType) []ast.Expression {
	var list []ast.Expression
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))
	for p.peekTokenIs(lexer.TokenComma) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}
	p.expectPeek(end)
	return list
}
