package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/lexer"
)

func tokenTypes(toks []lexer.Token) []lexer.TokenType {
	types := make([]lexer.TokenType, len(toks))
	for i, t := range toks {
		types[i] = t.Type
	}
	return types
}

func TestNextTokenPunctuationAndOperators(t *testing.T) {
	input := `(){}[],.:=+-*/%<<=>>===!=`
	l := lexer.New(input)
	want := []lexer.TokenType{
		lexer.TokenLParen, lexer.TokenRParen, lexer.TokenLBrace, lexer.TokenRBrace,
		lexer.TokenLBracket, lexer.TokenRBracket, lexer.TokenComma, lexer.TokenDot, lexer.TokenColon,
		lexer.TokenAssign, lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent,
		lexer.TokenLess, lexer.TokenLessEq, lexer.TokenGreater, lexer.TokenGreaterEq, lexer.TokenEq, lexer.TokenNotEq,
		lexer.TokenEOF,
	}
	for _, w := range want {
		tok := l.NextToken()
		require.Equal(t, w, tok.Type, "token literal %q", tok.Literal)
	}
}

func TestNextTokenKeywords(t *testing.T) {
	input := `def class if else while for in return raise True False None not and or`
	l := lexer.New(input)
	want := []lexer.TokenType{
		lexer.TokenDef, lexer.TokenClass, lexer.TokenIf, lexer.TokenElse, lexer.TokenWhile,
		lexer.TokenFor, lexer.TokenIn, lexer.TokenReturn, lexer.TokenRaise,
		lexer.TokenTrue, lexer.TokenFalse, lexer.TokenNone, lexer.TokenNot, lexer.TokenAnd, lexer.TokenOr,
		lexer.TokenEOF,
	}
	assert.Equal(t, want, tokenTypes(l.Tokenize()))
}

func TestNextTokenIdentifiersAndNumbers(t *testing.T) {
	input := `foo _bar baz2 123 3.14 0`
	l := lexer.New(input)
	toks := l.Tokenize()
	require.Len(t, toks, 7) // 6 tokens + EOF

	assert.Equal(t, lexer.TokenIdentifier, toks[0].Type)
	assert.Equal(t, "foo", toks[0].Literal)
	assert.Equal(t, lexer.TokenIdentifier, toks[1].Type)
	assert.Equal(t, "_bar", toks[1].Literal)
	assert.Equal(t, lexer.TokenIdentifier, toks[2].Type)
	assert.Equal(t, "baz2", toks[2].Literal)
	assert.Equal(t, lexer.TokenInteger, toks[3].Type)
	assert.Equal(t, "123", toks[3].Literal)
	assert.Equal(t, lexer.TokenFloat, toks[4].Type)
	assert.Equal(t, "3.14", toks[4].Literal)
	assert.Equal(t, lexer.TokenInteger, toks[5].Type)
	assert.Equal(t, "0", toks[5].Literal)
}

func TestNextTokenString(t *testing.T) {
	l := lexer.New(`"hello\nworld" "quote: \" end"`)
	toks := l.Tokenize()
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, lexer.TokenString, toks[0].Type)
	assert.Equal(t, "hello\nworld", toks[0].Literal)
	assert.Equal(t, lexer.TokenString, toks[1].Type)
	assert.Equal(t, `quote: " end`, toks[1].Literal)
}

func TestNextTokenCommentsAreSkipped(t *testing.T) {
	input := "x = 1 # this is a comment\ny = 2"
	l := lexer.New(input)
	toks := l.Tokenize()
	var lits []string
	for _, tok := range toks {
		if tok.Type != lexer.TokenEOF {
			lits = append(lits, tok.Literal)
		}
	}
	assert.Equal(t, []string{"x", "=", "1", "y", "=", "2"}, lits)
}

func TestNextTokenIllegalCharacter(t *testing.T) {
	l := lexer.New(`@`)
	tok := l.NextToken()
	assert.Equal(t, lexer.TokenIllegal, tok.Type)
	assert.Equal(t, "@", tok.Literal)
}

func TestNextTokenLineAndColumnTracking(t *testing.T) {
	l := lexer.New("x\ny")
	first := l.NextToken()
	assert.Equal(t, 1, first.Line)
	second := l.NextToken()
	assert.Equal(t, 2, second.Line)
}

func TestTokenizeAlwaysEndsInEOF(t *testing.T) {
	toks := lexer.New("").Tokenize()
	require.Len(t, toks, 1)
	assert.Equal(t, lexer.TokenEOF, toks[0].Type)
}
