package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerules/edgerules/internal/token"
)

func tokenTypes(input string) []token.Type {
	l := New(input)
	var types []token.Type
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == token.EOF {
			break
		}
	}
	return types
}

func TestNextToken_FieldDeclaration(t *testing.T) {
	types := tokenTypes(`{ a: 1 + 2 }`)
	assert.Equal(t, []token.Type{
		token.LBRACE, token.IDENT, token.COLON, token.NUMBER, token.PLUS,
		token.NUMBER, token.RBRACE, token.EOF,
	}, types)
}

func TestNextToken_ComparisonOperators(t *testing.T) {
	types := tokenTypes(`a >= b`)
	assert.Equal(t, []token.Type{token.IDENT, token.GREATER_EQ, token.IDENT, token.EOF}, types)
}

func TestNextToken_SkipsBOMAndWhitespace(t *testing.T) {
	l := New("﻿  42")
	tok := l.NextToken()
	require.Equal(t, token.NUMBER, tok.Type)
	assert.Equal(t, "42", tok.Literal)
}

func TestErrors_AccumulatesOnIllegalCharacter(t *testing.T) {
	l := New("{ a: $ }")
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
	}
	assert.NotEmpty(t, l.Errors())
}
