package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerules/edgerules/internal/ast"
	"github.com/edgerules/edgerules/internal/lexer"
)

func parse(source string) (*ast.ContextObject, *Parser) {
	l := lexer.New(source)
	p := New(l)
	return p.ParseProgram(), p
}

func TestParseProgram_FieldsInDeclarationOrder(t *testing.T) {
	root, p := parse(`{
		a: 1
		b: a + 1
	}`)
	require.Empty(t, p.Errors())
	require.Len(t, root.Fields, 2)
	assert.Equal(t, "a", root.Fields[0].Name)
	assert.Equal(t, "b", root.Fields[1].Name)
}

func TestParseProgram_NestedContext(t *testing.T) {
	root, p := parse(`{
		outer: {
			inner: 1
		}
	}`)
	require.Empty(t, p.Errors())
	f, ok := root.Field("outer")
	require.True(t, ok)
	nested, ok := f.Value.(*ast.ContextObject)
	require.True(t, ok)
	_, ok = nested.Field("inner")
	assert.True(t, ok)
}

func TestParseProgram_FunctionDefinition(t *testing.T) {
	root, p := parse(`{
		func classify(applicant) : {
			result: applicant.age
		}
	}`)
	require.Empty(t, p.Errors())
	f, ok := root.Field("classify")
	require.True(t, ok)
	fn, ok := f.Value.(*ast.FunctionDefinition)
	require.True(t, ok)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "applicant", fn.Params[0].Name)
}

func TestParseProgram_MissingColonRecordsError(t *testing.T) {
	_, p := parse(`{ a 1 }`)
	assert.NotEmpty(t, p.Errors())
}

func TestParseExpression_Precedence(t *testing.T) {
	l := lexer.New("2 + 3 * 4")
	p := New(l)
	expr := p.ParseExpression()
	require.Empty(t, p.Errors())
	bin, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
	_, ok = bin.Right.(*ast.BinaryExpr)
	assert.True(t, ok, "multiplication should bind tighter and nest on the right")
}
