package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerules/edgerules/internal/builtins"
	"github.com/edgerules/edgerules/internal/lexer"
	"github.com/edgerules/edgerules/internal/parser"
)

func linkSource(t *testing.T, source string) *Linker {
	t.Helper()
	l := lexer.New(source)
	p := parser.New(l)
	root := p.ParseProgram()
	require.Empty(t, p.Errors())

	lk := New(builtins.NewRegistry(builtins.Options{}))
	lk.Link(root)
	return lk
}

func TestLink_ValidReferencesProduceNoErrors(t *testing.T) {
	lk := linkSource(t, `{
		a: 1
		b: a + 1
	}`)
	assert.Empty(t, lk.Errors())
}

func TestLink_DirectSelfReferenceIsCyclic(t *testing.T) {
	lk := linkSource(t, `{
		a: a + 1
	}`)
	require.NotEmpty(t, lk.Errors())
	assert.Equal(t, CyclicReference, lk.Errors()[0].Kind)
}

func TestLink_MutualReferenceIsCyclic(t *testing.T) {
	lk := linkSource(t, `{
		a: b + 1
		b: a + 1
	}`)
	require.NotEmpty(t, lk.Errors())
	assert.Equal(t, CyclicReference, lk.Errors()[0].Kind)
}

func TestLink_UnknownIdentifierIsAnError(t *testing.T) {
	lk := linkSource(t, `{
		a: undefinedField + 1
	}`)
	assert.NotEmpty(t, lk.Errors())
}

func TestLink_UnknownBuiltinCallIsAnError(t *testing.T) {
	lk := linkSource(t, `{
		a: notARealFunction([1, 2])
	}`)
	assert.NotEmpty(t, lk.Errors())
}
