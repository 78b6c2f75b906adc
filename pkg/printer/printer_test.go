package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerules/edgerules/internal/builtins"
	"github.com/edgerules/edgerules/internal/evaluator"
	"github.com/edgerules/edgerules/internal/lexer"
	"github.com/edgerules/edgerules/internal/linker"
	"github.com/edgerules/edgerules/internal/parser"
	"github.com/edgerules/edgerules/internal/runtime"
)

func evalAll(t *testing.T, source string) *runtime.ExecutionContext {
	t.Helper()
	l := lexer.New(source)
	p := parser.New(l)
	root := p.ParseProgram()
	require.Empty(t, p.Errors())

	reg := builtins.NewRegistry(builtins.Options{})
	lk := linker.New(reg)
	lk.Link(root)
	require.Empty(t, lk.Errors())

	ec := runtime.NewExecutionContext(root, nil)
	ev := evaluator.New(reg, runtime.DefaultRecursionLimit)
	var evalFields func(ec *runtime.ExecutionContext)
	evalFields = func(ec *runtime.ExecutionContext) {
		for _, f := range ec.Static.Fields {
			val, err := ev.EvalField(ec, f.Name)
			require.Nil(t, err)
			// Nested contexts start with an empty memo; evaluate their
			// fields too so Print has something to render for them.
			if child, ok := val.AsContext(); ok {
				evalFields(child)
			}
		}
	}
	evalFields(ec)
	return ec
}

func TestPrint_RendersMemoizedFieldsInOrder(t *testing.T) {
	ec := evalAll(t, `{
		a: 1
		b: a + 1
	}`)
	out := Print(ec)
	assert.Contains(t, out, "a : 1")
	assert.Contains(t, out, "b : 2")
}

func TestPrint_RecursesIntoNestedContexts(t *testing.T) {
	ec := evalAll(t, `{
		outer: {
			inner: 42
		}
	}`)
	out := Print(ec)
	assert.Contains(t, out, "outer")
	assert.Contains(t, out, "inner : 42")
}

func TestPrint_RendersLists(t *testing.T) {
	ec := evalAll(t, `{
		xs: [1, 2, 3]
	}`)
	out := Print(ec)
	assert.Contains(t, out, "xs : [1, 2, 3]")
}
