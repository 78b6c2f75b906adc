package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerules/edgerules/internal/runtime"
)

func TestAnyToValue_ConvertsScalarsAndCollections(t *testing.T) {
	val, err := AnyToValue(map[string]any{
		"age":    21.0,
		"name":   "Ada",
		"active": true,
		"tags":   []any{"a", "b"},
	})
	require.NoError(t, err)
	ec, ok := val.AsContext()
	require.True(t, ok)

	age, ok := ec.MemoGet("age")
	require.True(t, ok)
	n, _ := age.AsNumber()
	assert.Equal(t, float64(21), n)

	tags, ok := ec.MemoGet("tags")
	require.True(t, ok)
	list, _ := tags.AsList()
	assert.Len(t, list, 2)
}

func TestAnyToValue_NilBecomesMissing(t *testing.T) {
	val, err := AnyToValue(nil)
	require.NoError(t, err)
	assert.True(t, val.IsMissing())
}

func TestValueToAny_ConvertsScalarsBack(t *testing.T) {
	out, err := ValueToAny(runtime.Number(42))
	require.NoError(t, err)
	assert.Equal(t, float64(42), out)

	out, err = ValueToAny(runtime.String("hi"))
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	out, err = ValueToAny(runtime.Missing)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestValueToAny_RejectsBareContext(t *testing.T) {
	val, err := AnyToValue(map[string]any{"a": 1.0})
	require.NoError(t, err)
	_, convErr := ValueToAny(val)
	assert.Error(t, convErr)
}
