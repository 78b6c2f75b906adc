package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerules/edgerules/internal/runtime"
)

func TestNewRegistry_CoreBuiltinsAlwaysPresent(t *testing.T) {
	r := NewRegistry(Options{})
	for _, name := range []string{"sum", "max", "min", "count", "find", "floor", "ceiling", "abs", "date", "datetime", "duration", "calendarDiff"} {
		_, ok := r.Lookup(name)
		assert.True(t, ok, "expected core built-in %q to be registered", name)
	}
	_, ok := r.Lookup("regexReplace")
	assert.False(t, ok, "regex built-ins must not register without EnableRegex")
}

// Without the `regex`/`base64` build tags compiled in, the corresponding
// built-ins stay absent even when the Options flag is set — registration
// requires both the runtime flag and the build tag to agree.
func TestNewRegistry_FeatureGatedBuiltinsRequireBuildTag(t *testing.T) {
	withRegex := NewRegistry(Options{EnableRegex: true})
	_, ok := withRegex.Lookup("regexReplace")
	assert.False(t, ok)

	withBase64 := NewRegistry(Options{EnableBase64: true})
	_, ok = withBase64.Lookup("toBase64")
	assert.False(t, ok)
}

func TestSum_PropagatesMissing(t *testing.T) {
	r := NewRegistry(Options{})
	sig, ok := r.Lookup("sum")
	require.True(t, ok)
	val, issue := sig.Fn([]runtime.Value{runtime.List([]runtime.Value{runtime.Number(1), runtime.Missing})})
	require.Nil(t, issue)
	assert.True(t, val.IsMissing())
}

func TestFind_ReturnsMissingWhenAbsent(t *testing.T) {
	r := NewRegistry(Options{})
	sig, ok := r.Lookup("find")
	require.True(t, ok)
	val, issue := sig.Fn([]runtime.Value{runtime.List([]runtime.Value{runtime.Number(1), runtime.Number(2)}), runtime.Number(3)})
	require.Nil(t, issue)
	assert.True(t, val.IsMissing())
}

func TestMax_ReturnsHighestValue(t *testing.T) {
	r := NewRegistry(Options{})
	sig, ok := r.Lookup("max")
	require.True(t, ok)
	val, issue := sig.Fn([]runtime.Value{runtime.List([]runtime.Value{runtime.Number(3), runtime.Number(7), runtime.Number(2)})})
	require.Nil(t, issue)
	n, _ := val.AsNumber()
	assert.Equal(t, float64(7), n)
}
