package edgerules

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerules/edgerules/internal/model"
)

func TestEvaluateExpression_Arithmetic(t *testing.T) {
	val, err := EvaluateExpression("2 + 3 * 4")
	require.Nil(t, err)
	n, ok := val.AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(14), n)
}

func TestEvaluateField_ReferencesAnotherField(t *testing.T) {
	source := `{
		base: 10
		doubled: base * 2
	}`
	val, err := EvaluateField(source, "doubled")
	require.Nil(t, err)
	n, ok := val.AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(20), n)
}

func TestEvaluateField_UnknownFieldFails(t *testing.T) {
	_, err := EvaluateField(`{ a: 1 }`, "missing")
	require.NotNil(t, err)
	assert.Equal(t, "FieldNotFound", err.Kind)
}

func TestEvaluateAll_MemoizesEveryField(t *testing.T) {
	source := `{
		a: 1
		b: a + 1
		c: b + 1
	}`
	val, err := EvaluateAll(source)
	require.Nil(t, err)
	ec, ok := val.AsContext()
	require.True(t, ok)
	c, ok := ec.MemoGet("c")
	require.True(t, ok)
	n, _ := c.AsNumber()
	assert.Equal(t, float64(3), n)
}

func TestEvaluateMethod_BindsRequestAndReturnsResult(t *testing.T) {
	source := `{
		func classify(applicant) : {
			result: applicant.age >= 18
		}
	}`
	req, convErr := model.AnyToValue(map[string]any{"age": 21.0})
	require.NoError(t, convErr)
	val, err := EvaluateMethod(source, "classify", req)
	require.Nil(t, err)
	b, ok := val.AsBool()
	require.True(t, ok)
	assert.True(t, b)
}

func TestEvaluateMethod_UnknownFunctionFails(t *testing.T) {
	_, err := EvaluateMethod(`{ a: 1 }`, "nope", Value{})
	require.NotNil(t, err)
	assert.Equal(t, "FunctionUnknown", err.Kind)
}

func TestToTrace_PrintsMemoizedFields(t *testing.T) {
	source := `{
		a: 1
		b: a + 1
	}`
	trace, err := ToTrace(source)
	require.Nil(t, err)
	assert.Contains(t, trace, "a")
	assert.Contains(t, trace, "b")
}

func TestEvaluateExpression_ParseErrorSurfaces(t *testing.T) {
	_, err := EvaluateExpression("2 + ")
	require.NotNil(t, err)
	assert.NotEmpty(t, err.Kind)
}

func TestEvaluateField_FilterKeepsElementsMatchingPredicate(t *testing.T) {
	source := `{
		nums: [1, 5, 12, 7, 15]
		small: nums[not it > 10]
		smallCount: count(small)
	}`
	val, err := EvaluateField(source, "smallCount")
	require.Nil(t, err)
	n, ok := val.AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(3), n)
}

func TestEvaluateField_WindowedMaxOverUserFunction(t *testing.T) {
	source := `{
		sales: [10, 20, 8, 7, 1, 10, 6, 78, 0, 8, 0, 8]
		func sales3(m, s): {
			result: s[m] + s[m+1] + s[m+2]
		}
		acc: for m in 0..(count(sales)-3) return sales3(m, sales).result
		best: max(acc)
	}`
	val, err := EvaluateField(source, "best")
	require.Nil(t, err)
	n, ok := val.AsNumber()
	require.True(t, ok)
	// The window starting at index 5 (10+6+78) is the true maximum of this
	// series; no window sums to 92.
	assert.Equal(t, float64(94), n)
}

func TestToTrace_Snapshot(t *testing.T) {
	source := `{
		applicant: {
			age: 21
			eligible: age >= 18
		}
		tier: "gold"
	}`
	trace, err := ToTrace(source)
	require.Nil(t, err)
	snaps.MatchSnapshot(t, trace)
}
