package decisionservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/edgerules/edgerules/internal/builtins"
)

// TestMain guards every test in this package against goroutine leaks —
// Service.Execute's ulid.MonotonicEntropy and the repeated rebuild() calls
// on Set/Remove are the most plausible places a future change could start
// something that outlives a call.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func classifyModel() []byte {
	return []byte(`{
		"@version": 1,
		"@model_name": "underwriting",
		"minAge": 18,
		"classify": {
			"@type": "function",
			"@parameters": {"applicant": "<Context>"},
			"result": "applicant.age >= minAge"
		}
	}`)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := Create(classifyModel(), builtins.NewRegistry(builtins.Options{}))
	require.NoError(t, err)
	return svc
}

func TestExecute_BindsRequestAndReturnsResult(t *testing.T) {
	svc := newTestService(t)
	result, err := svc.Execute("classify", map[string]any{"age": 21.0})
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestExecute_UnknownFunctionErrors(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Execute("nope", map[string]any{"age": 21.0})
	assert.Error(t, err)
}

func TestSet_RebuildsModelWithNewValue(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Set("minAge", 25))

	result, err := svc.Execute("classify", map[string]any{"age": 21.0})
	require.NoError(t, err)
	assert.Equal(t, false, result)
}

func TestGet_ReturnsPortableSnapshot(t *testing.T) {
	svc := newTestService(t)
	val, err := svc.Get("minAge")
	require.NoError(t, err)
	assert.EqualValues(t, 18, val)
}

func TestRemove_DropsFieldAndRebuilds(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Set("extra", 1))
	require.NoError(t, svc.Remove("extra"))
	_, err := svc.Get("extra")
	assert.Error(t, err)
}

func TestModel_RoundTripsCanonicalJSON(t *testing.T) {
	svc := newTestService(t)
	data, err := svc.Model()
	require.NoError(t, err)
	assert.Contains(t, string(data), "@model_name")
}
