package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTripsVersionAndModelName(t *testing.T) {
	input := []byte(`{"@version": 1, "@model_name": "underwriting", "rate": 0.05}`)
	doc, err := Parse(input)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "underwriting", doc.ModelName)
	assert.Equal(t, 0.05, doc.Body["rate"])

	out, err := doc.Marshal()
	require.NoError(t, err)
	roundTripped, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, doc.Version, roundTripped.Version)
	assert.Equal(t, doc.ModelName, roundTripped.ModelName)
}

func TestParse_RejectsMissingVersion(t *testing.T) {
	_, err := Parse([]byte(`{"rate": 0.05}`))
	assert.Error(t, err)
}

func TestParse_RejectsUnsupportedVersion(t *testing.T) {
	_, err := Parse([]byte(`{"@version": 99, "rate": 0.05}`))
	assert.Error(t, err)
}

func TestParseYAML_NormalizesNestedMaps(t *testing.T) {
	input := []byte(`
"@version": 1
applicant:
  minAge: 18
  tiers:
    - gold
    - silver
`)
	doc, err := ParseYAML(input)
	require.NoError(t, err)
	applicant, ok := doc.Body["applicant"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(18), applicant["minAge"])
	tiers, ok := applicant["tiers"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"gold", "silver"}, tiers)
}
