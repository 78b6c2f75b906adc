package model

import (
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// supportedVersions is the range of `@version` integers this build
// understands, expressed as a semver constraint over synthesized
// "N.0.0" versions — the portable format's version is a bare integer, but
// reusing a real constraint-matching library instead of a hand-rolled `if
// v < 1 || v > N` check is what lets a host detect "model too new for this
// runtime" the same way any semver-gated system would (SPEC_FULL.md §6.3).
var supportedVersions = func() *semver.Constraints {
	c, err := semver.NewConstraint(">= 1.0.0, < 2.0.0")
	if err != nil {
		panic(err)
	}
	return c
}()

// Document is a parsed portable model: its two metadata keys plus every
// other top-level entry (type declarations, function declarations, nested
// contexts, literal fields) kept as raw decoded JSON values.
type Document struct {
	Version   int
	ModelName string
	Body      map[string]any
}

// Parse validates data against the portable model schema, decodes it, and
// checks @version compatibility.
func Parse(data []byte) (*Document, error) {
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return fromRaw(raw)
}

// ParseYAML accepts YAML authoring of the same portable model (the CLI's
// `model` subcommands, SPEC_FULL.md §6.5), converting to canonical JSON
// before the same validation path Parse uses.
func ParseYAML(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("model: invalid YAML: %w", err)
	}
	normalized := normalizeYAMLMaps(raw).(map[string]any)
	jsonBytes, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return Parse(jsonBytes)
}

// normalizeYAMLMaps converts yaml.v3's map[string]interface{} (already
// typical for mapping nodes) and any nested map[interface{}]interface{}
// some decoders produce into the map[string]any/[]any shape json.Marshal
// needs, recursively.
func normalizeYAMLMaps(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAMLMaps(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAMLMaps(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAMLMaps(val)
		}
		return out
	default:
		return v
	}
}

func fromRaw(raw map[string]any) (*Document, error) {
	doc := &Document{Body: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case "@version":
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("model: @version must be an integer")
			}
			doc.Version = int(f)
		case "@model_name":
			s, _ := v.(string)
			doc.ModelName = s
		default:
			doc.Body[k] = v
		}
	}
	versionStr := fmt.Sprintf("%d.0.0", doc.Version)
	sv, err := semver.NewVersion(versionStr)
	if err != nil {
		return nil, fmt.Errorf("model: invalid @version %d: %w", doc.Version, err)
	}
	if !supportedVersions.Check(sv) {
		return nil, fmt.Errorf("model: @version %d is not supported by this runtime", doc.Version)
	}
	return doc, nil
}

// Marshal renders the document back to its canonical portable JSON form
// (`get_decision_service_model`, SPEC_FULL.md §6.2).
func (d *Document) Marshal() ([]byte, error) {
	out := make(map[string]any, len(d.Body)+2)
	for k, v := range d.Body {
		out[k] = v
	}
	out["@version"] = d.Version
	if d.ModelName != "" {
		out["@model_name"] = d.ModelName
	}
	return json.MarshalIndent(out, "", "  ")
}
