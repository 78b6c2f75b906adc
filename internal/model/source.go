package model

import (
	"fmt"
	"sort"
	"strings"
)

// ToSource renders a parsed portable Document as EdgeRules DSL source text,
// so internal/lexer/internal/parser can consume it without the rest of the
// pipeline needing any awareness of the portable JSON format at all
// (SPEC_FULL.md §6.3). Map iteration order is JSON-unspecified, so keys are
// sorted for deterministic output — field order does not affect semantics
// (ContextObject field order only governs to_trace rendering, not linking).
//
// @type:"type" entries are recognized but deliberately not translated into
// `type Name: { ... }` declarations: a record-shaped type entry's fields
// are themselves type references ("<Number>", "<Number[]>"), not DSL
// expressions, and spec.md's own Open Question (a)/(c) treat type
// annotations as parsed-but-unenforced — there is no DSL field value a
// type-reference could honestly become, so these entries round-trip
// through Document.Body/Marshal but are left out of the evaluated tree.
func ToSource(doc *Document) (string, error) {
	var b strings.Builder
	b.WriteString("{\n")
	if err := writeFields(&b, doc.Body); err != nil {
		return "", err
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func writeFields(b *strings.Builder, fields map[string]any) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		val := fields[name]
		if m, ok := val.(map[string]any); ok {
			if t, _ := m["@type"].(string); t == "type" {
				continue
			}
			if t, _ := m["@type"].(string); t == "function" {
				if err := writeFunction(b, name, m); err != nil {
					return err
				}
				continue
			}
			b.WriteString(name)
			b.WriteString(" : {\n")
			nested := make(map[string]any, len(m))
			for k, v := range m {
				nested[k] = v
			}
			if err := writeFields(b, nested); err != nil {
				return err
			}
			b.WriteString("}\n")
			continue
		}
		rendered, err := renderValue(val)
		if err != nil {
			return fmt.Errorf("model: field %q: %w", name, err)
		}
		b.WriteString(name)
		b.WriteString(" : ")
		b.WriteString(rendered)
		b.WriteString("\n")
	}
	return nil
}

func writeFunction(b *strings.Builder, name string, m map[string]any) error {
	params, _ := m["@parameters"].(map[string]any)
	paramNames := make([]string, 0, len(params))
	for p := range params {
		paramNames = append(paramNames, p)
	}
	sort.Strings(paramNames)

	b.WriteString("func ")
	b.WriteString(name)
	b.WriteString("(")
	for i, p := range paramNames {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p)
		if ref, ok := params[p].(string); ok && ref != "" {
			b.WriteString(": ")
			b.WriteString(strings.Trim(ref, "<>"))
		}
	}
	b.WriteString(") : {\n")

	body := make(map[string]any, len(m))
	for k, v := range m {
		if k == "@type" || k == "@parameters" {
			continue
		}
		body[k] = v
	}
	if err := writeFields(b, body); err != nil {
		return err
	}
	b.WriteString("}\n")
	return nil
}

// renderValue renders one portable-model scalar/array value as DSL source.
// Strings are DSL source fragments verbatim (spec.md §6: "all other string
// values are DSL source expressions"); numbers and booleans render as their
// own literal syntax.
func renderValue(val any) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case float64:
		return formatNumber(v), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case []any:
		parts := make([]string, len(v))
		for i, el := range v {
			rendered, err := renderValue(el)
			if err != nil {
				return "", err
			}
			parts[i] = rendered
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case nil:
		return "", fmt.Errorf("null is not a representable DSL value")
	default:
		return "", fmt.Errorf("unsupported portable value of type %T", v)
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
