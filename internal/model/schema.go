// Package model implements the portable JSON-shaped decision-service model
// format (spec.md §6): schema validation, version compatibility, and the
// translation between the portable object and EdgeRules DSL source text
// that internal/lexer/internal/parser can consume directly.
package model

import (
	"bytes"
	"fmt"

	genschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// PortableModel exists only to generate the JSON Schema that incoming host
// models are validated against — its fields capture the two metadata keys
// every portable model must carry; everything else is free-form (type
// declarations, function declarations, nested contexts, literal values),
// which is why the generated schema allows additional properties.
type PortableModel struct {
	Version   int    `json:"@version" jsonschema:"required,minimum=1,description=Portable model format version"`
	ModelName string `json:"@model_name,omitempty" jsonschema:"description=Optional human-readable model name"`
}

var schema *jsonschema.Schema

func init() {
	reflector := &genschema.Reflector{AllowAdditionalProperties: true}
	generated := reflector.Reflect(&PortableModel{})
	buf, err := generated.MarshalJSON()
	if err != nil {
		panic(fmt.Sprintf("model: failed to marshal generated schema: %v", err))
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(buf))
	if err != nil {
		panic(fmt.Sprintf("model: failed to decode generated schema: %v", err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("edgerules://portable-model.json", doc); err != nil {
		panic(fmt.Sprintf("model: failed to register schema resource: %v", err))
	}
	schema, err = compiler.Compile("edgerules://portable-model.json")
	if err != nil {
		panic(fmt.Sprintf("model: failed to compile portable model schema: %v", err))
	}
}

// ValidateJSON checks raw host-supplied JSON against the generated portable
// model schema, turning malformed host input into one clear schema error
// instead of a cascade of parser/linker diagnostics (SPEC_FULL.md §6.3).
func ValidateJSON(data []byte) error {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("model: invalid JSON: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("model: schema validation failed: %w", err)
	}
	return nil
}
