package http

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var specYAML []byte

// RawSpec returns the embedded OpenAPI document.
func RawSpec() []byte {
	return specYAML
}

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return doc, nil
}

// schemaValidator checks decoded JSON against a named component schema.
type schemaValidator struct {
	schema *openapi3.Schema
}

func newSchemaValidator(doc *openapi3.T, name string) (*schemaValidator, error) {
	if doc.Components == nil {
		return nil, fmt.Errorf("spec has no components")
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref.Value == nil {
		return nil, fmt.Errorf("spec has no schema %q", name)
	}
	return &schemaValidator{schema: ref.Value}, nil
}

func (v *schemaValidator) Validate(value any) error {
	return v.schema.VisitJSON(value)
}
