package openapi

import (
	"encoding/json"
	"fmt"

	"github.com/swaggest/jsonschema-go"
	"github.com/tailbits/mortar"
	"github.com/tailbits/mortar/schema"
)

var _ jsonschema.Exposer = (*Model)(nil)

// Model exposes a prebuilt JSON schema to the reflector under a fixed
// definition name.
type Model struct {
	jsonschema.Struct
	schema jsonschema.Schema
}

func (m Model) Name() string {
	return m.DefName
}

func (m Model) JSONSchema() (jsonschema.Schema, error) {
	return m.schema, nil
}

func newModel(name string, doc map[string]any) (Model, error) {
	d, err := json.Marshal(doc)
	if err != nil {
		return Model{}, fmt.Errorf("marshal %s: %w", name, err)
	}

	var sch jsonschema.Schema
	if err := json.Unmarshal(d, &sch); err != nil {
		return Model{}, fmt.Errorf("error unmarshalling schema for %s: %w", name, err)
	}

	return Model{
		Struct: jsonschema.Struct{DefName: name},
		schema: sch,
	}, nil
}

func inputModel(s *schema.Schema) (Model, error) {
	return newModel(s.Name(), documentOf(s))
}

// envelopeModel wraps the output schema in the response envelope of flavor.
func envelopeModel(out *schema.Schema, flavor mortar.Flavor) (Model, error) {
	name := "Nil"
	if !out.IsNil() && out.Name() != "" {
		name = out.Name()
	}

	result := map[string]any{
		"type":  "array",
		"items": documentOf(out),
	}

	if flavor == mortar.Mobile {
		return newModel(name+"MobileEnvelope", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{"type": "integer", "description": "Zero on success, the error status otherwise."},
				"data": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"result":     result,
						"pagination": nullable(paginationDocument()),
					},
					"required": []string{"result", "pagination"},
				},
				"error":  errorRecordDocument(),
				"errors": map[string]any{"type": "array", "items": errorRecordDocument()},
			},
			"required": []string{"code", "data"},
		})
	}

	return newModel(name+"Envelope", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"result":     result,
			"success":    map[string]any{"type": "boolean"},
			"errors":     map[string]any{"type": "array", "items": errorRecordDocument()},
			"pagination": paginationDocument(),
		},
		"required": []string{"result", "success"},
	})
}

func errorEnvelopeModel() (Model, error) {
	return envelopeModel(nil, mortar.Standard)
}

func documentOf(s *schema.Schema) map[string]any {
	if s.IsNil() {
		return map[string]any{"type": "object"}
	}

	var doc map[string]any
	if err := json.Unmarshal(s.Document(), &doc); err != nil {
		return map[string]any{"type": "object"}
	}
	return doc
}

func paginationDocument() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"total":  map[string]any{"type": "integer"},
			"limit":  map[string]any{"type": "integer"},
			"offset": map[string]any{"type": "integer"},
		},
		"required": []string{"total", "limit", "offset"},
	}
}

func errorRecordDocument() map[string]any {
	return map[string]any{
		"oneOf": []any{
			map[string]any{"type": "string"},
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"code":    map[string]any{"type": "integer"},
					"message": map[string]any{"type": "string"},
					"fields": map[string]any{
						"type":                 "object",
						"additionalProperties": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
				"required": []string{"code", "message"},
			},
		},
	}
}

func nullable(doc map[string]any) map[string]any {
	return map[string]any{
		"oneOf": []any{doc, map[string]any{"type": "null"}},
	}
}
