package openapi

import (
	"fmt"
	"net/http"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi31"
	"github.com/tailbits/mortar"
	"github.com/tailbits/mortar/schema"
)

type ContextWrapper struct {
	openapi.OperationContext
	*openapi31.Operation
	reflector *Reflector
}

func (c ContextWrapper) addToReflector() error {
	return c.reflector.AddOperation(c.OperationContext)
}

// from takes a Record and uses it to populate the ContextWrapper with the necessary information to generate an OpenAPI operation.
func (c *ContextWrapper) from(record Record) error {
	if err := c.addResponses(record); err != nil {
		return err
	}

	pathParams := map[string]bool{}
	params := []openapi31.ParameterOrReference{}
	forEachPathParam(record.Method, record.Path, func(param string) {
		pathParams[param] = true
		params = append(params, makeRequiredPathParam(param, record.Input))
	})

	switch record.Method {
	case http.MethodPost, http.MethodPut:
		if record.hasInput() {
			in, err := inputModel(record.Input)
			if err != nil {
				return err
			}
			if err := c.addReqStructure(in); err != nil {
				return err
			}
		}
	default:
		if record.hasInput() {
			for _, f := range record.Input.Fields() {
				if !pathParams[f.Name] {
					params = append(params, makeQueryParam(f))
				}
			}
		}
	}

	if record.Method == http.MethodGet {
		params = append(params,
			makeQueryParam(schema.Int("limit", schema.Min(1), schema.Describe("Page size. The X-Limit header takes precedence."))),
			makeQueryParam(schema.Int("offset", schema.Min(1), schema.Describe("Page start. The X-Offset header takes precedence."))),
		)
	}

	c.WithParameters(params...)

	c.WithID(record.ID)
	c.WithTags(record.Tags...)
	for _, tag := range record.Tags {
		c.reflector.tags[tag] = true
	}
	c.SetDescription(record.Description)

	if record.Summary != "" {
		c.SetSummary(record.Summary)
	}

	if record.Extensions != nil && c.Operation != nil {
		c.Operation.WithMapOfAnything(record.Extensions)
	}

	return nil
}

func (c *ContextWrapper) addResponses(record Record) error {
	if record.Flavor == mortar.Standard && record.SuccessStatus == http.StatusNoContent {
		c.OperationContext.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	} else {
		env, err := envelopeModel(record.Output, record.Flavor)
		if err != nil {
			return err
		}
		if err := c.addRespStructure(env, openapi.WithHTTPStatus(record.SuccessStatus)); err != nil {
			return err
		}
	}

	// mobile errors travel in the 200 envelope
	if record.Flavor == mortar.Standard && record.hasInput() {
		env, err := errorEnvelopeModel()
		if err != nil {
			return err
		}
		if err := c.addRespStructure(env, openapi.WithHTTPStatus(http.StatusBadRequest)); err != nil {
			return err
		}
	}

	return nil
}

// addReqStructure provides duplicate-detection to the openapi-go AddReqStructure method.
func (c ContextWrapper) addReqStructure(o Model, options ...openapi.ContentOption) error {
	if err := c.reflector.addModel(o); err != nil {
		return fmt.Errorf("failed to add definition for %s: %w", o.Name(), err)
	}

	c.OperationContext.AddReqStructure(o, options...)

	return nil
}

// addRespStructure provides duplicate-detection to the openapi-go AddRespStructure method.
func (c ContextWrapper) addRespStructure(o Model, options ...openapi.ContentOption) error {
	if err := c.reflector.addModel(o); err != nil {
		return fmt.Errorf("failed to add definition for %s: %w", o.Name(), err)
	}

	c.OperationContext.AddRespStructure(o, options...)

	return nil
}

func NewContextWrapper(ctx openapi.OperationContext, r *Reflector) *ContextWrapper {
	ctxWrapper := ContextWrapper{
		OperationContext: ctx,
		reflector:        r,
	}
	if opExp, ok := ctx.(openapi31.OperationExposer); ok {
		ctxWrapper.Operation = opExp.Operation()
	}

	return &ctxWrapper
}

/* -------------------------------------------------------------------------- */

func forEachPathParam(method string, path string, f func(string)) {
	_, _, params, _ := openapi.SanitizeMethodPath(method, path)
	for _, p := range params {
		f(p)
	}
}

func makeRequiredPathParam(param string, input *schema.Schema) openapi31.ParameterOrReference {
	req := true

	sch := stringSchema()
	desc := ""
	if input != nil {
		if f, ok := input.Field(param); ok {
			sch = fieldSchema(f)
			desc = f.Description
		}
	}

	s, err := sch.ToSchemaOrBool().ToSimpleMap()
	if err != nil {
		return openapi31.ParameterOrReference{}
	}

	p := &openapi31.Parameter{
		Name:     param,
		In:       openapi31.ParameterInPath,
		Required: &req,
		Schema:   s,
	}
	if desc != "" {
		p.WithDescription(desc)
	}

	return openapi31.ParameterOrReference{Parameter: p}
}

func makeQueryParam(f schema.Field) openapi31.ParameterOrReference {
	req := f.Required

	fs := fieldSchema(f)
	s, err := fs.ToSchemaOrBool().ToSimpleMap()
	if err != nil {
		return openapi31.ParameterOrReference{}
	}

	param := &openapi31.Parameter{
		Name:     f.Name,
		In:       openapi31.ParameterInQuery,
		Required: &req,
		Schema:   s,
	}
	if f.Description != "" {
		param.WithDescription(f.Description)
	}
	return openapi31.ParameterOrReference{Parameter: param}
}

// fieldSchema documents a single field through the same JSON schema the
// validator checks against.
func fieldSchema(f schema.Field) jsonschema.Schema {
	doc, err := schema.New("", f).JSONSchema()
	if err != nil || doc.Properties == nil {
		return stringSchema()
	}

	prop, ok := doc.Properties[f.Name]
	if !ok || prop.TypeObject == nil {
		return stringSchema()
	}

	return *prop.TypeObject
}

func stringSchema() jsonschema.Schema {
	var (
		sch jsonschema.Schema
		jt  jsonschema.Type
	)
	jt.WithSimpleTypes(jsonschema.String)
	sch.WithType(jt)
	return sch
}
