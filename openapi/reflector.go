package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/daveshanley/vacuum/model"
	"github.com/daveshanley/vacuum/motor"
	"github.com/daveshanley/vacuum/rulesets"
	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi31"
)

type definitionsMap map[string]jsonschema.Schema

type Reflector struct {
	*openapi31.Reflector
	allDefs definitionsMap
	tags    map[string]bool
	log     zerolog.Logger
}

func newReflector(info Info, log zerolog.Logger) *Reflector {
	reflector := openapi31.NewReflector()
	reflector.Spec = &openapi31.Spec{Openapi: "3.1.0"}
	reflector.Spec.Info.
		WithTitle(info.Title).
		WithVersion(info.Version)
	if info.Description != "" {
		reflector.Spec.Info.WithDescription(info.Description)
	}
	if info.ServerURL != "" {
		reflector.Spec.WithServers(openapi31.Server{URL: info.ServerURL})
	}

	reflector.Reflector.DefaultOptions = append(reflector.Reflector.DefaultOptions, jsonschema.DefinitionsPrefix("#/components/schemas/"))

	return &Reflector{
		Reflector: reflector,
		allDefs:   make(definitionsMap),
		tags:      make(map[string]bool),
		log:       log,
	}
}

func (r *Reflector) ingest(records []Record) error {
	for _, record := range records {
		ctx, err := r.newOperationContext(record.Method, record.Path)
		if err != nil {
			return fmt.Errorf("failed to create operation context: %w", err)
		}

		if err := ctx.from(record); err != nil {
			return fmt.Errorf("failed to populate operation context for %s: %w", record.ID, err)
		}

		if err := ctx.addToReflector(); err != nil {
			return fmt.Errorf("failed to add operation %s: %w", record.ID, err)
		}
	}

	return nil
}

// lint applies vacuum's recommended rule set and fails on schema violations.
func (r *Reflector) lint() error {
	specBytes, err := r.marshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	defaultRS := rulesets.BuildDefaultRuleSets()
	recommendedRS := defaultRS.GenerateOpenAPIRecommendedRuleSet()

	lintingResults := motor.ApplyRulesToRuleSet(
		&motor.RuleSetExecution{
			RuleSet: recommendedRS,
			Spec:    specBytes,
		})

	resultSet := model.NewRuleResultSet(lintingResults.Results)
	resultSet.SortResultsByLineNumber()

	schemasResults := resultSet.GetRuleResultsForCategory("schemas")

	errs := make([]error, 0)
	for _, ruleResult := range schemasResults.RuleResults {
		for _, violation := range ruleResult.Results {
			errs = append(errs, fmt.Errorf(" - [%d:%d] %s", violation.StartNode.Line, violation.StartNode.Column, violation.Message))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}

	return nil
}

func (r *Reflector) marshalJSON() ([]byte, error) {
	return r.Reflector.Spec.MarshalJSON()
}

// collectDefinitions commits every definition gathered while adding request
// and response structures into the document components.
func (r *Reflector) collectDefinitions() error {
	seen := make(map[string]string) // normalized key -> original key
	for defName := range r.allDefs {
		normalized := strings.ToLower(defName)
		if orig, exists := seen[normalized]; exists {
			return fmt.Errorf("conflicting definitions: %q and %q", orig, defName)
		}
		seen[normalized] = defName
	}

	if r.Reflector.Spec.Components == nil {
		r.Reflector.Spec.Components = &openapi31.Components{}
	}

	for defName, def := range r.allDefs {
		def.Definitions = nil
		sm, err := def.ToSchemaOrBool().ToSimpleMap()
		if err != nil {
			return fmt.Errorf("definition %s: %w", defName, err)
		}
		r.Reflector.Spec.Components.WithSchemasItem(defName, sm)
	}

	return nil
}

func (r *Reflector) collectTags(tags []string) {
	r.Spec.Tags = make([]openapi31.Tag, len(tags))
	for i, tag := range tags {
		r.Spec.Tags[i] = openapi31.Tag{Name: tag}
	}
}

func (r *Reflector) addModel(m Model) error {
	schema, err := m.JSONSchema()
	if err != nil {
		return fmt.Errorf("failed to get JSON schema: %w", err)
	}

	if err := r.addDefinition(m.Name(), schema); err != nil {
		return fmt.Errorf("failed to add definition: %w", err)
	}

	return nil
}

// addDefinition records a named schema. A name seen before must carry an
// identical schema.
func (r *Reflector) addDefinition(name string, schema jsonschema.Schema) error {
	if name == "" {
		return fmt.Errorf("definition name cannot be empty")
	}

	if existingDef, ok := r.allDefs[name]; ok {
		if !r.isSchemaIdentical(existingDef, schema) {
			return fmt.Errorf("definition with name [%s] already exists but with a different definition", name)
		}
		return nil
	}
	r.allDefs[name] = schema

	return nil
}

func (r *Reflector) newOperationContext(method, path string) (*ContextWrapper, error) {
	oc, err := r.Reflector.NewOperationContext(method, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation context: %w", err)
	}

	return NewContextWrapper(oc, r), nil
}

/* -------------------------------------------------------------------------- */

func (r *Reflector) isSchemaIdentical(a jsonschema.Schema, b jsonschema.Schema) bool {
	a.Examples = nil
	b.Examples = nil

	aa, _ := a.MarshalJSON()
	bb, _ := b.MarshalJSON()

	if string(aa) == string(bb) {
		return true
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(pretty(aa)), string(pretty(bb)), false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	r.log.Warn().Str("diff", dmp.DiffPrettyText(diffs)).Msg("conflicting schema definitions")

	return false
}

func pretty(schema []byte) []byte {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, schema, "", "  "); err != nil {
		return schema
	}
	return prettyJSON.Bytes()
}
