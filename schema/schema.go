// Package schema contains the declarative validation model used by mortar
// methods.
//
// A Schema is a named, ordered set of field descriptors. It plays two roles:
// as an input schema it turns untyped request data (query values, JSON or form
// bodies) into a validated Record, reporting every failing field in one pass;
// as an output schema it serializes domain values into primitive mappings for
// the wire.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/swaggest/jsonschema-go"
	"github.com/xeipuuv/gojsonschema"
)

// Kind is the primitive type a field coerces its values into.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindUUID
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindUUID:
		return "uuid"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Validator is a custom check run against a successfully coerced value.
// The returned error's message becomes the field's summary.
type Validator func(value any) error

// Field describes a single named value of a schema.
type Field struct {
	Name        string
	Kind        Kind
	Elem        Kind    // element kind for KindList
	Schema      *Schema // nested schema for KindObject, or list elements of KindObject
	Required    bool
	Default     any
	Description string

	MinLength *int
	MaxLength *int
	Minimum   *float64
	Maximum   *float64
	Pattern   string
	Format    string
	Enum      []any

	Validators []Validator
}

// FieldOption configures a Field.
type FieldOption func(*Field)

func Required() FieldOption {
	return func(f *Field) {
		f.Required = true
	}
}

func Default(v any) FieldOption {
	return func(f *Field) {
		f.Default = v
	}
}

func Describe(desc string) FieldOption {
	return func(f *Field) {
		f.Description = desc
	}
}

func MinLength(n int) FieldOption {
	return func(f *Field) {
		f.MinLength = &n
	}
}

func MaxLength(n int) FieldOption {
	return func(f *Field) {
		f.MaxLength = &n
	}
}

func Min(n float64) FieldOption {
	return func(f *Field) {
		f.Minimum = &n
	}
}

func Max(n float64) FieldOption {
	return func(f *Field) {
		f.Maximum = &n
	}
}

// Pattern restricts string values to the given regular expression.
func Pattern(expr string) FieldOption {
	return func(f *Field) {
		f.Pattern = expr
	}
}

// Format sets a JSON Schema format (email, uri, ipv4, ...) checked on string values.
func Format(format string) FieldOption {
	return func(f *Field) {
		f.Format = format
	}
}

func OneOf(values ...any) FieldOption {
	return func(f *Field) {
		f.Enum = values
	}
}

func Validate(v ...Validator) FieldOption {
	return func(f *Field) {
		f.Validators = append(f.Validators, v...)
	}
}

func newField(name string, kind Kind, opts []FieldOption) Field {
	f := Field{Name: name, Kind: kind}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func String(name string, opts ...FieldOption) Field { return newField(name, KindString, opts) }
func Int(name string, opts ...FieldOption) Field    { return newField(name, KindInt, opts) }
func Float(name string, opts ...FieldOption) Field  { return newField(name, KindFloat, opts) }
func Bool(name string, opts ...FieldOption) Field   { return newField(name, KindBool, opts) }
func Time(name string, opts ...FieldOption) Field   { return newField(name, KindTime, opts) }
func UUID(name string, opts ...FieldOption) Field   { return newField(name, KindUUID, opts) }

// List declares a field holding a sequence of elem values.
func List(name string, elem Kind, opts ...FieldOption) Field {
	f := newField(name, KindList, opts)
	f.Elem = elem
	return f
}

// ListOf declares a field holding a sequence of nested objects.
func ListOf(name string, s *Schema, opts ...FieldOption) Field {
	f := newField(name, KindList, opts)
	f.Elem = KindObject
	f.Schema = s
	return f
}

// Object declares a field holding a nested object described by s.
func Object(name string, s *Schema, opts ...FieldOption) Field {
	f := newField(name, KindObject, opts)
	f.Schema = s
	return f
}

// Schema is a named set of field definitions.
type Schema struct {
	name   string
	fields []Field
	strict bool

	once     sync.Once
	compiled *gojsonschema.Schema
	err      error
}

// New creates a schema from the given fields, in declaration order.
func New(name string, fields ...Field) *Schema {
	return &Schema{
		name:   name,
		fields: fields,
	}
}

// Strict makes the schema reject input keys it does not declare.
func (s *Schema) Strict() *Schema {
	s.strict = true
	return s
}

func (s *Schema) Name() string {
	return s.name
}

func (s *Schema) Fields() []Field {
	return s.fields
}

func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// IsNil reports whether the schema declares no fields.
func (s *Schema) IsNil() bool {
	return s == nil || len(s.fields) == 0
}

var nilSchema = New("NilEntity")

// Nil returns the shared schema with no fields. It accepts any input as an
// empty record and serializes every value to an empty object.
func Nil() *Schema {
	return nilSchema
}

// OrNil returns s, or the Nil schema when s is nil.
func OrNil(s *Schema) *Schema {
	if s == nil {
		return nilSchema
	}
	return s
}

// Document renders the schema as a JSON Schema document.
func (s *Schema) Document() []byte {
	doc, err := json.Marshal(s.document())
	if err != nil {
		// document() only holds JSON primitives
		panic(fmt.Sprintf("schema %s: %v", s.name, err))
	}
	return doc
}

// JSONSchema implements jsonschema.Exposer so schemas can be used directly
// by the openapi reflector.
func (s *Schema) JSONSchema() (jsonschema.Schema, error) {
	var sch jsonschema.Schema
	if err := json.Unmarshal(s.Document(), &sch); err != nil {
		return jsonschema.Schema{}, fmt.Errorf("error unmarshalling schema for %s: %w", s.name, err)
	}
	return sch, nil
}

func (s *Schema) document() map[string]any {
	props := make(map[string]any, len(s.fields))
	required := make([]string, 0)

	for _, f := range s.fields {
		props[f.Name] = f.document()
		if f.Required {
			required = append(required, f.Name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if s.name != "" {
		doc["title"] = s.name
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	if s.strict {
		doc["additionalProperties"] = false
	}

	return doc
}

func (f Field) document() map[string]any {
	var prop map[string]any
	if f.Kind == KindList {
		prop = map[string]any{
			"type":  "array",
			"items": kindDocument(f.Elem, f.Schema),
		}
	} else {
		prop = kindDocument(f.Kind, f.Schema)
	}

	if f.Description != "" {
		prop["description"] = f.Description
	}
	if f.Default != nil {
		prop["default"] = f.Default
	}
	if f.MinLength != nil {
		if f.Kind == KindList {
			prop["minItems"] = *f.MinLength
		} else {
			prop["minLength"] = *f.MinLength
		}
	}
	if f.MaxLength != nil {
		if f.Kind == KindList {
			prop["maxItems"] = *f.MaxLength
		} else {
			prop["maxLength"] = *f.MaxLength
		}
	}
	if f.Minimum != nil {
		prop["minimum"] = *f.Minimum
	}
	if f.Maximum != nil {
		prop["maximum"] = *f.Maximum
	}
	if f.Pattern != "" {
		prop["pattern"] = f.Pattern
	}
	if f.Format != "" {
		prop["format"] = f.Format
	}
	if len(f.Enum) > 0 {
		prop["enum"] = f.Enum
	}

	return prop
}

func kindDocument(k Kind, nested *Schema) map[string]any {
	switch k {
	case KindInt:
		return map[string]any{"type": "integer"}
	case KindFloat:
		return map[string]any{"type": "number"}
	case KindBool:
		return map[string]any{"type": "boolean"}
	case KindTime:
		return map[string]any{"type": "string", "format": "date-time"}
	case KindUUID:
		return map[string]any{"type": "string", "format": "uuid"}
	case KindObject:
		if nested == nil {
			return map[string]any{"type": "object"}
		}
		return nested.document()
	default:
		return map[string]any{"type": "string"}
	}
}
