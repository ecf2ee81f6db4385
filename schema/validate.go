package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

func (s *Schema) compile() (*gojsonschema.Schema, error) {
	s.once.Do(func() {
		doc := gojsonschema.NewBytesLoader(s.Document())
		s.compiled, s.err = gojsonschema.NewSchema(doc)
		if s.err != nil {
			s.err = fmt.Errorf("gojsonschema.NewSchema: [%s] %w", s.name, s.err)
		}
	})

	return s.compiled, s.err
}

// check validates the coerced record against the schema's declared
// constraints and adds every violation to errs.
func (s *Schema) check(rec Record, errs FieldErrors) error {
	if len(rec) == 0 {
		return nil
	}

	sch, err := s.compile()
	if err != nil {
		return err
	}

	res, err := sch.Validate(gojsonschema.NewGoLoader(map[string]any(rec)))
	if err != nil {
		return fmt.Errorf("json schema validate: %w", err)
	}

	if res.Valid() {
		return nil
	}

	for _, resErr := range res.Errors() {
		switch resErr.(type) {
		// presence and unknown keys are reported while coercing
		case *gojsonschema.RequiredError, *gojsonschema.AdditionalPropertyNotAllowedError:
			continue
		case *gojsonschema.NumberAllOfError, *gojsonschema.NumberAnyOfError, *gojsonschema.NumberOneOfError:
			continue
		}

		field, rest := splitField(resErr.Field())
		msg := newErrorMessage(resErr)
		if rest != "" {
			msg = rest + ": " + msg
		}
		errs.Add(field, msg)
	}

	return nil
}

// splitField separates the top-level field from the nested path of a
// gojsonschema field reference such as "address.city" or "tags.1".
func splitField(path string) (string, string) {
	field, rest, _ := strings.Cut(path, ".")
	if rest != "" {
		rest = strings.ReplaceAll(rest, ".", ": ")
	}
	return field, rest
}
