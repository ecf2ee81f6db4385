package openapi

import (
	"strings"

	"github.com/tailbits/mortar"
	"github.com/tailbits/mortar/schema"
)

// Record is the documentation view of one registered operation.
type Record struct {
	ID            string
	Method        string
	Path          string
	Description   string
	Summary       string
	SuccessStatus int
	Flavor        mortar.Flavor
	Tags          []string
	Input         *schema.Schema
	Output        *schema.Schema
	Extensions    map[string]any
}

func (r Record) hasInput() bool {
	return !r.Input.IsNil()
}

func toRecord(op mortar.Operation, tagsFn func(mortar.Operation) []string) Record {
	return Record{
		ID:            op.OperationID,
		Method:        op.Method,
		Path:          documentPath(op.Path),
		Description:   op.Description,
		Summary:       op.Summary,
		SuccessStatus: op.SuccessCode,
		Flavor:        op.Flavor,
		Tags:          append(tagsFn(op), op.Tags...),
		Input:         op.Input,
		Output:        op.Output,
	}
}

// documentPath drops chi regexp constraints and the trailing wildcard, which
// OpenAPI paths cannot express.
func documentPath(p string) string {
	p = strings.TrimSuffix(p, "/*")

	var b strings.Builder
	for len(p) > 0 {
		start := strings.IndexByte(p, '{')
		if start < 0 {
			b.WriteString(p)
			break
		}
		b.WriteString(p[:start])

		depth, end := 0, -1
		for i := start; i < len(p); i++ {
			if p[i] == '{' {
				depth++
			} else if p[i] == '}' {
				depth--
				if depth == 0 {
					end = i
					break
				}
			}
		}
		if end < 0 {
			b.WriteString(p[start:])
			break
		}

		key, _, _ := strings.Cut(p[start+1:end], ":")
		b.WriteString("{" + key + "}")
		p = p[end+1:]
	}

	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}
