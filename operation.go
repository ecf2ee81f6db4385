package mortar

import (
	"strings"

	"github.com/tailbits/mortar/internal/casing"
	"github.com/tailbits/mortar/schema"
)

// Operation describes one verb of a registered view, for documentation.
type Operation struct {
	OperationID string         `json:"operationID,omitempty"`
	View        string         `json:"view,omitempty"`
	Route       string         `json:"route,omitempty"`
	Input       *schema.Schema `json:"-"`
	Output      *schema.Schema `json:"-"`
	Method      string         `json:"method,omitempty"`
	Path        string         `json:"path,omitempty"`
	Description string         `json:"description,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	SuccessCode int            `json:"code,omitempty"`
	Flavor      Flavor         `json:"flavor"`
	Tags        []string       `json:"tags,omitempty"`
}

func newOperation(v *View, route string, group string, verb string, path string) Operation {
	op := Operation{
		OperationID: strings.ToLower(verb) + "_" + casing.ToSnakeCase(route),
		View:        v.Name,
		Route:       route,
		Method:      verb,
		Path:        path,
		SuccessCode: DefaultSuccessCode(verb),
		Flavor:      v.Flavor,
	}
	if v.Flavor == Mobile {
		op.SuccessCode = 200
	}

	// a throwaway instance exposes the method's declared schemas
	if factory, ok := v.Resource.lookup(verb); ok {
		if m := factory(); m != nil {
			op.Input = m.Input
			op.Output = m.Output
			op.Description = m.Description
			op.Summary = m.Summary
			op.Tags = nonEmpty(m.Tags)
		}
	}

	if len(op.Tags) == 0 && group != "" {
		op.Tags = []string{casing.KebabToTitleCase(lastSegment(group))}
	}

	return op
}

func nonEmpty(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func lastSegment(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
