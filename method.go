package mortar

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tailbits/mortar/config"
	"github.com/tailbits/mortar/schema"
)

// ExecuteFunc runs the business operation of a Method and returns its
// results in order. It may record non-fatal errors on m with AddError.
type ExecuteFunc func(ctx context.Context, m *Method) ([]any, error)

// BeforeFunc runs after validation, right before Execute.
type BeforeFunc func(ctx context.Context, m *Method) error

// AfterFunc runs once the envelope has been produced.
type AfterFunc func(ctx context.Context, m *Method, env *Envelope) error

// QueryFunc rewrites query parameters before they are validated.
type QueryFunc func(q url.Values) url.Values

// Factory builds a fresh Method for every request.
type Factory func() *Method

// Method is one business operation together with the state of a single
// invocation. The exported configuration fields are set by the Factory;
// the state fields are filled while a request is processed.
type Method struct {
	Input       *schema.Schema
	Output      *schema.Schema
	Description string
	Summary     string
	Tags        []string

	Execute         ExecuteFunc
	PreprocessQuery QueryFunc
	BeforeExecute   BeforeFunc
	AfterExecute    AfterFunc

	Params   schema.Record
	Result   []any
	Errors   []ErrorRecord
	Limit    int
	Offset   int
	Total    int
	Settings *config.Settings

	diagnostics []string
}

// AddError records a client-visible error without stopping execution.
func (m *Method) AddError(code int, message string) {
	m.Errors = append(m.Errors, ErrorRecord{Code: code, Message: message})
}

// Fail records a bare message error.
func (m *Method) Fail(message string) {
	m.Errors = append(m.Errors, ErrorRecord{Message: message})
}

// Diagnostics returns the server-side messages of faults that were hidden
// from the client.
func (m *Method) Diagnostics() []string {
	return m.diagnostics
}

func (m *Method) diagnose(msg string) {
	m.diagnostics = append(m.diagnostics, msg)
}

// Pagination returns the pagination block, or nil when no total was set.
func (m *Method) Pagination() *Pagination {
	if m.Total == 0 {
		return nil
	}

	return &Pagination{
		Total:  m.Total,
		Limit:  m.Limit,
		Offset: m.Offset,
	}
}

// ProduceOutput executes the method and shapes the standard envelope.
func (m *Method) ProduceOutput(ctx context.Context) (*Envelope, error) {
	if m.Execute == nil {
		return nil, ErrNotImplemented
	}

	res, err := m.Execute(ctx, m)
	if err != nil {
		return nil, err
	}
	m.Result = res

	out := make([]any, 0, len(res))
	for i, item := range res {
		obj, err := m.Output.Serialize(item)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		out = append(out, obj)
	}

	env := &Envelope{
		Result:     out,
		Success:    len(m.Errors) == 0,
		Pagination: m.Pagination(),
	}
	if len(m.Errors) > 0 {
		env.Errors = append([]ErrorRecord(nil), m.Errors...)
	}

	return env, nil
}
