package mortar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tailbits/mortar/config"
	"github.com/tailbits/mortar/schema"
)

const (
	HeaderLimit  = "X-Limit"
	HeaderOffset = "X-Offset"

	maxFormMemory = 32 << 20
)

// ValidateRequest resolves pagination and validates the request input
// against m.Input. Reads and deletes take their input from the query string;
// creates and updates from a JSON object body, or the form body when the
// body is not a JSON object. Path parameters are merged into either.
func (m *Method) ValidateRequest(r *http.Request, app *App) error {
	m.Errors = nil
	m.Result = []any{}

	if r == nil {
		return BadRequest(nil)
	}

	settings := config.Default()
	if app != nil && app.Settings != nil {
		settings = app.Settings
	}

	query := pathParams(r)
	for key, vals := range r.URL.Query() {
		if _, ok := query[key]; !ok {
			query[key] = vals
		}
	}
	if m.PreprocessQuery != nil {
		query = m.PreprocessQuery(query)
	}

	m.Limit = resolvePage(r.Header.Get(HeaderLimit), query, "limit", settings.Limit)
	m.Offset = resolvePage(r.Header.Get(HeaderOffset), query, "offset", settings.Offset)

	var raw map[string]any
	switch r.Method {
	case http.MethodPost, http.MethodPut:
		body, err := readBody(r)
		if err != nil {
			return err
		}
		raw = body
		for key, vals := range pathParams(r) {
			if _, ok := raw[key]; !ok {
				raw[key] = vals[0]
			}
		}
	default:
		raw = schema.FromValues(query)
	}

	params, err := m.Input.Parse(raw)
	if err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			return BadRequest(ve.Fields)
		}
		return fmt.Errorf("parse input: %w", err)
	}

	m.Params = params
	m.Settings = settings

	return nil
}

// resolvePage picks limit or offset from the header, then the query, then the
// configured default. Any integer header is taken as sent, while query values
// must be positive. The query key is always consumed so it never reaches
// input validation.
func resolvePage(header string, query url.Values, key string, def int) int {
	qv := query.Get(key)
	query.Del(key)

	if n, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		return n
	}

	if n, err := strconv.Atoi(strings.TrimSpace(qv)); err == nil && n > 0 {
		return n
	}

	return def
}

func pathParams(r *http.Request) url.Values {
	params := make(url.Values)

	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return params
	}

	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		params.Set(key, rctx.URLParams.Values[i])
	}

	return params
}

// readBody decodes a JSON object body, falling back to the form body.
func readBody(r *http.Request) (map[string]any, error) {
	if r.Body == nil {
		return map[string]any{}, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read the body: %w", err)
	}
	// restore the body for the form parser and later handlers
	r.Body = io.NopCloser(bytes.NewReader(body))

	var obj map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&obj); err == nil && obj != nil {
		return obj, nil
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, &APIError{
			Status:  http.StatusBadRequest,
			Message: "Unable to parse the request body",
			Err:     err,
		}
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	return schema.FromValues(r.PostForm), nil
}
