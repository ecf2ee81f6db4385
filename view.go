package mortar

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Flavor selects the response envelope a View renders.
type Flavor int

const (
	// Standard renders Envelope and reports outcomes through the HTTP status.
	Standard Flavor = iota
	// Mobile renders MobileEnvelope, always with status 200, and reports
	// outcomes through its code field.
	Mobile
)

func (f Flavor) String() string {
	if f == Mobile {
		return "mobile"
	}
	return "standard"
}

var successCodes = map[string]int{
	http.MethodGet:    http.StatusOK,
	http.MethodPost:   http.StatusCreated,
	http.MethodPut:    http.StatusOK,
	http.MethodDelete: http.StatusNoContent,
}

// DefaultSuccessCode returns the status of a successful standard response.
func DefaultSuccessCode(verb string) int {
	if code, ok := successCodes[verb]; ok {
		return code
	}
	return http.StatusOK
}

// View dispatches requests for one resource to the Method bound to the
// request verb and renders the outcome.
type View struct {
	Name          string
	Resource      Resource
	Flavor        Flavor
	LocationRoute string

	app *App
}

type ViewOption func(*View)

func WithFlavor(f Flavor) ViewOption {
	return func(v *View) {
		v.Flavor = f
	}
}

// WithLocationRoute names the route used to build the Location header of
// created resources. It defaults to the route the view is registered under.
func WithLocationRoute(name string) ViewOption {
	return func(v *View) {
		v.LocationRoute = name
	}
}

func NewView(name string, res Resource, opts ...ViewOption) *View {
	v := &View{
		Name:     name,
		Resource: res,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// outcome is the flavor-independent result of processing one request.
type outcome struct {
	env    *Envelope
	status int
}

func (v *View) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if v.app == nil {
		panic(fmt.Sprintf("view %s is not registered with an app", v.Name))
	}

	log := v.app.requestLogger(r)
	defStatus := DefaultSuccessCode(r.Method)

	var (
		m   *Method
		out outcome
	)

	factory, ok := v.Resource.lookup(r.Method)
	if ok {
		m = factory()
	}

	if m == nil {
		w.Header().Set("Allow", strings.Join(v.Resource.Allowed(), ", "))

		fault := MethodNotAllowed()
		out = outcome{env: errorEnvelope([]ErrorRecord{fault.Record()}), status: fault.Status}
		log.Warn().Str("view", v.Name).Int("status", out.status).Msg(fault.Message)
	} else {
		out = v.dispatch(r, m, defStatus, log)
	}

	if v.Flavor == Mobile {
		code := 0
		if len(out.env.Errors) > 0 {
			code = out.status
		}
		respond(w, newMobileEnvelope(out.env, code), http.StatusOK)
		return
	}

	if r.Method == http.MethodPost && len(out.env.Result) > 0 {
		v.setLocation(w, out.env.Result[0], log)
	}

	respond(w, out.env, out.status)
}

// dispatch drives the Method lifecycle and converts every fault into an
// error envelope. It never panics.
func (v *View) dispatch(r *http.Request, m *Method, defStatus int, log *zerolog.Logger) outcome {
	status := defStatus

	env, err := v.run(r.Context(), r, m)
	if err != nil {
		status = v.fault(r, m, err, defStatus, log)
		env = errorEnvelope(m.Errors)
	}

	if len(env.Errors) > 0 && status == defStatus {
		first := env.Errors[0]
		status = first.Code
		if first.IsBare() || status == 0 {
			status = http.StatusInternalServerError
		}

		log.Error().
			Str("view", v.Name).
			Interface("params", m.Params).
			Interface("errors", env.Errors).
			Int("status", status).
			Msg(first.Message)
	}

	return outcome{env: env, status: status}
}

func (v *View) run(ctx context.Context, r *http.Request, m *Method) (env *Envelope, err error) {
	defer func() {
		if p := recover(); p != nil {
			env, err = nil, &panicError{value: p}
		}
	}()

	if err := m.ValidateRequest(r, v.app); err != nil {
		return nil, err
	}

	if m.BeforeExecute != nil {
		if err := m.BeforeExecute(ctx, m); err != nil {
			return nil, fmt.Errorf("before execute: %w", err)
		}
	}

	env, err = m.ProduceOutput(ctx)
	if err != nil {
		return nil, err
	}

	if m.AfterExecute != nil {
		if err := m.AfterExecute(ctx, m, env); err != nil {
			return nil, fmt.Errorf("after execute: %w", err)
		}
	}

	return env, nil
}

// fault records err on m and returns the response status.
func (v *View) fault(r *http.Request, m *Method, err error, defStatus int, log *zerolog.Logger) int {
	if apiErr, ok := AsAPIError(err); ok {
		m.Errors = append(m.Errors, apiErr.Record())

		status := apiErr.Status
		if status == 0 {
			status = defStatus
		}

		evt := log.Warn()
		if apiErr.Status == 0 || apiErr.Status >= http.StatusInternalServerError {
			evt = log.Error()
		}
		evt.Err(err).
			Str("view", v.Name).
			Interface("params", m.Params).
			Int("status", apiErr.Status).
			Msg(apiErr.Message)

		return status
	}

	status := statusOf(err)
	m.Errors = append(m.Errors, ErrorRecord{Code: status, Message: ServerErrorMessage})
	m.diagnose(err.Error())

	log.Error().
		Err(err).
		Str("view", v.Name).
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Interface("params", m.Params).
		Strs("diagnostics", m.Diagnostics()).
		Int("status", status).
		Msg("unhandled error")

	return status
}

func (v *View) setLocation(w http.ResponseWriter, first any, log *zerolog.Logger) {
	route := v.LocationRoute
	if route == "" {
		route = v.app.RouteFor(v.Name)
	}

	parts := make(map[string]string)
	if obj, ok := first.(map[string]any); ok {
		for key, val := range obj {
			if val != nil {
				parts[key] = fmt.Sprint(val)
			}
		}
	}

	loc, err := v.app.URL(route, parts, nil)
	if err != nil {
		log.Error().Err(err).Str("view", v.Name).Str("route", route).Msg("unable to build location")
		return
	}

	w.Header().Set("Location", loc)
}
