// Package mortar is a request pipeline between net/http and business logic.
//
// A Method validates a request into typed parameters, executes a business
// operation and shapes its results. A View binds HTTP verbs to Methods and
// renders the outcome as a standard or mobile JSON envelope. The App owns
// the router, named routes and process-wide settings.
package mortar

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/tailbits/mortar/config"
	"github.com/tailbits/mortar/internal/casing"
)

// App holds the router, the registered views and the read-only settings
// shared by every request.
type App struct {
	Settings *config.Settings

	router   chi.Router
	log      zerolog.Logger
	registry Registry
	routes   map[string]string // route name -> pattern
	views    map[string]string // view name -> route name

	middleware []func(http.Handler) http.Handler
}

type Option func(*App)

func WithLogger(l zerolog.Logger) Option {
	return func(a *App) {
		a.log = l
	}
}

// WithMiddleware appends middleware after the built-in request logging.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(a *App) {
		a.middleware = append(a.middleware, mw...)
	}
}

func New(settings *config.Settings, opts ...Option) *App {
	if settings == nil {
		settings = config.Default()
	}

	a := &App{
		Settings: settings,
		router:   chi.NewRouter(),
		log:      zerolog.Nop(),
		registry: make(Registry),
		routes:   make(map[string]string),
		views:    make(map[string]string),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		hlog.NewHandler(a.log),
		requestIDLogger,
		hlog.MethodHandler("method"),
		hlog.URLHandler("url"),
		hlog.AccessHandler(accessLog),
		middleware.Recoverer,
	)
	a.router.Use(a.middleware...)

	return a
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) Logger() zerolog.Logger {
	return a.log
}

// Handle registers v at pattern under the given route name, defaulting to
// the kebab-case form of the view name. The first route of a view is the
// one used for its Location headers.
func (a *App) Handle(pattern string, v *View, name ...string) {
	a.handle("", pattern, v, name...)
}

func (a *App) handle(group string, pattern string, v *View, name ...string) {
	if v == nil || v.Name == "" {
		panic(fmt.Sprintf("cannot register a view without a name at %s", pattern))
	}
	if v.app != nil && v.app != a {
		panic(fmt.Sprintf("view %s is already registered with another app", v.Name))
	}

	route := casing.ToKebabCase(v.Name)
	if len(name) > 0 && name[0] != "" {
		route = name[0]
	}
	if prev, ok := a.routes[route]; ok {
		panic(fmt.Sprintf("route name %s is already used by %s", route, prev))
	}

	v.app = a
	a.routes[route] = pattern
	if _, ok := a.views[v.Name]; !ok {
		a.views[v.Name] = route
	}

	for _, verb := range v.Resource.Allowed() {
		a.registry.add(group, newOperation(v, route, group, verb, pattern))
	}

	a.router.Handle(pattern, v)
}

// Mount attaches a plain handler, such as a documentation endpoint.
func (a *App) Mount(pattern string, h http.Handler) {
	a.router.Handle(pattern, h)
}

func (a *App) NewRouteGroup(name string) *RouteGroup {
	return &RouteGroup{
		app:  a,
		name: name,
	}
}

// RouteFor returns the route name registered for a view.
func (a *App) RouteFor(view string) string {
	if route, ok := a.views[view]; ok {
		return route
	}
	return casing.ToKebabCase(view)
}

// requestLogger returns the request-scoped logger installed by the hlog
// middleware, or the app logger when the request did not pass through it.
func (a *App) requestLogger(r *http.Request) *zerolog.Logger {
	l := hlog.FromRequest(r)
	if l.GetLevel() == zerolog.Disabled {
		return &a.log
	}
	return l
}

func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			log := zerolog.Ctx(r.Context())
			log.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
