// Package openapi renders the operations registered on a mortar.App as an
// OpenAPI 3.1 document.
package openapi

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/rs/zerolog"
	"github.com/tailbits/mortar"
)

// Info fills the info and servers blocks of the document.
type Info struct {
	Title       string
	Version     string
	Description string
	ServerURL   string
}

type generatorConfig struct {
	lint        bool
	filterFn    func(Record) bool
	tagsFn      func(mortar.Operation) []string
	allTags     []string
	transformFn func(*Record)
	tagged      []string
	info        Info
	log         zerolog.Logger
}

type Option func(*generatorConfig)

// Lint runs the generated document through vacuum's recommended rules.
func Lint(enabled bool) Option {
	return func(c *generatorConfig) {
		c.lint = enabled
	}
}

func Filter(fn func(Record) bool) Option {
	return func(c *generatorConfig) {
		c.filterFn = fn
	}
}

// Tags adds tags computed per operation. all lists tags that should appear
// in the document even when no operation uses them.
func Tags(fn func(mortar.Operation) []string, all []string) Option {
	return func(c *generatorConfig) {
		c.tagsFn = fn
		c.allTags = all
	}
}

func Transform(fn func(*Record)) Option {
	return func(c *generatorConfig) {
		c.transformFn = fn
	}
}

// Tagged documents only the operations that carry every one of tags.
func Tagged(tags ...string) Option {
	return func(c *generatorConfig) {
		c.tagged = tags
	}
}

func WithInfo(title, version, description string) Option {
	return func(c *generatorConfig) {
		c.info.Title = title
		c.info.Version = version
		c.info.Description = description
	}
}

func WithServer(url string) Option {
	return func(c *generatorConfig) {
		c.info.ServerURL = url
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *generatorConfig) {
		c.log = l
	}
}

type Generator struct {
	app    *mortar.App
	config generatorConfig
}

func NewGenerator(app *mortar.App, opts ...Option) *Generator {
	config := generatorConfig{
		filterFn:    func(Record) bool { return true },
		tagsFn:      func(mortar.Operation) []string { return nil },
		transformFn: func(*Record) {},
		info:        Info{Title: "API", Version: "1.0.0"},
		log:         app.Logger(),
	}

	for _, opt := range opts {
		opt(&config)
	}

	return &Generator{app: app, config: config}
}

// Records lists the documented operations after transform and filter.
func (g *Generator) Records() []Record {
	ops := g.app.Operations()
	if len(g.config.tagged) > 0 {
		ops = g.app.Registry().TaggedOps(g.config.tagged...)
	}

	var records []Record
	for _, op := range ops {
		record := toRecord(op, g.config.tagsFn)
		g.config.transformFn(&record)

		if g.config.filterFn(record) {
			records = append(records, record)
		}
	}
	return records
}

// Schema builds the document. Every call starts from a fresh reflector.
func (g *Generator) Schema() ([]byte, error) {
	r := newReflector(g.config.info, g.config.log)

	if err := r.ingest(g.Records()); err != nil {
		return nil, fmt.Errorf("failed to ingest records: %w", err)
	}

	collectedTags := []string{}
	for tag := range r.tags {
		collectedTags = append(collectedTags, tag)
	}
	for _, extra := range g.config.allTags {
		if _, ok := r.tags[extra]; !ok {
			collectedTags = append(collectedTags, extra)
		}
	}

	sort.Strings(collectedTags)
	r.collectTags(collectedTags)
	if err := r.collectDefinitions(); err != nil {
		return nil, fmt.Errorf("failed to collect definitions: %w", err)
	}

	if g.config.lint {
		if err := r.lint(); err != nil {
			return nil, fmt.Errorf("failed to validate the generated schema: %w", err)
		}
	}

	return r.marshalJSON()
}

// Handler serves the document as JSON.
func (g *Generator) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, err := g.Schema()
		if err != nil {
			g.config.log.Error().Err(err).Msg("openapi generation failed")
			http.Error(w, mortar.ServerErrorMessage, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	})
}
