// Command notes is a small notes service built on mortar.
//
//	go run ./example/notes runserver 127.0.0.1:8080
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tailbits/mortar"
	"github.com/tailbits/mortar/cli"
	"github.com/tailbits/mortar/config"
	"github.com/tailbits/mortar/internal/logger"
	"github.com/tailbits/mortar/openapi"
	"github.com/tailbits/mortar/remote"
	"github.com/tailbits/mortar/schema"
)

var (
	noteOutput = schema.New("Note",
		schema.UUID("id"),
		schema.String("title"),
		schema.String("body"),
		schema.Bool("pinned"),
		schema.Time("created_at"),
	)

	listInput = schema.New("NoteFilter",
		schema.String("q", schema.Describe("Only notes whose title or body contain q.")),
	)

	createInput = schema.New("NoteInput",
		schema.String("title", schema.Required(), schema.MinLength(1), schema.MaxLength(120)),
		schema.String("body", schema.Default("")),
		schema.Bool("pinned", schema.Default(false)),
	).Strict()

	idInput = schema.New("NoteID",
		schema.UUID("id", schema.Required()),
	)

	statusOutput = schema.New("UpstreamStatus",
		schema.Object("upstreams", nil, schema.Describe("Upstream documents keyed by label.")),
	)

	updateInput = schema.New("NoteUpdate",
		schema.UUID("id", schema.Required()),
		schema.String("title", schema.MinLength(1), schema.MaxLength(120)),
		schema.String("body"),
		schema.Bool("pinned"),
	)
)

type handlers struct {
	store  *store
	remote *remote.Aggregator
	status []remote.Target
}

func (h *handlers) list() *mortar.Method {
	return &mortar.Method{
		Input:       listInput,
		Output:      noteOutput,
		Description: "List notes, newest first.",
		Execute: func(_ context.Context, m *mortar.Method) ([]any, error) {
			notes, total := h.store.list(m.Params.String("q"), m.Limit, m.Offset)
			m.Total = total

			out := make([]any, len(notes))
			for i, n := range notes {
				out[i] = n
			}
			return out, nil
		},
	}
}

func (h *handlers) create() *mortar.Method {
	return &mortar.Method{
		Input:       createInput,
		Output:      noteOutput,
		Description: "Create a note.",
		Execute: func(_ context.Context, m *mortar.Method) ([]any, error) {
			n := h.store.save(Note{
				Title:  m.Params.String("title"),
				Body:   m.Params.String("body"),
				Pinned: m.Params.Bool("pinned"),
			})
			return []any{n}, nil
		},
	}
}

func (h *handlers) detail() *mortar.Method {
	return &mortar.Method{
		Input:       idInput,
		Output:      noteOutput,
		Description: "Fetch a note.",
		Execute: func(_ context.Context, m *mortar.Method) ([]any, error) {
			n, ok := h.store.get(m.Params.UUID("id"))
			if !ok {
				return nil, mortar.NotFound("Note not found")
			}
			return []any{n}, nil
		},
	}
}

func (h *handlers) update() *mortar.Method {
	return &mortar.Method{
		Input:       updateInput,
		Output:      noteOutput,
		Description: "Update the given fields of a note.",
		Execute: func(_ context.Context, m *mortar.Method) ([]any, error) {
			n, ok := h.store.get(m.Params.UUID("id"))
			if !ok {
				return nil, mortar.NotFound("Note not found")
			}

			if m.Params.Has("title") {
				n.Title = m.Params.String("title")
			}
			if m.Params.Has("body") {
				n.Body = m.Params.String("body")
			}
			if m.Params.Has("pinned") {
				n.Pinned = m.Params.Bool("pinned")
			}

			return []any{h.store.save(n)}, nil
		},
	}
}

func (h *handlers) remove() *mortar.Method {
	return &mortar.Method{
		Input:       idInput,
		Description: "Delete a note.",
		Execute: func(_ context.Context, m *mortar.Method) ([]any, error) {
			if !h.store.delete(m.Params.UUID("id")) {
				return nil, mortar.NotFound("Note not found")
			}
			return nil, nil
		},
	}
}

// upstreamStatus reports the documents of the configured upstream services.
func (h *handlers) upstreamStatus() *mortar.Method {
	return &mortar.Method{
		Output:      statusOutput,
		Description: "Aggregate the status documents of upstream services.",
		Tags:        []string{"Status"},
		Execute: func(ctx context.Context, _ *mortar.Method) ([]any, error) {
			docs, err := h.remote.Fetch(ctx, h.status)
			if err != nil {
				return nil, err
			}
			return []any{map[string]any{"upstreams": docs}}, nil
		},
	}
}

// parseTargets reads "label=url" pairs separated by commas.
func parseTargets(s string) []remote.Target {
	var targets []remote.Target
	for _, pair := range strings.Split(s, ",") {
		label, u, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || label == "" || u == "" {
			continue
		}
		targets = append(targets, remote.Target{Label: label, URL: u})
	}
	return targets
}

func newApp(settings *config.Settings, h *handlers, opts ...mortar.Option) *mortar.App {
	app := mortar.New(settings, opts...)

	notes := app.NewRouteGroup("Notes")
	notes.Handle("/", mortar.NewView("Notes",
		mortar.Resource{}.Get(h.list).Post(h.create),
		mortar.WithLocationRoute("note-detail"),
	))
	notes.Handle("/{id}", mortar.NewView("Note Detail",
		mortar.Resource{}.Get(h.detail).Put(h.update).Delete(h.remove),
	))

	mobile := app.NewRouteGroup("Mobile").NewRouteGroup("Notes")
	mobile.Handle("/", mortar.NewView("Mobile Notes",
		mortar.Resource{}.Get(h.list).Post(h.create),
		mortar.WithFlavor(mortar.Mobile),
	))

	app.Handle("/status", mortar.NewView("Status", mortar.Resource{}.Get(h.upstreamStatus)))

	docs := openapi.NewGenerator(app,
		openapi.WithInfo("Notes API", "1.0.0", "A small notes service built on mortar."),
	)
	app.Mount("/openapi.json", docs.Handler())

	return app
}

func main() {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(settings)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	h := &handlers{
		store:  newStore(),
		remote: remote.New(remote.WithLogger(log)),
		status: parseTargets(os.Getenv("NOTES_UPSTREAMS")),
	}

	app := newApp(settings, h, mortar.WithLogger(log))
	cli.Execute(cli.New(app, settings))
}
