package openapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tailbits/mortar"
	"github.com/tailbits/mortar/openapi"
	"github.com/tailbits/mortar/schema"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

var (
	noteInput = schema.New("NoteInput",
		schema.String("title", schema.Required(), schema.MaxLength(80)),
		schema.String("body"),
	)
	noteOutput = schema.New("Note",
		schema.UUID("id"),
		schema.String("title"),
		schema.String("body"),
	)
	listInput = schema.New("NoteFilter",
		schema.String("q", schema.Describe("Full text filter.")),
	)
)

func execute(context.Context, *mortar.Method) ([]any, error) { return nil, nil }

func listNotes() *mortar.Method {
	return &mortar.Method{Input: listInput, Output: noteOutput, Execute: execute, Description: "List notes"}
}

func createNote() *mortar.Method {
	return &mortar.Method{Input: noteInput, Output: noteOutput, Execute: execute, Description: "Create a note"}
}

func deleteNote() *mortar.Method {
	return &mortar.Method{Execute: execute, Description: "Delete a note"}
}

func newApp() *mortar.App {
	app := mortar.New(nil)
	notes := app.NewRouteGroup("Notes")
	notes.Handle("/", mortar.NewView("Notes", mortar.Resource{}.Get(listNotes).Post(createNote)))
	notes.Handle("/{id:[0-9a-f-]+}", mortar.NewView("Note Detail", mortar.Resource{}.Delete(deleteNote)))
	app.NewRouteGroup("Mobile").Handle("/notes", mortar.NewView("Mobile Notes", mortar.Resource{}.Get(listNotes), mortar.WithFlavor(mortar.Mobile)))
	return app
}

type document struct {
	Info struct {
		Title   string `json:"title"`
		Version string `json:"version"`
	} `json:"info"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	Paths      map[string]map[string]operation `json:"paths"`
	Components struct {
		Schemas map[string]json.RawMessage `json:"schemas"`
	} `json:"components"`
}

type operation struct {
	OperationID string   `json:"operationId"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Parameters  []struct {
		Name     string `json:"name"`
		In       string `json:"in"`
		Required bool   `json:"required"`
	} `json:"parameters"`
	RequestBody json.RawMessage            `json:"requestBody"`
	Responses   map[string]json.RawMessage `json:"responses"`
}

func (o operation) param(name string) (string, bool) {
	for _, p := range o.Parameters {
		if p.Name == name {
			return p.In, true
		}
	}
	return "", false
}

func generate(t *testing.T, app *mortar.App, opts ...openapi.Option) document {
	t.Helper()

	raw, err := openapi.NewGenerator(app, opts...).Schema()
	assert.NilError(t, err)

	var doc document
	assert.NilError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestOpenAPIGen(t *testing.T) {
	doc := generate(t, newApp(), openapi.WithInfo("Notes API", "1.2.0", "Notes."))

	assert.Equal(t, doc.Info.Title, "Notes API")
	assert.Equal(t, doc.Info.Version, "1.2.0")

	t.Run("list", func(t *testing.T) {
		op, ok := doc.Paths["/notes"]["get"]
		assert.Assert(t, ok)
		assert.Equal(t, op.OperationID, "get_notes")
		assert.DeepEqual(t, op.Tags, []string{"Notes"})

		for _, name := range []string{"q", "limit", "offset"} {
			in, ok := op.param(name)
			assert.Assert(t, ok, name)
			assert.Equal(t, in, "query")
		}
		assert.Assert(t, op.RequestBody == nil)
		assert.Assert(t, is.Contains(op.Responses, "200"))
	})

	t.Run("create", func(t *testing.T) {
		op, ok := doc.Paths["/notes"]["post"]
		assert.Assert(t, ok)
		assert.Equal(t, op.OperationID, "post_notes")
		assert.Assert(t, op.RequestBody != nil)
		assert.Assert(t, is.Contains(string(op.RequestBody), "NoteInput"))
		assert.Assert(t, is.Contains(op.Responses, "201"))
		assert.Assert(t, is.Contains(op.Responses, "400"))
	})

	t.Run("delete", func(t *testing.T) {
		op, ok := doc.Paths["/notes/{id}"]["delete"]
		assert.Assert(t, ok)
		assert.Equal(t, op.OperationID, "delete_note_detail")

		in, ok := op.param("id")
		assert.Assert(t, ok)
		assert.Equal(t, in, "path")
		assert.Assert(t, is.Contains(op.Responses, "204"))
	})

	t.Run("mobile", func(t *testing.T) {
		op, ok := doc.Paths["/mobile/notes"]["get"]
		assert.Assert(t, ok)
		assert.Assert(t, is.Contains(op.Responses, "200"))
		assert.Assert(t, is.Contains(string(op.Responses["200"]), "NoteMobileEnvelope"))
	})

	t.Run("components", func(t *testing.T) {
		for _, name := range []string{"NoteInput", "NoteEnvelope", "NoteMobileEnvelope", "NilEnvelope"} {
			assert.Assert(t, is.Contains(doc.Components.Schemas, name))
		}
	})

	t.Run("tags", func(t *testing.T) {
		var names []string
		for _, tag := range doc.Tags {
			names = append(names, tag.Name)
		}
		assert.DeepEqual(t, names, []string{"Mobile", "Notes"})
	})
}

func TestGeneratorOptions(t *testing.T) {
	app := newApp()

	doc := generate(t, app,
		openapi.Filter(func(r openapi.Record) bool { return r.Flavor == mortar.Standard }),
		openapi.Transform(func(r *openapi.Record) { r.Description = strings.ToUpper(r.Description) }),
		openapi.Tags(func(mortar.Operation) []string { return []string{"Public"} }, []string{"Unused"}),
	)

	_, ok := doc.Paths["/mobile/notes"]
	assert.Assert(t, !ok)

	op := doc.Paths["/notes"]["get"]
	assert.Equal(t, op.Description, "LIST NOTES")
	assert.DeepEqual(t, op.Tags, []string{"Public", "Notes"})

	var names []string
	for _, tag := range doc.Tags {
		names = append(names, tag.Name)
	}
	assert.DeepEqual(t, names, []string{"Notes", "Public", "Unused"})
}

func TestTaggedGenerator(t *testing.T) {
	doc := generate(t, newApp(), openapi.Tagged("Mobile"))

	assert.Equal(t, len(doc.Paths), 1)
	assert.Assert(t, is.Contains(doc.Paths, "/mobile/notes"))
	_, ok := doc.Paths["/notes"]
	assert.Assert(t, !ok)
}

func TestConflictingDefinitions(t *testing.T) {
	tests := []struct {
		name          string
		other         *schema.Schema
		errorContains string
	}{
		{
			name:          "same name with a different schema",
			other:         schema.New("Note", schema.Int("id")),
			errorContains: "already exists but with a different definition",
		},
		{
			name:          "names differing only by case",
			other:         schema.New("note", schema.UUID("id"), schema.String("title"), schema.String("body")),
			errorContains: "conflicting definitions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			other := func() *mortar.Method {
				return &mortar.Method{Output: tt.other, Execute: execute}
			}
			app.Handle("/others", mortar.NewView("Others", mortar.Resource{}.Get(other)))

			_, err := openapi.NewGenerator(app).Schema()
			assert.ErrorContains(t, err, tt.errorContains)
		})
	}
}

func TestIdenticalDefinitionsAreShared(t *testing.T) {
	app := newApp()
	clone := func() *mortar.Method {
		return &mortar.Method{
			Output:  schema.New("Note", schema.UUID("id"), schema.String("title"), schema.String("body")),
			Execute: execute,
		}
	}
	app.Handle("/copies", mortar.NewView("Copies", mortar.Resource{}.Get(clone)))

	doc := generate(t, app)
	assert.Assert(t, is.Contains(doc.Paths, "/copies"))
}

func TestHandler(t *testing.T) {
	app := newApp()
	app.Mount("/openapi.json", openapi.NewGenerator(app).Handler())

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Header().Get("Content-Type"), "application/json")

	body, err := io.ReadAll(rec.Body)
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(string(body), "3.1.0"))
}
