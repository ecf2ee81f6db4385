package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tailbits/mortar/config"
	"github.com/tailbits/mortar/remote"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func serve(t *testing.T, h http.Handler, verb, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(verb, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestNotes(t *testing.T) {
	app := newApp(config.Default(), &handlers{store: newStore(), remote: remote.New()})

	rec, body := serve(t, app, http.MethodPost, "/notes", `{"title":"first","body":"hello"}`)
	assert.Equal(t, rec.Code, http.StatusCreated)
	note := body["result"].([]any)[0].(map[string]any)
	assert.Equal(t, note["title"], "first")
	assert.Equal(t, note["pinned"], false)
	assert.Equal(t, rec.Header().Get("Location"), "/notes/"+note["id"].(string))

	loc := rec.Header().Get("Location")

	rec, body = serve(t, app, http.MethodGet, loc, "")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, body["result"].([]any)[0].(map[string]any)["body"], "hello")

	rec, _ = serve(t, app, http.MethodPut, loc, `{"pinned":true}`)
	assert.Equal(t, rec.Code, http.StatusOK)

	serve(t, app, http.MethodPost, "/notes", `{"title":"second"}`)
	serve(t, app, http.MethodPost, "/notes", `{"title":"third"}`)

	t.Run("paginated list", func(t *testing.T) {
		rec, body := serve(t, app, http.MethodGet, "/notes?limit=2&offset=1", "")
		assert.Equal(t, rec.Code, http.StatusOK)
		assert.Assert(t, is.Len(body["result"], 2))
		assert.DeepEqual(t, body["pagination"], map[string]any{"total": float64(3), "limit": float64(2), "offset": float64(1)})
	})

	t.Run("filtered list", func(t *testing.T) {
		_, body := serve(t, app, http.MethodGet, "/notes?q=HELLO", "")
		assert.Assert(t, is.Len(body["result"], 1))
	})

	t.Run("mobile list", func(t *testing.T) {
		rec, body := serve(t, app, http.MethodGet, "/mobile/notes?limit=1", "")
		assert.Equal(t, rec.Code, http.StatusOK)
		assert.Equal(t, body["code"], float64(0))
		data := body["data"].(map[string]any)
		assert.Assert(t, is.Len(data["result"], 1))
	})

	t.Run("rogue field", func(t *testing.T) {
		rec, body := serve(t, app, http.MethodPost, "/notes", `{"title":"x","colour":"red"}`)
		assert.Equal(t, rec.Code, http.StatusBadRequest)
		fields := body["errors"].([]any)[0].(map[string]any)["fields"].(map[string]any)
		assert.Assert(t, is.Contains(fields, "colour"))
	})

	t.Run("delete", func(t *testing.T) {
		rec, _ := serve(t, app, http.MethodDelete, loc, "")
		assert.Equal(t, rec.Code, http.StatusNoContent)

		rec, body := serve(t, app, http.MethodGet, loc, "")
		assert.Equal(t, rec.Code, http.StatusNotFound)
		assert.Equal(t, body["errors"].([]any)[0].(map[string]any)["message"], "Note not found")
	})

	t.Run("malformed id", func(t *testing.T) {
		rec, _ := serve(t, app, http.MethodGet, "/notes/not-a-uuid", "")
		assert.Equal(t, rec.Code, http.StatusBadRequest)
	})
}

func TestStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(upstream.Close)

	h := &handlers{
		store:  newStore(),
		remote: remote.New(remote.WithHTTPClient(upstream.Client())),
		status: parseTargets("billing=" + upstream.URL + "/health, search=" + upstream.URL + "/health"),
	}
	app := newApp(config.Default(), h)

	rec, body := serve(t, app, http.MethodGet, "/status", "")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.DeepEqual(t, body["result"], []any{map[string]any{
		"upstreams": map[string]any{
			"billing": map[string]any{"ok": true},
			"search":  map[string]any{"ok": true},
		},
	}})

	h.status = append(h.status, remote.Target{Label: "ledger", URL: upstream.URL + "/down"})
	rec, _ = serve(t, app, http.MethodGet, "/status", "")
	assert.Equal(t, rec.Code, http.StatusBadGateway)
}

func TestOpenAPIDocument(t *testing.T) {
	app := newApp(config.Default(), &handlers{store: newStore(), remote: remote.New()})

	rec, body := serve(t, app, http.MethodGet, "/openapi.json", "")
	assert.Equal(t, rec.Code, http.StatusOK)

	paths := body["paths"].(map[string]any)
	for _, p := range []string{"/notes", "/notes/{id}", "/mobile/notes", "/status"} {
		assert.Assert(t, is.Contains(paths, p))
	}
}

func TestParseTargets(t *testing.T) {
	got := parseTargets(" a=http://a , broken, =http://x, b=http://b")
	assert.DeepEqual(t, got, []remote.Target{
		{Label: "a", URL: "http://a"},
		{Label: "b", URL: "http://b"},
	})
}
