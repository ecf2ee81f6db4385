package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tailbits/mortar"
	"github.com/tailbits/mortar/remote"
	"gotest.tools/v3/assert"
)

func upstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Header.Get("Accept"), "application/json")
		_, _ = w.Write([]byte(`{"count": 3}`))
	})
	mux.HandleFunc("/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["a","b"]`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/null", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := upstream(t)
	agg := remote.New(remote.WithHTTPClient(srv.Client()))

	got, err := agg.Fetch(context.Background(), []remote.Target{
		{Label: "users", URL: srv.URL + "/users"},
		{Label: "tags", URL: srv.URL + "/tags"},
		{Label: "empty", URL: srv.URL + "/empty"},
		{Label: "null", URL: srv.URL + "/null"},
	})
	assert.NilError(t, err)
	assert.DeepEqual(t, got, map[string]any{
		"users": map[string]any{"count": json.Number("3")},
		"tags":  []any{"a", "b"},
		"empty": "",
		"null":  "",
	})
}

func TestFetchNoTargets(t *testing.T) {
	got, err := remote.New().Fetch(context.Background(), nil)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 0)
}

func TestFetchFailures(t *testing.T) {
	srv := upstream(t)

	tests := []struct {
		name string
		path string
	}{
		{name: "non 2xx", path: "/down"},
		{name: "not found", path: "/missing"},
		{name: "undecodable", path: "/broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := remote.New(remote.WithHTTPClient(srv.Client()))
			got, err := agg.Fetch(context.Background(), []remote.Target{
				{Label: "users", URL: srv.URL + "/users"},
				{Label: "bad", URL: srv.URL + tt.path},
			})

			assert.Assert(t, got == nil)
			apiErr, ok := mortar.AsAPIError(err)
			assert.Assert(t, ok)
			assert.Equal(t, apiErr.Status, http.StatusBadGateway)
			assert.ErrorContains(t, err, "bad:")
		})
	}
}

func TestFetchCancelsSiblings(t *testing.T) {
	srv := upstream(t)
	agg := remote.New(remote.WithHTTPClient(srv.Client()))

	start := time.Now()
	_, err := agg.Fetch(context.Background(), []remote.Target{
		{Label: "slow", URL: srv.URL + "/slow"},
		{Label: "down", URL: srv.URL + "/down"},
	})

	assert.ErrorContains(t, err, "Bad gateway")
	assert.Assert(t, time.Since(start) < 4*time.Second)
}
