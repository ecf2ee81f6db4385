// Package remote fetches JSON documents from several upstream services at
// once and merges them under caller-supplied labels.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tailbits/mortar"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 30 * time.Second

// Target is one upstream document to fetch.
type Target struct {
	Label string
	URL   string
}

// Aggregator runs GET requests concurrently. Any failed target fails the
// whole fetch with a Bad Gateway error; nothing is retried.
type Aggregator struct {
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger
	agent   string
}

type Option func(*Aggregator)

func WithHTTPClient(c *http.Client) Option {
	return func(a *Aggregator) {
		a.client = c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		a.timeout = d
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(a *Aggregator) {
		a.log = l
	}
}

func WithUserAgent(agent string) Option {
	return func(a *Aggregator) {
		a.agent = agent
	}
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		client: &http.Client{Timeout: defaultTimeout},
		log:    zerolog.Nop(),
		agent:  "mortar-remote",
	}
	for _, opt := range opts {
		opt(a)
	}

	// the timeout applies to a copy so a caller's client is never modified
	if a.timeout > 0 {
		c := *a.client
		c.Timeout = a.timeout
		a.client = &c
	}
	return a
}

// Fetch retrieves every target and returns the decoded documents keyed by
// label. An empty body decodes to "". The first failure cancels the
// remaining requests.
func (a *Aggregator) Fetch(ctx context.Context, targets []Target) (map[string]any, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]any, len(targets))
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			doc, err := a.get(ctx, t)
			if err != nil {
				return err
			}

			mu.Lock()
			out[t.Label] = doc
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, mortar.BadGateway(err)
	}

	return out, nil
}

func (a *Aggregator) get(ctx context.Context, t Target) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", t.Label, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.agent)

	a.log.Debug().
		Str("label", t.Label).
		Str("url", t.URL).
		Msg("making HTTP request")

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Error().
			Str("label", t.Label).
			Str("url", t.URL).
			Err(err).
			Msg("HTTP request failed")
		return nil, fmt.Errorf("%s: HTTP request failed: %w", t.Label, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response body: %w", t.Label, err)
	}

	a.log.Debug().
		Str("label", t.Label).
		Int("status_code", resp.StatusCode).
		Int("body_length", len(body)).
		Msg("received HTTP response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: unexpected status %d", t.Label, resp.StatusCode)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return "", nil
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", t.Label, err)
	}
	if doc == nil {
		return "", nil
	}

	return doc, nil
}
