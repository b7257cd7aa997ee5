package publisher

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProbeResult records one reachability check against a publisher.
type ProbeResult struct {
	Endpoint   Endpoint
	StatusCode int
	Latency    time.Duration
	Err        error
}

// Reachable reports whether the publisher answered at all. Any HTTP status
// counts: a blob store commonly rejects a bare GET with 404 or 405.
func (r ProbeResult) Reachable() bool {
	return r.Err == nil && r.StatusCode > 0 && r.StatusCode < 500
}

// Probe issues one GET per endpoint concurrently and returns results in pool
// order. It never fails fast; per-endpoint errors are kept in the result.
func Probe(ctx context.Context, client *http.Client, endpoints []Endpoint) []ProbeResult {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	results := make([]ProbeResult, len(endpoints))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range endpoints {
		i, e := i, e
		g.Go(func() error {
			r := probeOne(gctx, client, e)
			mu.Lock()
			results[i] = r
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func probeOne(ctx context.Context, client *http.Client, e Endpoint) ProbeResult {
	r := ProbeResult{Endpoint: e}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		r.Err = err
		return r
	}

	start := time.Now()
	resp, err := client.Do(req)
	r.Latency = time.Since(start)
	if err != nil {
		r.Err = err
		return r
	}
	resp.Body.Close()

	r.StatusCode = resp.StatusCode
	if resp.StatusCode >= 500 {
		r.Err = fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return r
}
