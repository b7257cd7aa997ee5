// Package publisher holds the fixed set of blob publisher endpoints.
//
// Selection is uniformly random per call rather than round robin. A degraded
// publisher is simply likely to be rolled away from on the next attempt, and
// consecutive attempts may land on the same endpoint.
package publisher

import (
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
)

// ErrNoEndpoints is returned when a pool is built from an empty list.
var ErrNoEndpoints = errors.New("publisher pool requires at least one endpoint")

// Endpoint is a publisher blob-store URL, e.g. https://host/v1/blobs.
type Endpoint struct {
	Name string
	URL  string
}

// BlobURL returns the upload URL with the epochs query parameter set.
func (e Endpoint) BlobURL(epochs int) string {
	u, err := url.Parse(e.URL)
	if err != nil {
		return fmt.Sprintf("%s?epochs=%d", e.URL, epochs)
	}
	q := u.Query()
	q.Set("epochs", strconv.Itoa(epochs))
	u.RawQuery = q.Encode()
	return u.String()
}

// Pool is an immutable endpoint list plus a random chooser.
type Pool struct {
	endpoints []Endpoint
	choose    func(n int) int
}

// Option customises a Pool.
type Option func(*Pool)

// WithChooser replaces the random index function. fn receives the pool size
// and must return an index in [0, n).
func WithChooser(fn func(n int) int) Option {
	return func(p *Pool) { p.choose = fn }
}

// NewPool validates endpoints and builds a pool. Endpoints without a name
// are named publisherN after their 1-based position.
func NewPool(endpoints []Endpoint, opts ...Option) (*Pool, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}

	eps := make([]Endpoint, len(endpoints))
	for i, e := range endpoints {
		u, err := url.Parse(e.URL)
		if err != nil {
			return nil, fmt.Errorf("publisher %d: invalid url: %w", i+1, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("publisher %d: invalid url scheme %q (expected http or https)", i+1, u.Scheme)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("publisher %d: invalid url (missing host)", i+1)
		}
		if e.Name == "" {
			e.Name = fmt.Sprintf("publisher%d", i+1)
		}
		eps[i] = e
	}

	p := &Pool{endpoints: eps, choose: rand.Intn}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Choose returns a uniformly random endpoint and its index.
func (p *Pool) Choose() (int, Endpoint) {
	i := p.choose(len(p.endpoints))
	if i < 0 || i >= len(p.endpoints) {
		i = 0
	}
	return i, p.endpoints[i]
}

// Len returns the number of endpoints.
func (p *Pool) Len() int { return len(p.endpoints) }

// Endpoints returns a copy of the endpoint list.
func (p *Pool) Endpoints() []Endpoint {
	out := make([]Endpoint, len(p.endpoints))
	copy(out, p.endpoints)
	return out
}
