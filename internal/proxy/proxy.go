// Package proxy loads HTTP forward proxies from a line-oriented file and
// hands them out in round-robin order.
//
// Three line shapes are accepted:
//
//	host:port
//	host:port:username:password
//	username:password@host:port
//
// Anything else is skipped. Rotation is purely positional: a proxy that just
// failed is still returned again on its next turn.
package proxy

import (
	"errors"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dmagro/seal-blob-bot/internal/output"
	"github.com/dmagro/seal-blob-bot/internal/source"
)

// Credentials authenticate against a proxy.
type Credentials struct {
	Username string
	Password string
}

// Descriptor is one parsed proxy line.
type Descriptor struct {
	Host string
	Port string
	Auth *Credentials // nil when the line carried no credentials
}

// Parse converts a proxy line into a Descriptor. The second return value is
// false when the line matches none of the accepted shapes.
func Parse(line string) (Descriptor, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Descriptor{}, false
	}

	if strings.Contains(line, "@") {
		auth, hostPort, _ := strings.Cut(line, "@")
		if strings.Contains(hostPort, "@") {
			return Descriptor{}, false
		}
		user, pass, ok := splitPair(auth)
		if !ok {
			return Descriptor{}, false
		}
		host, port, ok := splitPair(hostPort)
		if !ok {
			return Descriptor{}, false
		}
		return Descriptor{Host: host, Port: port, Auth: &Credentials{Username: user, Password: pass}}, true
	}

	parts := strings.Split(line, ":")
	if !allNonEmpty(parts) {
		return Descriptor{}, false
	}
	switch len(parts) {
	case 4:
		return Descriptor{
			Host: parts[0],
			Port: parts[1],
			Auth: &Credentials{Username: parts[2], Password: parts[3]},
		}, true
	case 2:
		return Descriptor{Host: parts[0], Port: parts[1]}, true
	default:
		return Descriptor{}, false
	}
}

func splitPair(s string) (string, string, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || !allNonEmpty(parts) {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func allNonEmpty(parts []string) bool {
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// String returns host:port. Credentials are never printed.
func (d Descriptor) String() string {
	return net.JoinHostPort(d.Host, d.Port)
}

// HasAuth reports whether both username and password are present.
func (d Descriptor) HasAuth() bool {
	return d.Auth != nil && d.Auth.Username != "" && d.Auth.Password != ""
}

// URL returns the forward-proxy URL, with credentials embedded when present.
func (d Descriptor) URL() *url.URL {
	u := &url.URL{Scheme: "http", Host: d.String()}
	if d.HasAuth() {
		u.User = url.UserPassword(d.Auth.Username, d.Auth.Password)
	}
	return u
}

// Transport clones base (or http.DefaultTransport when nil) and routes every
// request through the proxy. HTTPS targets are tunnelled with CONNECT.
func (d Descriptor) Transport(base *http.Transport) *http.Transport {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport)
	}
	t := base.Clone()
	t.Proxy = http.ProxyURL(d.URL())
	return t
}

// Rotator hands out descriptors in cyclic order.
type Rotator struct {
	mu          sync.Mutex
	descriptors []Descriptor
	cursor      int
}

// NewRotator builds a rotator over a fixed descriptor list.
func NewRotator(descs []Descriptor) *Rotator {
	cp := make([]Descriptor, len(descs))
	copy(cp, descs)
	return &Rotator{descriptors: cp}
}

// Load reads the proxy file at path. A missing file, an unreadable file, or
// a file without usable lines all produce an empty rotator; the condition is
// logged as a warning and the bot continues without proxies.
func Load(path string, log *output.Logger) *Rotator {
	lines, err := source.ReadLines(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warning("Proxy file %s not found. Continuing without proxies.", path)
		} else {
			log.Error("Error loading proxies: %v", err)
		}
		return NewRotator(nil)
	}

	descs := make([]Descriptor, 0, len(lines))
	for _, line := range lines {
		if d, ok := Parse(line); ok {
			descs = append(descs, d)
		}
	}

	if len(descs) == 0 {
		log.Warning("No proxies found in proxy file. Continuing without proxies.")
		return NewRotator(nil)
	}
	if skipped := len(lines) - len(descs); skipped > 0 {
		log.Warning("Skipped %d malformed proxy lines", skipped)
	}
	log.Success("Loaded %d proxies from %s", len(descs), path)
	return NewRotator(descs)
}

// Next returns the descriptor under the cursor and advances it. The second
// return value is false when the rotator is empty or nil.
func (r *Rotator) Next() (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.descriptors) == 0 {
		return Descriptor{}, false
	}
	d := r.descriptors[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.descriptors)
	return d, true
}

// Len returns the number of loaded descriptors.
func (r *Rotator) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.descriptors)
}

// Descriptors returns a copy of the loaded list in rotation order.
func (r *Rotator) Descriptors() []Descriptor {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}
