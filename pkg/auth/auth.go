// Package auth applies repository credentials to outgoing HTTP requests.
package auth

import (
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/cperrin88/mvnindex/pkg/location"
)

// Authenticator decorates a request with credentials.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// Type names an authentication scheme.
type Type string

// Authentication types.
const (
	BasicAuthType  Type = "basic"
	HeaderAuthType Type = "header"
	BearerAuthType Type = "bearer"
)

// BasicAuth sends HTTP Basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Apply implements Authenticator.
func (b BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// Type implements Authenticator.
func (BasicAuth) Type() Type { return BasicAuthType }

// HeaderAuth sets arbitrary headers, for example a private token header.
type HeaderAuth struct {
	Headers map[string]string
}

// Apply implements Authenticator.
func (h HeaderAuth) Apply(req *http.Request) error {
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}
	return nil
}

// Type implements Authenticator.
func (HeaderAuth) Type() Type { return HeaderAuthType }

// BearerAuth sends a bearer token.
type BearerAuth struct {
	Token string
}

// Apply implements Authenticator.
func (b BearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Type implements Authenticator.
func (BearerAuth) Type() Type { return BearerAuthType }

// Table maps repository URL prefixes to authenticators. The zero value is
// an empty table ready for use.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Authenticator
}

// Add registers a for every URL below prefix. A later call for the same
// prefix replaces the earlier one.
func (t *Table) Add(prefix string, a Authenticator) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries == nil {
		t.entries = make(map[string]Authenticator)
	}
	t.entries[location.Normalize(prefix)] = a
}

// Len returns the number of registered prefixes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Lookup returns the authenticator of the longest prefix containing u, or nil.
func (t *Table) Lookup(u *url.URL) Authenticator {
	if u == nil {
		return nil
	}
	target := location.Normalize(u.String())

	t.mu.RLock()
	defer t.mu.RUnlock()

	var (
		best    Authenticator
		bestLen = -1
	)
	for prefix, a := range t.entries {
		if !matches(prefix, target) || len(prefix) <= bestLen {
			continue
		}
		best, bestLen = a, len(prefix)
	}
	return best
}

func matches(prefix, target string) bool {
	if !strings.HasPrefix(target, prefix) {
		return false
	}
	return len(target) == len(prefix) || target[len(prefix)] == '/' || target[len(prefix)] == '?'
}
