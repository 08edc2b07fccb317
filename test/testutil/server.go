// Package testutil provides helpers shared by the command line tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cperrin88/mvnindex/pkg/fsutil"
)

// RepositoryServer serves a directory like a remote Maven repository.
type RepositoryServer struct {
	Server *httptest.Server
	URL    string
	Dir    string

	username string
	password string
	requests atomic.Int64
	rejected atomic.Int64
}

// ServerOption configures a RepositoryServer.
type ServerOption func(*RepositoryServer)

// WithBasicAuth makes the server reject requests without these credentials.
func WithBasicAuth(username, password string) ServerOption {
	return func(s *RepositoryServer) {
		s.username = username
		s.password = password
	}
}

// NewRepositoryServer starts a server for dir. It is stopped when the test ends.
func NewRepositoryServer(t *testing.T, dir string, opts ...ServerOption) *RepositoryServer {
	t.Helper()
	s := &RepositoryServer{Dir: dir}
	for _, opt := range opts {
		opt(s)
	}

	files := http.FileServer(http.Dir(dir))
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if s.username != "" {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.username || pass != s.password {
				s.rejected.Add(1)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}
		files.ServeHTTP(w, r)
	}))
	s.URL = s.Server.URL
	t.Cleanup(s.Server.Close)
	return s
}

// WriteFile stores data at the slash separated path rel below the served directory.
func (s *RepositoryServer) WriteFile(t *testing.T, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(s.Dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), fsutil.DirModeSecure))
	require.NoError(t, os.WriteFile(path, data, fsutil.FileModeDefault))
}

// Requests returns the number of requests served so far.
func (s *RepositoryServer) Requests() int64 { return s.requests.Load() }

// Rejected returns the number of requests refused for missing credentials.
func (s *RepositoryServer) Rejected() int64 { return s.rejected.Load() }
