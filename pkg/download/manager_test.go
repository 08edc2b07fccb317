package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/mvnindex/pkg/auth"
	"github.com/cperrin88/mvnindex/pkg/errutils"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNewManager(t *testing.T) {
	tests := []struct {
		name       string
		timeout    time.Duration
		userAgent  string
		expectedUA string
	}{
		{
			name:       "default user agent",
			timeout:    time.Second,
			expectedUA: "mvnindex/1.0",
		},
		{
			name:       "custom user agent",
			timeout:    2 * time.Second,
			userAgent:  "test-agent/1.0",
			expectedUA: "test-agent/1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.timeout, tt.userAgent)
			require.NotNil(t, m)
			assert.Equal(t, tt.timeout, m.client.Timeout)
			assert.Equal(t, tt.expectedUA, m.userAgent)
		})
	}
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		expectErrorMsg string
	}{
		{name: "successful download", status: http.StatusOK, body: `{"format":"1"}`},
		{name: "not found", status: http.StatusNotFound, expectErrorMsg: "unexpected status code: 404"},
		{name: "server error", status: http.StatusInternalServerError, expectErrorMsg: "unexpected status code: 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "test", r.Header.Get("User-Agent"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			dir := t.TempDir()
			m := NewManager(time.Second, "test")
			item := Item{ID: "central", URL: mustParse(t, server.URL+"/mvnindex.json"), Filename: "index.json"}

			path, err := m.Fetch(context.Background(), item, Options{Dir: dir})
			if tt.expectErrorMsg != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, errutils.ErrDownloadFailed)
				assert.Contains(t, err.Error(), tt.expectErrorMsg)
				assert.NoFileExists(t, filepath.Join(dir, "index.json"))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "index.json"), path)
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(content))
		})
	}
}

func TestFetch_RelativeDir(t *testing.T) {
	m := NewManager(time.Second, "")
	_, err := m.Fetch(context.Background(), Item{ID: "x", URL: mustParse(t, "http://localhost/x")}, Options{Dir: "relative"})
	assert.ErrorIs(t, err, errutils.ErrInvalidPath)
}

func TestFetch_WithChecksum(t *testing.T) {
	sum := sha256.Sum256([]byte("catalog content"))
	checksum := hex.EncodeToString(sum[:])
	other := sha256.Sum256([]byte("other content"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("catalog content"))
	}))
	defer server.Close()

	tests := []struct {
		name     string
		checksum string
		wantErr  error
	}{
		{name: "valid checksum", checksum: checksum},
		{name: "uppercase checksum", checksum: "  " + hexUpper(checksum)},
		{name: "invalid checksum", checksum: hex.EncodeToString(other[:]), wantErr: errutils.ErrFileHashMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			m := NewManager(time.Second, "test")
			_, err := m.Fetch(context.Background(), Item{ID: "c", URL: mustParse(t, server.URL), Checksum: tt.checksum}, Options{Dir: dir})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				entries, readErr := os.ReadDir(dir)
				require.NoError(t, readErr)
				assert.Empty(t, entries, "rejected download must not leave files behind")
				return
			}
			require.NoError(t, err)
		})
	}
}

func hexUpper(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'f' {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

func TestFetch_ReuseAndRefresh(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := hits.Add(1)
		_, _ = w.Write([]byte{byte('0' + n)})
	}))
	defer server.Close()

	dir := t.TempDir()
	m := NewManager(time.Second, "test")
	item := Item{ID: "idx", URL: mustParse(t, server.URL), Filename: "index.json"}

	path, err := m.Fetch(context.Background(), item, Options{Dir: dir})
	require.NoError(t, err)
	_, err = m.Fetch(context.Background(), item, Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "existing file is reused")

	_, err = m.Fetch(context.Background(), item, Options{Dir: dir, Refresh: true})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2", string(content))
}

func TestFetchAll(t *testing.T) {
	responses := map[string]string{
		"/a": "catalog a",
		"/b": "catalog b",
		"/c": "catalog c",
	}
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		content, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(content))
	}))
	defer server.Close()

	items := []Item{
		{ID: "a", URL: mustParse(t, server.URL+"/a")},
		{ID: "b", URL: mustParse(t, server.URL+"/b")},
		{ID: "c", URL: mustParse(t, server.URL+"/c")},
		{ID: "a-again", URL: mustParse(t, server.URL+"/a")},
		{ID: "missing", URL: mustParse(t, server.URL+"/missing")},
	}

	tests := []struct {
		name        string
		concurrency int
	}{
		{name: "default concurrency", concurrency: 0},
		{name: "single worker", concurrency: 1},
		{name: "three workers", concurrency: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits.Store(0)
			m := NewManager(5*time.Second, "test")

			results, err := m.FetchAll(context.Background(), items, Options{Dir: t.TempDir(), Concurrency: tt.concurrency})
			require.Error(t, err)
			assert.ErrorIs(t, err, errutils.ErrDownloadFailed)
			assert.Contains(t, err.Error(), "missing")

			require.Len(t, results, 4)
			assert.Equal(t, results["a"], results["a-again"])
			assert.Equal(t, int32(4), hits.Load(), "shared URLs are downloaded once")
			for id, path := range results {
				content, readErr := os.ReadFile(path)
				require.NoError(t, readErr)
				want := responses["/"+id[:1]]
				assert.Equal(t, want, string(content))
			}
		})
	}
}

func TestFetchAll_NilURL(t *testing.T) {
	m := NewManager(time.Second, "test")
	_, err := m.FetchAll(context.Background(), []Item{{ID: "x"}}, Options{Dir: t.TempDir()})
	assert.ErrorIs(t, err, errutils.ErrDownloadFailed)
}

func TestFetch_WithAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/private/mvnindex.json" && r.Header.Get("Authorization") != "Bearer t0ken" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	var table auth.Table
	table.Add(srv.URL+"/private", auth.BearerAuth{Token: "t0ken"})
	dir := t.TempDir()

	anonymous := NewManager(5*time.Second, "")
	_, err := anonymous.Fetch(context.Background(), Item{ID: "idx", URL: mustParse(t, srv.URL+"/private/mvnindex.json")}, Options{Dir: dir})
	assert.ErrorIs(t, err, errutils.ErrDownloadFailed)

	m := NewManager(5*time.Second, "").WithAuth(&table)
	path, err := m.Fetch(context.Background(), Item{ID: "idx", URL: mustParse(t, srv.URL+"/private/mvnindex.json")}, Options{Dir: dir})
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/private/mvnindex.json", string(content))

	path, err = m.Fetch(context.Background(), Item{ID: "pub", URL: mustParse(t, srv.URL+"/public/a.xml")}, Options{Dir: dir})
	require.NoError(t, err)
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/public/a.xml", string(content))
}
