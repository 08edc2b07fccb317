package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/auth"
	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/fsutil"
)

// DefaultUserAgent is sent when NewManager gets an empty user agent.
const DefaultUserAgent = "mvnindex/1.0"

// ManagerImpl is an HTTP download manager with optional checksum verification.
// Items sharing a URL within one FetchAll call are downloaded once.
type ManagerImpl struct {
	client    *http.Client
	userAgent string
	auth      *auth.Table
}

// NewManager creates a new download manager with the given timeout and user agent.
func NewManager(timeout time.Duration, userAgent string) *ManagerImpl {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &ManagerImpl{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// WithAuth makes the manager send the credentials registered in table for
// matching URLs.
func (m *ManagerImpl) WithAuth(table *auth.Table) *ManagerImpl {
	m.auth = table
	return m
}

// FetchAll downloads items concurrently and returns the paths of the items
// that succeeded.
func (m *ManagerImpl) FetchAll(ctx context.Context, items []Item, opts Options) (map[string]string, error) {
	if err := prepareDir(opts.Dir); err != nil {
		return nil, err
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = max(2, runtime.NumCPU()/2)
	}

	byURL := make(map[string][]int)
	order := make([]string, 0, len(items))
	for i, it := range items {
		if it.URL == nil {
			return nil, fmt.Errorf("item %q has nil URL: %w", it.ID, errutils.ErrDownloadFailed)
		}
		key := it.URL.String()
		if _, seen := byURL[key]; !seen {
			order = append(order, key)
		}
		byURL[key] = append(byURL[key], i)
	}

	var (
		mu   sync.Mutex
		out  = make(map[string]string, len(items))
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, key := range order {
		g.Go(func() error {
			first := items[byURL[key][0]]
			path, err := m.fetchOne(gctx, first, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Debug("Download failed", logger.Fields{"url": key, "error": err})
				errs = append(errs, fmt.Errorf("%s: %w", first.ID, err))
				return nil
			}
			for _, i := range byURL[key] {
				out[items[i].ID] = path
			}
			return nil
		})
	}
	_ = g.Wait()

	return out, errors.Join(errs...)
}

// Fetch downloads a single item and returns the path to the downloaded file.
func (m *ManagerImpl) Fetch(ctx context.Context, item Item, opts Options) (string, error) {
	if err := prepareDir(opts.Dir); err != nil {
		return "", err
	}
	return m.fetchOne(ctx, item, opts)
}

func prepareDir(dir string) error {
	if dir == "" || !filepath.IsAbs(dir) {
		return fmt.Errorf("download dir must be absolute: %w: %s", errutils.ErrInvalidPath, dir)
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return errutils.Wrap(err, "could not create download dir")
	}
	return nil
}

func (m *ManagerImpl) fetchOne(ctx context.Context, item Item, opts Options) (string, error) {
	if item.URL == nil {
		return "", fmt.Errorf("nil URL: %w", errutils.ErrDownloadFailed)
	}
	absPath := filepath.Join(opts.Dir, selectFilename(item))
	if !opts.Refresh {
		if ok := reusable(absPath, item.Checksum); ok {
			return absPath, nil
		}
	}

	resp, err := m.doRequest(ctx, item)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	tmpPath, err := writeBodyToTemp(resp.Body, absPath)
	if err != nil {
		return "", err
	}
	if item.Checksum != "" {
		ok, err := verifySHA256(tmpPath, item.Checksum)
		if err != nil || !ok {
			_ = os.Remove(tmpPath)
		}
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("checksum mismatch for %s: %w", item.URL, errutils.ErrFileHashMismatch)
		}
	}
	if err := fsutil.Move(tmpPath, absPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", errutils.Wrap(err, "could not finalize file")
	}
	return absPath, nil
}

func selectFilename(item Item) string {
	if item.Filename != "" {
		return item.Filename
	}
	h := sha256.Sum256([]byte(item.URL.String()))
	return hex.EncodeToString(h[:])
}

func reusable(absPath, checksum string) bool {
	st, err := os.Stat(absPath)
	if err != nil || st.Size() == 0 {
		return false
	}
	if checksum == "" {
		return true
	}
	ok, err := verifySHA256(absPath, checksum)
	return err == nil && ok
}

func (m *ManagerImpl) doRequest(ctx context.Context, item Item) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL.String(), http.NoBody)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)
	if m.auth != nil {
		if a := m.auth.Lookup(item.URL); a != nil {
			if err := a.Apply(req); err != nil {
				return nil, errutils.Wrapf(err, "failed to apply %s credentials", a.Type())
			}
		}
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrDownloadFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d: %w", resp.StatusCode, errutils.ErrDownloadFailed)
	}
	return resp, nil
}

func writeBodyToTemp(body io.Reader, absPath string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(absPath), "dl-*.tmp")
	if err != nil {
		return "", errutils.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errutils.Wrap(err, "could not write file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", errutils.Wrap(err, "could not close file")
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		_ = os.Remove(tmpPath)
		return "", errutils.Wrap(err, "could not set permissions")
	}
	return tmpPath, nil
}

func verifySHA256(path string, wantHex string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, errutils.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, errutils.Wrap(err, "hashing")
	}
	return hex.EncodeToString(h.Sum(nil)) == strings.ToLower(strings.TrimSpace(wantHex)), nil
}
