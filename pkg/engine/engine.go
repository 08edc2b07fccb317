// Package engine is the file-based index engine used by mvnindex.
//
// A local index is built by walking the repository in the standard Maven
// layout. A remote index is fetched as a ready-made snapshot from
// <repository>/mvnindex.json. Either way the snapshot is stored as index.json
// in the index data directory.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/download"
	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/fsutil"
	"github.com/cperrin88/mvnindex/pkg/index"
	"github.com/cperrin88/mvnindex/pkg/location"
)

// Fetcher is the subset of the download manager used for remote indices.
type Fetcher interface {
	Fetch(ctx context.Context, item download.Item, opts download.Options) (string, error)
}

var (
	errEngineShutdown = errors.New("index engine is shut down")
	errHandleClosed   = errors.New("index handle is closed")
	errForeignHandle  = errors.New("handle was not opened by this engine")
)

// Engine implements index.Engine on top of JSON snapshots.
type Engine struct {
	fetcher Fetcher

	mu       sync.Mutex
	handles  map[*handle]struct{}
	shutdown bool
	// notifications tracks broken-index callbacks still running.
	notifications sync.WaitGroup
}

var _ index.Engine = (*Engine)(nil)

// New creates an engine. fetcher may be nil when only local indices are used.
func New(fetcher Fetcher) *Engine {
	return &Engine{
		fetcher: fetcher,
		handles: make(map[*handle]struct{}),
	}
}

// handle is the engine state of one opened index.
type handle struct {
	kind     index.Kind
	location string
	root     string   // local repositories
	remote   *url.URL // remote repositories
	dir      string
	onBroken func()

	mu       sync.RWMutex
	snapshot *Snapshot
	broken   bool
	closed   bool
}

func (h *handle) LastUpdate() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.snapshot == nil {
		return time.Time{}
	}
	return h.snapshot.LastUpdate
}

// Open validates the location and loads an existing snapshot. A snapshot
// that cannot be parsed is reported through req.OnBroken.
func (e *Engine) Open(_ context.Context, req index.OpenRequest) (index.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shutdown {
		return nil, errEngineShutdown
	}

	h := &handle{
		kind:     req.Kind,
		location: req.Location,
		dir:      req.Dir,
		onBroken: req.OnBroken,
	}
	switch req.Kind {
	case index.Local:
		root, err := localRoot(req.Location)
		if err != nil {
			return nil, err
		}
		h.root = root
	case index.Remote:
		u, err := remoteURL(req.Location)
		if err != nil {
			return nil, err
		}
		h.remote = u
	default:
		return nil, errutils.ErrUnknownKindWithValue(req.Kind.String())
	}

	if err := fsutil.EnsureDir(req.Dir); err != nil {
		return nil, errutils.Wrapf(err, "failed to create index data directory %s", req.Dir)
	}

	snapshot, err := ReadSnapshot(req.Dir)
	switch {
	case err == nil:
		h.snapshot = snapshot
	case errors.Is(err, fs.ErrNotExist):
	case errors.Is(err, errutils.ErrIndexBroken):
		logger.Warn("Index data is corrupt", logger.Fields{"location": req.Location, "error": err})
		h.broken = true
		e.notifyBroken(h)
	default:
		return nil, errutils.Wrapf(err, "failed to read index data in %s", req.Dir)
	}

	e.handles[h] = struct{}{}
	return h, nil
}

func localRoot(loc string) (string, error) {
	key := location.Normalize(loc)
	if key == "" || strings.ContainsRune(key, 0) {
		return "", fmt.Errorf("%w: %q", errutils.ErrInvalidPath, loc)
	}
	root := filepath.FromSlash(key)
	info, err := os.Stat(root)
	if err == nil && !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", errutils.ErrInvalidPath, root)
	}
	return root, nil
}

func remoteURL(loc string) (*url.URL, error) {
	u, err := url.Parse(location.Normalize(loc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrInvalidPath, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: unsupported repository URL %q", errutils.ErrInvalidPath, loc)
	}
	return u, nil
}

// notifyBroken runs the broken callback on its own goroutine so the engine
// never calls back into the caller while holding its locks.
func (e *Engine) notifyBroken(h *handle) {
	if h.onBroken == nil {
		return
	}
	e.notifications.Add(1)
	go func() {
		defer e.notifications.Done()
		h.onBroken()
	}()
}

func (e *Engine) acquire(h index.Handle) (*handle, error) {
	eh, ok := h.(*handle)
	if !ok {
		return nil, errForeignHandle
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shutdown {
		return nil, errEngineShutdown
	}
	if _, open := e.handles[eh]; !open {
		return nil, errHandleClosed
	}
	return eh, nil
}

// Close releases a handle. Closing an unknown or already closed handle is a
// no-op.
func (e *Engine) Close(h index.Handle) error {
	eh, ok := h.(*handle)
	if !ok {
		return errForeignHandle
	}
	e.mu.Lock()
	delete(e.handles, eh)
	e.mu.Unlock()

	eh.mu.Lock()
	eh.closed = true
	eh.mu.Unlock()
	return nil
}

// Shutdown closes every handle and waits for pending broken notifications.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	e.shutdown = true
	handles := e.handles
	e.handles = make(map[*handle]struct{})
	e.mu.Unlock()

	for h := range handles {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
	}
	e.notifications.Wait()
	return nil
}
