package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/fsutil"
	"github.com/cperrin88/mvnindex/pkg/location"
)

// dirPrefix names index data directories: Index1, Index2, ...
const dirPrefix = "Index"

// BrokenFunc receives indices the engine reported as corrupt.
type BrokenFunc func(*RepositoryIndex)

// Registry owns every known RepositoryIndex. It never holds two indices with
// the same kind and normalized location.
type Registry struct {
	engine   Engine
	dir      string
	onBroken BrokenFunc

	mu      sync.Mutex
	indices []*RepositoryIndex
	lastID  int
	closed  bool
}

// NewRegistry creates a registry storing index data below dir.
// onBroken may be nil.
func NewRegistry(engine Engine, dir string, onBroken BrokenFunc) *Registry {
	return &Registry{
		engine:   engine,
		dir:      dir,
		onBroken: onBroken,
	}
}

// Load reopens the indices persisted below the registry directory.
// Directories that cannot be read or opened are logged and skipped.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errutils.ErrRegistryClosed
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return errutils.Wrapf(err, "failed to read index directory %s", r.dir)
	}

	type persisted struct {
		id  int
		dir string
	}
	found := make([]persisted, 0, len(entries))
	for _, entry := range entries {
		id, ok := parseDirID(entry.Name())
		if !ok || !entry.IsDir() {
			continue
		}
		found = append(found, persisted{id: id, dir: filepath.Join(r.dir, entry.Name())})
	}
	slices.SortFunc(found, func(a, b persisted) int { return a.id - b.id })

	for _, p := range found {
		r.lastID = max(r.lastID, p.id)

		desc, err := ReadDescriptor(p.dir)
		if err != nil {
			logger.Warn("Skipping unreadable index directory", logger.Fields{"dir": p.dir, "error": err})
			continue
		}
		key := location.Normalize(desc.Location)
		if r.findLocked(key, desc.Kind) != nil {
			logger.Warn("Skipping duplicate index directory", logger.Fields{"dir": p.dir, "location": key})
			continue
		}
		idx, err := r.openLocked(ctx, desc.Location, desc.Kind, p.dir)
		if err != nil {
			logger.Warn("Skipping index that cannot be reopened", logger.Fields{"dir": p.dir, "error": err})
			continue
		}
		r.indices = append(r.indices, idx)
		logger.Debug("Reopened index", logger.Fields{"index": idx.String(), "dir": p.dir})
	}
	return nil
}

// AddOrGet returns the index for location and kind, creating it when no
// index with the same normalized location exists. An existing index is
// returned unchanged. The error wraps errutils.ErrIndexOpen when the engine
// cannot open storage for the location.
func (r *Registry) AddOrGet(ctx context.Context, loc string, kind Kind) (*RepositoryIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errutils.ErrRegistryClosed
	}

	key := location.Normalize(loc)
	if key == "" {
		return nil, errutils.ErrIndexOpenWithLocation(loc, errutils.ErrInvalidPath)
	}
	if existing := r.findLocked(key, kind); existing != nil {
		return existing, nil
	}

	dir, err := r.allocateDirLocked()
	if err != nil {
		return nil, errutils.ErrIndexOpenWithLocation(loc, err)
	}
	if err := writeDescriptor(dir, Descriptor{Kind: kind, Location: loc}); err != nil {
		_ = os.RemoveAll(dir)
		return nil, errutils.ErrIndexOpenWithLocation(loc, err)
	}

	idx, err := r.openLocked(ctx, loc, kind, dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	r.indices = append(r.indices, idx)
	logger.Debug("Registered index", logger.Fields{"index": idx.String(), "dir": dir})
	return idx, nil
}

// List returns all indices in insertion order.
func (r *Registry) List() []*RepositoryIndex {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.indices)
}

// Find returns the index for location and kind, or nil.
func (r *Registry) Find(loc string, kind Kind) *RepositoryIndex {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(location.Normalize(loc), kind)
}

// FindLocalContaining returns the local index whose root is path or one of
// its ancestors. When several roots match, the deepest wins.
func (r *Registry) FindLocalContaining(path string) *RepositoryIndex {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *RepositoryIndex
	for _, idx := range r.indices {
		if idx.kind != Local || !location.Contains(idx.key, path) {
			continue
		}
		if best == nil || len(idx.key) > len(best.key) {
			best = idx
		}
	}
	return best
}

// UpdateOrRepair runs a full update or a repair of idx through the engine.
// On success the update time is recorded and the broken flag cleared.
func (r *Registry) UpdateOrRepair(ctx context.Context, idx *RepositoryIndex, full bool) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if err := r.engine.UpdateOrRepair(ctx, idx.handle, full); err != nil {
		return errutils.ErrIndexUpdateWithLocation(idx.location, err)
	}

	updated := idx.handle.LastUpdate()
	if updated.IsZero() {
		updated = time.Now()
	}
	idx.recordUpdate(updated)
	return nil
}

// AddArtifact adds a single artifact file to a local index.
func (r *Registry) AddArtifact(ctx context.Context, idx *RepositoryIndex, file string) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if idx.kind != Local || !location.Contains(idx.key, file) {
		return fmt.Errorf("%w: %s not below %s", errutils.ErrArtifactOutsideRepository, file, idx.location)
	}
	return r.engine.AddArtifact(ctx, idx.handle, file)
}

// Archetypes lists the archetypes the engine found in idx.
func (r *Registry) Archetypes(ctx context.Context, idx *RepositoryIndex) ([]ArchetypeRecord, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.engine.Archetypes(ctx, idx.handle)
}

// Close closes every index handle and shuts the engine down. Handle errors
// are collected and returned. Further calls to Close are no-ops.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, idx := range r.indices {
		if err := r.engine.Close(idx.handle); err != nil {
			errs = append(errs, errutils.Wrapf(err, "failed to close index %s", idx))
		}
	}
	if err := r.engine.Shutdown(); err != nil {
		errs = append(errs, errutils.Wrap(err, "failed to shut down index engine"))
	}
	r.indices = nil
	return errors.Join(errs...)
}

func (r *Registry) checkOpen() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errutils.ErrRegistryClosed
	}
	return nil
}

func (r *Registry) findLocked(key string, kind Kind) *RepositoryIndex {
	for _, idx := range r.indices {
		if idx.kind == kind && idx.key == key {
			return idx
		}
	}
	return nil
}

func (r *Registry) openLocked(ctx context.Context, loc string, kind Kind, dir string) (*RepositoryIndex, error) {
	idx := &RepositoryIndex{
		kind:     kind,
		location: loc,
		key:      location.Normalize(loc),
		dir:      dir,
	}

	handle, err := r.engine.Open(ctx, OpenRequest{
		Location: loc,
		Kind:     kind,
		Dir:      dir,
		OnBroken: func() { r.reportBroken(idx) },
	})
	if err != nil {
		return nil, errutils.ErrIndexOpenWithLocation(loc, err)
	}
	idx.handle = handle
	idx.updated = handle.LastUpdate()
	return idx, nil
}

func (r *Registry) reportBroken(idx *RepositoryIndex) {
	idx.markBroken()
	logger.Warn("Index reported broken", logger.Fields{"index": idx.String()})
	if r.onBroken != nil {
		r.onBroken(idx)
	}
}

func (r *Registry) allocateDirLocked() (string, error) {
	if err := fsutil.EnsureDir(r.dir); err != nil {
		return "", err
	}
	for {
		r.lastID++
		dir := filepath.Join(r.dir, dirPrefix+strconv.Itoa(r.lastID))
		err := os.Mkdir(dir, fsutil.DirModeDefault)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", errutils.Wrapf(err, "failed to create index directory %s", dir)
		}
	}
}

// IsDataDir reports whether name is the name of an index data directory.
func IsDataDir(name string) bool {
	_, ok := parseDirID(name)
	return ok
}

func parseDirID(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, dirPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	id, err := strconv.Atoi(digits)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
