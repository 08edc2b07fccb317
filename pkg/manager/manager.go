// Package manager is the entry point of mvnindex. It wires the index
// registry, the update scheduler and the archetype catalog together and
// exposes the operations used by the command line.
package manager

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/archetype"
	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/index"
	"github.com/cperrin88/mvnindex/pkg/scheduler"
)

// ErrShutdown is returned by Init after Shutdown.
var ErrShutdown = errors.New("manager is shut down")

// Options configures a Manager.
type Options struct {
	// IndexDir holds the index data directories and the user archetypes.
	IndexDir string
	// EngineFactory creates the index engine during initialization.
	EngineFactory func() (index.Engine, error)
	// Providers are archetype sources queried next to the built-in ones.
	Providers []archetype.Source
	// CompletionHook runs once for every successfully updated index.
	CompletionHook func(*index.RepositoryIndex)
	// EventHook receives scheduler progress events.
	EventHook func(scheduler.Event)
	// ArchetypeHook runs after a user archetype was added.
	ArchetypeHook func(archetype.Info)
	// MaxConcurrentSources bounds parallel archetype source queries.
	MaxConcurrentSources int
}

// Manager owns the subsystems. It initializes them on Init or on first use.
type Manager struct {
	opts Options

	mu        sync.Mutex
	ready     bool
	closed    bool
	registry  *index.Registry
	scheduler *scheduler.Scheduler
	catalog   *archetype.Catalog
}

// New creates a manager. Nothing is opened until Init or the first operation.
func New(opts Options) *Manager {
	return &Manager{opts: opts}
}

// Init creates the engine, reloads the persisted indices and user archetypes
// and starts the update worker. Calling it again is a no-op.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initLocked(ctx)
}

func (m *Manager) initLocked(ctx context.Context) error {
	if m.closed {
		return ErrShutdown
	}
	if m.ready {
		return nil
	}
	if m.opts.EngineFactory == nil {
		return errutils.Wrap(errutils.ErrValidation, "no index engine configured")
	}

	engine, err := m.opts.EngineFactory()
	if err != nil {
		return errutils.Wrap(err, "failed to create index engine")
	}

	var sched *scheduler.Scheduler
	registry := index.NewRegistry(engine, m.opts.IndexDir, func(idx *index.RepositoryIndex) {
		sched.NotifyBroken(idx)
	})

	var schedOpts []scheduler.Option
	if m.opts.CompletionHook != nil {
		schedOpts = append(schedOpts, scheduler.WithCompletionHook(m.opts.CompletionHook))
	}
	if m.opts.EventHook != nil {
		schedOpts = append(schedOpts, scheduler.WithEventHook(m.opts.EventHook))
	}
	sched = scheduler.New(registry, schedOpts...)

	if err := registry.Load(ctx); err != nil {
		logger.Warn("Failed to reload indices", logger.Fields{"dir": m.opts.IndexDir, "error": err})
	}

	store := archetype.NewStore(filepath.Join(m.opts.IndexDir, archetype.UserArchetypesFile))
	builtins := []archetype.Source{
		archetype.NewInternalCatalog(),
		archetype.NewIndexedSource(registry),
	}
	var catalogOpts []archetype.CatalogOption
	if m.opts.MaxConcurrentSources > 0 {
		catalogOpts = append(catalogOpts, archetype.WithMaxConcurrentSources(m.opts.MaxConcurrentSources))
	}

	m.registry = registry
	m.scheduler = sched
	m.catalog = archetype.NewCatalog(store, builtins, m.opts.Providers, catalogOpts...)
	m.ready = true

	logger.Debug("Index manager initialized", logger.Fields{
		"dir":     m.opts.IndexDir,
		"indices": len(registry.List()),
	})
	return nil
}

// ensure lazily initializes the manager. Failures are logged.
func (m *Manager) ensure(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		logger.Error("Index manager is not available", logger.Fields{"error": err})
		return false
	}
	return true
}

// Shutdown cancels running updates, drops queued ones and closes every
// index. The manager cannot be used afterwards. Hooks still running while
// the worker stops see a closed manager.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if !m.ready {
		m.mu.Unlock()
		return nil
	}
	m.ready = false
	sched, registry := m.scheduler, m.registry
	m.mu.Unlock()

	sched.Close()
	return registry.Close()
}

// EnsureIndicesExist returns the indices for the local repository and the
// remote repositories, creating missing ones. A local index that was never
// built is scheduled for a full update. Locations that cannot be opened are
// logged and left out.
func (m *Manager) EnsureIndicesExist(ctx context.Context, localRepository string, remotes []string) []*index.RepositoryIndex {
	if !m.ensure(ctx) {
		return nil
	}

	result := make([]*index.RepositoryIndex, 0, len(remotes)+1)
	seen := make(map[*index.RepositoryIndex]bool)
	add := func(idx *index.RepositoryIndex) {
		if !seen[idx] {
			seen[idx] = true
			result = append(result, idx)
		}
	}

	if strings.TrimSpace(localRepository) != "" {
		local, err := m.registry.AddOrGet(ctx, localRepository, index.Local)
		if err != nil {
			logger.Warn("Cannot open local repository index", logger.Fields{"location": localRepository, "error": err})
		} else {
			add(local)
			if local.Timestamp() == index.NeverUpdated {
				m.scheduler.ScheduleUpdate([]*index.RepositoryIndex{local}, true)
			}
		}
	}

	for _, remote := range remotes {
		idx, err := m.registry.AddOrGet(ctx, remote, index.Remote)
		if err != nil {
			logger.Warn("Cannot open remote repository index", logger.Fields{"location": remote, "error": err})
			continue
		}
		add(idx)
	}
	return result
}

// Indices returns every registered index.
func (m *Manager) Indices(ctx context.Context) []*index.RepositoryIndex {
	if !m.ensure(ctx) {
		return nil
	}
	return m.registry.List()
}

// AddArtifact adds a freshly installed artifact to the index of the local
// repository it lives in. artifactName is the artifact's path relative to
// the repository root, for example org/example/lib/1.0/lib-1.0.jar. Nothing
// happens when no local index covers the file.
func (m *Manager) AddArtifact(ctx context.Context, artifactFile, artifactName string) {
	if !m.ensure(ctx) {
		return
	}

	root := repositoryRoot(artifactFile, artifactName)
	idx := m.registry.FindLocalContaining(root)
	if idx == nil {
		logger.Debug("No local index for artifact", logger.Fields{"file": artifactFile, "root": root})
		return
	}
	if err := m.registry.AddArtifact(ctx, idx, artifactFile); err != nil {
		logger.Warn("Failed to add artifact to index", logger.Fields{
			"file":  artifactFile,
			"index": idx.String(),
			"error": err,
		})
		return
	}
	logger.Debug("Added artifact to index", logger.Fields{"file": artifactFile, "index": idx.String()})
}

// repositoryRoot walks up from file one directory per segment of name.
func repositoryRoot(file, name string) string {
	root := filepath.Clean(file)
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == "" {
			continue
		}
		root = filepath.Dir(root)
	}
	return root
}

// ScheduleUpdate queues a full rebuild of indices.
func (m *Manager) ScheduleUpdate(ctx context.Context, indices []*index.RepositoryIndex) {
	if !m.ensure(ctx) {
		return
	}
	m.scheduler.ScheduleUpdate(indices, true)
}

// ScheduleRepair queues a repair of indices. Healthy indices only get their
// timestamp refreshed.
func (m *Manager) ScheduleRepair(ctx context.Context, indices []*index.RepositoryIndex) {
	if !m.ensure(ctx) {
		return
	}
	m.scheduler.ScheduleUpdate(indices, false)
}

// UpdatingState reports whether idx is idle, queued or being updated.
func (m *Manager) UpdatingState(ctx context.Context, idx *index.RepositoryIndex) scheduler.State {
	if !m.ensure(ctx) {
		return scheduler.Idle
	}
	return m.scheduler.State(idx)
}

// CancelUpdate cancels the batch that is running right now.
func (m *Manager) CancelUpdate(ctx context.Context) {
	if !m.ensure(ctx) {
		return
	}
	m.scheduler.Cancel()
}

// Wait blocks until every queued update has finished.
func (m *Manager) Wait(ctx context.Context) {
	if !m.ensure(ctx) {
		return
	}
	m.scheduler.Wait()
}

// Archetypes returns the archetypes of every source and the user list.
func (m *Manager) Archetypes(ctx context.Context) []archetype.Info {
	if !m.ensure(ctx) {
		return nil
	}
	return m.catalog.Archetypes(ctx)
}

// AddArchetype stores a user archetype. Only validation errors are returned.
func (m *Manager) AddArchetype(ctx context.Context, info archetype.Info) error {
	if err := info.Validate(); err != nil {
		return err
	}
	if !m.ensure(ctx) {
		return nil
	}
	if err := m.catalog.Add(info); err != nil {
		return err
	}
	if m.opts.ArchetypeHook != nil {
		m.opts.ArchetypeHook(info)
	}
	return nil
}
