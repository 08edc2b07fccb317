package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/download"
	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/index"
)

// UpdateOrRepair rebuilds the snapshot. A non-full update only rebuilds
// when the snapshot is missing or broken and otherwise refreshes its
// timestamp.
func (e *Engine) UpdateOrRepair(ctx context.Context, h index.Handle, full bool) error {
	eh, err := e.acquire(h)
	if err != nil {
		return err
	}

	eh.mu.RLock()
	healthy := eh.snapshot != nil && !eh.broken
	eh.mu.RUnlock()

	if !full && healthy {
		return eh.commit(func(s *Snapshot) *Snapshot {
			refreshed := *s
			refreshed.LastUpdate = time.Now().UTC()
			return &refreshed
		})
	}

	started := time.Now()
	var snapshot *Snapshot
	switch eh.kind {
	case index.Local:
		artifacts, err := scanRepository(ctx, eh.root)
		if err != nil {
			return err
		}
		snapshot = NewSnapshot(artifacts)
	case index.Remote:
		snapshot, err = e.fetchRemote(ctx, eh)
		if err != nil {
			return err
		}
	}

	if err := eh.commit(func(*Snapshot) *Snapshot { return snapshot }); err != nil {
		return err
	}
	logger.Debug("Index rebuilt", logger.Fields{
		"location":  eh.location,
		"artifacts": len(snapshot.Artifacts),
		"full":      full,
		"duration":  time.Since(started).String(),
	})
	return nil
}

func (e *Engine) fetchRemote(ctx context.Context, eh *handle) (*Snapshot, error) {
	if e.fetcher == nil {
		return nil, fmt.Errorf("%w: no downloader configured for %s", errutils.ErrDownloadFailed, eh.location)
	}
	item := download.Item{
		ID:       eh.location,
		URL:      eh.remote.JoinPath(RemoteIndexFile),
		Filename: RemoteIndexFile,
	}
	if _, err := e.fetcher.Fetch(ctx, item, download.Options{Dir: eh.dir, Refresh: true}); err != nil {
		return nil, err
	}

	fetched, err := readFetched(eh.dir)
	if err != nil {
		return nil, err
	}
	fetched.LastUpdate = time.Now().UTC()
	fetched.sort()
	return fetched, nil
}

// commit replaces the snapshot with next(current), persists it and clears
// the broken flag.
func (h *handle) commit(next func(*Snapshot) *Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errHandleClosed
	}

	s := next(h.snapshot)
	if err := s.Write(h.dir); err != nil {
		return err
	}
	h.snapshot = s
	h.broken = false
	return nil
}

// AddArtifact describes file and stores it in a local snapshot without
// rescanning the repository.
func (e *Engine) AddArtifact(ctx context.Context, h index.Handle, file string) error {
	eh, err := e.acquire(h)
	if err != nil {
		return err
	}
	if eh.kind != index.Local {
		return fmt.Errorf("%w: artifacts can only be added to local indices", errutils.ErrValidation)
	}

	a, err := describeArtifact(ctx, eh.root, file)
	if errors.Is(err, errNotInLayout) {
		return fmt.Errorf("%w: %s", errutils.ErrArtifactOutsideRepository, file)
	}
	if err != nil {
		return err
	}

	return eh.commit(func(s *Snapshot) *Snapshot {
		var updated Snapshot
		if s == nil {
			updated = Snapshot{FormatVersion: CurrentFormatVersion}
		} else {
			updated = *s
		}
		updated.Artifacts = slices.Clone(updated.Artifacts)
		updated.Upsert(a)
		return &updated
	})
}

// Archetypes lists the archetype jars of the snapshot. Remote records carry
// the repository URL.
func (e *Engine) Archetypes(_ context.Context, h index.Handle) ([]index.ArchetypeRecord, error) {
	eh, err := e.acquire(h)
	if err != nil {
		return nil, err
	}

	eh.mu.RLock()
	defer eh.mu.RUnlock()
	if eh.snapshot == nil {
		return nil, nil
	}

	var repository string
	if eh.kind == index.Remote {
		repository = eh.location
	}

	records := make([]index.ArchetypeRecord, 0)
	seen := make(map[index.ArchetypeRecord]bool)
	for _, a := range eh.snapshot.Artifacts {
		if !a.Archetype || a.Classifier != "" {
			continue
		}
		r := index.ArchetypeRecord{
			GroupID:    a.GroupID,
			ArtifactID: a.ArtifactID,
			Version:    a.Version,
			Repository: repository,
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		records = append(records, r)
	}
	return records, nil
}
