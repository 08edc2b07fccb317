package index

import (
	"fmt"
	"sync"
	"time"
)

// NeverUpdated is the timestamp of an index that was never built.
const NeverUpdated int64 = -1

// RepositoryIndex is one searchable snapshot of a repository. Its identity is
// the pair (Kind, Key).
type RepositoryIndex struct {
	kind     Kind
	location string
	key      string
	dir      string
	handle   Handle

	mu      sync.RWMutex
	updated time.Time
	broken  bool
}

// Kind returns whether the index is local or remote.
func (i *RepositoryIndex) Kind() Kind { return i.kind }

// Location returns the location as it was first requested.
func (i *RepositoryIndex) Location() string { return i.location }

// Key returns the normalized location.
func (i *RepositoryIndex) Key() string { return i.key }

// Dir returns the index's private data directory.
func (i *RepositoryIndex) Dir() string { return i.dir }

// Handle returns the engine handle backing the index.
func (i *RepositoryIndex) Handle() Handle { return i.handle }

// Timestamp returns the last successful update in Unix milliseconds, or
// NeverUpdated.
func (i *RepositoryIndex) Timestamp() int64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.updated.IsZero() {
		return NeverUpdated
	}
	return i.updated.UnixMilli()
}

// UpdatedAt returns the last successful update time, zero if never updated.
func (i *RepositoryIndex) UpdatedAt() time.Time {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.updated
}

// IsBroken reports whether the engine flagged the index data as corrupt
// since the last successful update.
func (i *RepositoryIndex) IsBroken() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.broken
}

func (i *RepositoryIndex) String() string {
	return fmt.Sprintf("%s:%s", i.kind, i.key)
}

func (i *RepositoryIndex) recordUpdate(at time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.updated = at
	i.broken = false
}

func (i *RepositoryIndex) markBroken() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.broken = true
}
