//go:generate mockgen -destination=./mocks/engine.go . Engine,Handle

package index

import (
	"context"
	"time"
)

// Handle is an engine-owned reference to one opened index.
type Handle interface {
	// LastUpdate returns the time of the last successful update or the zero
	// time when the index was never built.
	LastUpdate() time.Time
}

// OpenRequest describes an index the engine should open or create.
type OpenRequest struct {
	Location string
	Kind     Kind
	// Dir is the index's private data directory.
	Dir string
	// OnBroken must be called, possibly from another goroutine, when the
	// engine finds the index data corrupt.
	OnBroken func()
}

// ArchetypeRecord is an archetype the engine discovered inside an index.
type ArchetypeRecord struct {
	GroupID    string
	ArtifactID string
	Version    string
	Repository string
}

// Engine builds and reads the searchable data behind repository indices.
type Engine interface {
	Open(ctx context.Context, req OpenRequest) (Handle, error)
	UpdateOrRepair(ctx context.Context, h Handle, full bool) error
	AddArtifact(ctx context.Context, h Handle, file string) error
	Archetypes(ctx context.Context, h Handle) ([]ArchetypeRecord, error)
	Close(h Handle) error
	Shutdown() error
}
