package archetype

import (
	"context"
	"errors"
	"slices"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/index"
)

// IndexedSourceName is the name of the source backed by the registered indices.
const IndexedSourceName = "indices"

// Source lists archetypes. Built-in catalogs and pluggable providers share
// this interface.
type Source interface {
	Name() string
	ListArchetypes(ctx context.Context) ([]Info, error)
}

// StaticProvider serves a fixed list of archetypes.
type StaticProvider struct {
	name  string
	infos []Info
}

// NewStaticProvider creates a provider returning infos.
func NewStaticProvider(name string, infos ...Info) *StaticProvider {
	return &StaticProvider{name: name, infos: slices.Clone(infos)}
}

// Name implements Source.
func (p *StaticProvider) Name() string { return p.name }

// ListArchetypes implements Source.
func (p *StaticProvider) ListArchetypes(context.Context) ([]Info, error) {
	return slices.Clone(p.infos), nil
}

// IndexLister is the part of the index registry IndexedSource reads from.
type IndexLister interface {
	List() []*index.RepositoryIndex
	Archetypes(ctx context.Context, idx *index.RepositoryIndex) ([]index.ArchetypeRecord, error)
}

// IndexedSource lists the archetypes found in every registered index.
type IndexedSource struct {
	indices IndexLister
}

// NewIndexedSource creates a source over the indices of lister.
func NewIndexedSource(lister IndexLister) *IndexedSource {
	return &IndexedSource{indices: lister}
}

// Name implements Source.
func (*IndexedSource) Name() string { return IndexedSourceName }

// ListArchetypes implements Source. Indices that cannot be read are skipped;
// their errors are returned joined only when no index could be read.
func (s *IndexedSource) ListArchetypes(ctx context.Context) ([]Info, error) {
	var (
		result []Info
		errs   []error
		read   int
	)
	indices := s.indices.List()
	for _, idx := range indices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := s.indices.Archetypes(ctx, idx)
		if err != nil {
			logger.Debug("Cannot read archetypes of index", logger.Fields{"index": idx.String(), "error": err})
			errs = append(errs, err)
			continue
		}
		read++
		for _, r := range records {
			result = append(result, Info{
				GroupID:    r.GroupID,
				ArtifactID: r.ArtifactID,
				Version:    r.Version,
				Repository: r.Repository,
			})
		}
	}
	if read == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return result, nil
}
