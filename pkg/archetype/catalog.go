package archetype

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/errutils"
)

// DefaultMaxConcurrentSources bounds how many sources are queried at once.
const DefaultMaxConcurrentSources = 4

// Catalog merges built-in sources, providers and user archetypes.
type Catalog struct {
	store       *Store
	sources     []Source
	concurrency int

	mu   sync.Mutex
	user []Info
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithMaxConcurrentSources sets how many sources are queried in parallel.
// Values below one are ignored.
func WithMaxConcurrentSources(n int) CatalogOption {
	return func(c *Catalog) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewCatalog creates a catalog and loads the user archetypes from store.
func NewCatalog(store *Store, builtins, providers []Source, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		store:       store,
		sources:     append(slices.Clone(builtins), providers...),
		concurrency: DefaultMaxConcurrentSources,
	}
	for _, opt := range opts {
		opt(c)
	}
	if store != nil {
		c.user = store.Load()
	}
	return c
}

// Archetypes returns every known archetype without duplicates, ordered by
// group, artifact and version. A failing source is logged and skipped.
func (c *Catalog) Archetypes(ctx context.Context) []Info {
	results := make([][]Info, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, src := range c.sources {
		g.Go(func() error {
			infos, err := src.ListArchetypes(gctx)
			if err != nil {
				logger.Warn("Archetype source failed", logger.Fields{
					"source": src.Name(),
					"error":  fmt.Errorf("%w %s: %w", errutils.ErrProvider, src.Name(), err),
				})
				return nil
			}
			results[i] = infos
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[Info]struct{})
	merged := make([]Info, 0)
	collect := func(infos []Info) {
		for _, info := range infos {
			if _, ok := seen[info]; ok {
				continue
			}
			seen[info] = struct{}{}
			merged = append(merged, info)
		}
	}
	for _, infos := range results {
		collect(infos)
	}
	collect(c.UserArchetypes())

	slices.SortFunc(merged, compareInfo)
	return merged
}

// Add validates info, appends it to the user archetypes and persists the
// whole list. Duplicates are kept.
func (c *Catalog) Add(info Info) error {
	if err := info.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = append(c.user, info)
	if c.store != nil {
		c.store.Save(c.user)
	}
	logger.Debug("Added user archetype", logger.Fields{"archetype": info.String(), "repository": info.Repository})
	return nil
}

// UserArchetypes returns a copy of the archetypes added by the user.
func (c *Catalog) UserArchetypes() []Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.user)
}
