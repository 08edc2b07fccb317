package archetype

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/mvnindex/pkg/errutils"
)

type failingSource struct{ name string }

func (s failingSource) Name() string { return s.name }

func (s failingSource) ListArchetypes(context.Context) ([]Info, error) {
	return nil, errors.New("catalog unavailable")
}

// slowSource records how many sources run at the same time.
type slowSource struct {
	name    string
	running *atomic.Int32
	peak    *atomic.Int32
}

func (s slowSource) Name() string { return s.name }

func (s slowSource) ListArchetypes(context.Context) ([]Info, error) {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return []Info{{GroupID: "org.slow", ArtifactID: s.name, Version: "1.0"}}, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), UserArchetypesFile))
}

func TestCatalog_DefaultArchetypes(t *testing.T) {
	c := NewCatalog(newTestStore(t), []Source{NewInternalCatalog()}, nil)

	infos := c.Archetypes(context.Background())
	assert.Contains(t, infos, Info{
		GroupID:    "org.apache.maven.archetypes",
		ArtifactID: "maven-archetype-quickstart",
		Version:    "RELEASE",
	})
}

func TestCatalog_AddArchetypeSurvivesReload(t *testing.T) {
	store := newTestStore(t)
	c := NewCatalog(store, []Source{NewInternalCatalog()}, nil)

	custom := Info{GroupID: "myGroup", ArtifactID: "myArtifact", Version: "666", Repository: "custom.repository"}
	require.NoError(t, c.Add(custom))
	assert.Contains(t, c.Archetypes(context.Background()), custom)

	reloaded := NewCatalog(NewStore(store.Path()), []Source{NewInternalCatalog()}, nil)
	assert.Contains(t, reloaded.Archetypes(context.Background()), custom)
	assert.Equal(t, []Info{custom}, reloaded.UserArchetypes())
}

func TestCatalog_AddKeepsFieldsVerbatimAcrossReload(t *testing.T) {
	store := newTestStore(t)
	c := NewCatalog(store, nil, nil)

	padded := Info{GroupID: "myGroup", ArtifactID: "myArtifact", Version: "666", Repository: " custom "}
	require.NoError(t, c.Add(padded))

	reloaded := NewCatalog(NewStore(store.Path()), nil, nil)
	assert.Equal(t, []Info{padded}, reloaded.UserArchetypes())
	assert.Contains(t, reloaded.Archetypes(context.Background()), padded)
}

func TestCatalog_AddValidation(t *testing.T) {
	tests := []struct {
		name string
		info Info
	}{
		{name: "blank group", info: Info{ArtifactID: "a", Version: "1"}},
		{name: "blank artifact", info: Info{GroupID: "g", ArtifactID: "  ", Version: "1"}},
		{name: "blank version", info: Info{GroupID: "g", ArtifactID: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			c := NewCatalog(store, nil, nil)

			err := c.Add(tt.info)
			assert.ErrorIs(t, err, errutils.ErrInvalidArchetype)
			assert.Empty(t, c.UserArchetypes())
			assert.NoFileExists(t, store.Path())
		})
	}
}

func TestCatalog_AddKeepsDuplicates(t *testing.T) {
	store := newTestStore(t)
	c := NewCatalog(store, nil, nil)
	info := Info{GroupID: "g", ArtifactID: "a", Version: "1"}

	require.NoError(t, c.Add(info))
	require.NoError(t, c.Add(info))

	assert.Len(t, c.UserArchetypes(), 2)
	assert.Len(t, store.Load(), 2)
	assert.Equal(t, []Info{info}, c.Archetypes(context.Background()))
}

func TestCatalog_UnionDedupAndOrder(t *testing.T) {
	shared := Info{GroupID: "org.example", ArtifactID: "web", Version: "1.0"}
	c := NewCatalog(newTestStore(t),
		[]Source{NewStaticProvider("builtin",
			Info{GroupID: "org.example", ArtifactID: "web", Version: "1.10"},
			shared,
		)},
		[]Source{
			NewStaticProvider("provider",
				shared,
				Info{GroupID: "org.example", ArtifactID: "web", Version: "1.9"},
				Info{GroupID: "com.example", ArtifactID: "cli", Version: "RELEASE"},
			),
		},
	)
	require.NoError(t, c.Add(shared))

	assert.Equal(t, []Info{
		{GroupID: "com.example", ArtifactID: "cli", Version: "RELEASE"},
		{GroupID: "org.example", ArtifactID: "web", Version: "1.0"},
		{GroupID: "org.example", ArtifactID: "web", Version: "1.9"},
		{GroupID: "org.example", ArtifactID: "web", Version: "1.10"},
	}, c.Archetypes(context.Background()))
}

func TestCatalog_FailingProviderIsSkipped(t *testing.T) {
	c := NewCatalog(newTestStore(t),
		[]Source{NewInternalCatalog()},
		[]Source{
			failingSource{name: "broken"},
			NewStaticProvider("extra", Info{GroupID: "x", ArtifactID: "y", Version: "1"}),
		},
	)

	infos := c.Archetypes(context.Background())
	assert.Contains(t, infos, Info{GroupID: "x", ArtifactID: "y", Version: "1"})
	assert.Contains(t, infos, Info{GroupID: "org.apache.maven.archetypes", ArtifactID: "maven-archetype-quickstart", Version: "RELEASE"})
}

func TestCatalog_ConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	sources := make([]Source, 0, 6)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		sources = append(sources, slowSource{name: name, running: &running, peak: &peak})
	}
	c := NewCatalog(nil, nil, sources, WithMaxConcurrentSources(2))

	infos := c.Archetypes(context.Background())
	assert.Len(t, infos, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestCatalog_ConcurrentAdd(t *testing.T) {
	store := newTestStore(t)
	c := NewCatalog(store, nil, nil)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Add(Info{GroupID: "g", ArtifactID: "a", Version: string(rune('a' + i))}))
		}()
	}
	wg.Wait()

	assert.Len(t, c.UserArchetypes(), 20)
	assert.Len(t, store.Load(), 20)
}

func TestCatalog_UserArchetypesIsCopy(t *testing.T) {
	c := NewCatalog(newTestStore(t), nil, nil)
	require.NoError(t, c.Add(Info{GroupID: "g", ArtifactID: "a", Version: "1"}))

	user := c.UserArchetypes()
	user[0].Version = "changed"
	assert.Equal(t, "1", c.UserArchetypes()[0].Version)
}
