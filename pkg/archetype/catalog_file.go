package archetype

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/download"
	"github.com/cperrin88/mvnindex/pkg/errutils"
)

// CatalogFileName is the conventional name of a Maven archetype catalog.
const CatalogFileName = "archetype-catalog.xml"

// InternalCatalogName is the name of the built-in catalog source.
const InternalCatalogName = "internal-catalog"

//go:embed archetype-catalog.xml
var internalCatalog []byte

type catalogDocument struct {
	XMLName    xml.Name       `xml:"archetype-catalog"`
	Archetypes []catalogEntry `xml:"archetypes>archetype"`
}

type catalogEntry struct {
	GroupID     string `xml:"groupId"`
	ArtifactID  string `xml:"artifactId"`
	Version     string `xml:"version"`
	Repository  string `xml:"repository"`
	Description string `xml:"description"`
}

// ParseCatalog reads a document in the Maven archetype-catalog.xml format.
// Entries with a blank coordinate are skipped.
func ParseCatalog(r io.Reader) ([]Info, error) {
	var doc catalogDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrCatalogParse, err)
	}

	result := make([]Info, 0, len(doc.Archetypes))
	for _, e := range doc.Archetypes {
		info := Info{
			GroupID:    strings.TrimSpace(e.GroupID),
			ArtifactID: strings.TrimSpace(e.ArtifactID),
			Version:    strings.TrimSpace(e.Version),
			Repository: strings.TrimSpace(e.Repository),
		}
		if info.Validate() != nil {
			continue
		}
		result = append(result, info)
	}
	return result, nil
}

func parseCatalogFile(path string) ([]Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	infos, err := ParseCatalog(f)
	if err != nil {
		return nil, errutils.Wrapf(err, "catalog %s", path)
	}
	return infos, nil
}

// InternalCatalog lists the standard archetypes shipped with mvnindex.
type InternalCatalog struct{}

// NewInternalCatalog returns the built-in catalog source.
func NewInternalCatalog() *InternalCatalog {
	return &InternalCatalog{}
}

// Name implements Source.
func (*InternalCatalog) Name() string { return InternalCatalogName }

// ListArchetypes implements Source.
func (*InternalCatalog) ListArchetypes(context.Context) ([]Info, error) {
	return ParseCatalog(bytes.NewReader(internalCatalog))
}

// CatalogFileProvider reads archetypes from a catalog file on disk. The file
// is read on every call so edits are picked up.
type CatalogFileProvider struct {
	name string
	path string
}

// NewCatalogFileProvider creates a provider for the catalog at path.
func NewCatalogFileProvider(name, path string) *CatalogFileProvider {
	return &CatalogFileProvider{name: name, path: path}
}

// Name implements Source.
func (p *CatalogFileProvider) Name() string { return p.name }

// ListArchetypes implements Source.
func (p *CatalogFileProvider) ListArchetypes(context.Context) ([]Info, error) {
	return parseCatalogFile(p.path)
}

// Fetcher is the subset of the download manager used for remote catalogs.
type Fetcher interface {
	Fetch(ctx context.Context, item download.Item, opts download.Options) (string, error)
}

// RemoteCatalogProvider downloads a catalog over HTTP on every call and
// keeps the last copy in a cache directory.
type RemoteCatalogProvider struct {
	name     string
	url      *url.URL
	fetcher  Fetcher
	cacheDir string
}

// NewRemoteCatalogProvider creates a provider for the catalog at rawURL.
// A URL ending in "/" gets archetype-catalog.xml appended.
func NewRemoteCatalogProvider(name, rawURL string, fetcher Fetcher, cacheDir string) (*RemoteCatalogProvider, error) {
	if strings.HasSuffix(rawURL, "/") {
		rawURL += CatalogFileName
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errutils.Wrapf(errutils.ErrInvalidPath, "catalog URL %q: %v", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errutils.Wrapf(errutils.ErrInvalidPath, "catalog URL %q must be http or https", rawURL)
	}
	return &RemoteCatalogProvider{name: name, url: u, fetcher: fetcher, cacheDir: cacheDir}, nil
}

// Name implements Source.
func (p *RemoteCatalogProvider) Name() string { return p.name }

// ListArchetypes implements Source. When the download fails the previously
// cached copy is used, if there is one.
func (p *RemoteCatalogProvider) ListArchetypes(ctx context.Context) ([]Info, error) {
	filename := cacheFileName(p.name)
	path, err := p.fetcher.Fetch(ctx, download.Item{
		ID:       p.name,
		URL:      p.url,
		Filename: filename,
	}, download.Options{Dir: p.cacheDir, Refresh: true})
	if err != nil {
		cached := filepath.Join(p.cacheDir, filename)
		if _, statErr := os.Stat(cached); statErr != nil || ctx.Err() != nil {
			return nil, err
		}
		logger.Warn("Using cached archetype catalog", logger.Fields{"catalog": p.name, "error": err})
		path = cached
	}
	return parseCatalogFile(path)
}

func cacheFileName(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	return filepath.Base(safe + "-" + CatalogFileName)
}
