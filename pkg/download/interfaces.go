package download

import (
	"context"
	"net/url"
)

// Manager downloads remote index files and archetype catalogs.
type Manager interface {
	// FetchAll downloads all items concurrently. The returned map holds the
	// local path of every item that succeeded, keyed by Item.ID. Failures are
	// joined into the returned error; successful items are still reported.
	FetchAll(ctx context.Context, items []Item, opts Options) (map[string]string, error)

	// Fetch downloads a single item into opts.Dir and returns its local path.
	Fetch(ctx context.Context, item Item, opts Options) (string, error)
}

// Item is one remote resource to download.
type Item struct {
	ID       string   // unique within a batch
	URL      *url.URL // source URL
	Checksum string   // optional hex-encoded SHA-256
	Filename string   // optional target name; derived from the URL when empty
}

// Options control a download.
type Options struct {
	Dir         string // absolute destination directory
	Concurrency int    // parallel downloads for FetchAll; <=0 picks a default
	Refresh     bool   // download again even when the target already exists
}
