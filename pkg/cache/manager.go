// Package cache reports and cleans the index data directories and the
// downloaded archetype catalogs.
package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/fsutil"
	"github.com/cperrin88/mvnindex/pkg/index"
)

// DefaultManager implements Manager on the filesystem.
type DefaultManager struct {
	indexDir   string
	catalogDir string
}

var _ Manager = (*DefaultManager)(nil)

// NewManager creates a cache manager. Only the Index<N> data directories
// below indexDir are touched; the user archetype list next to them is kept.
func NewManager(indexDir, catalogDir string) *DefaultManager {
	return &DefaultManager{indexDir: indexDir, catalogDir: catalogDir}
}

// Clean removes cached data according to options. Indices removed here are
// gone for good; they are rebuilt by the next ensure and update.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	result := &CleanResult{}

	if !options.Indices && !options.Catalogs {
		options.All = true
	}

	if options.All || options.Indices {
		size, count, err := cm.cleanIndices()
		if err != nil {
			return nil, fmt.Errorf("%w: indices: %w", ErrCacheClean, err)
		}
		result.IndexFreed = size
		result.IndexCount = count
		result.TotalFreed += size
	}

	if options.All || options.Catalogs {
		size, err := cleanDirectory(cm.catalogDir)
		if err != nil {
			return nil, fmt.Errorf("%w: catalogs: %w", ErrCacheClean, err)
		}
		result.CatalogFreed = size
		result.TotalFreed += size
	}

	return result, nil
}

// GetInfo returns the size of the index data and of the catalog cache.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{IndexDir: cm.indexDir, CatalogDir: cm.catalogDir}

	dirs, err := cm.indexDirs()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheInfo, err)
	}
	for _, dir := range dirs {
		size, _, err := getDirSizeAndFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCacheInfo, err)
		}
		info.IndexSize += size
	}
	info.IndexCount = len(dirs)

	size, files, err := getDirSizeAndFiles(cm.catalogDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheInfo, err)
	}
	info.CatalogSize = size
	info.CatalogFiles = files

	info.TotalSize = info.IndexSize + info.CatalogSize
	return info, nil
}

func (cm *DefaultManager) indexDirs() ([]string, error) {
	entries, err := os.ReadDir(cm.indexDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errutils.Wrapf(err, "failed to read index directory %s", cm.indexDir)
	}
	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && index.IsDataDir(entry.Name()) {
			dirs = append(dirs, filepath.Join(cm.indexDir, entry.Name()))
		}
	}
	return dirs, nil
}

func (cm *DefaultManager) cleanIndices() (int64, int, error) {
	dirs, err := cm.indexDirs()
	if err != nil {
		return 0, 0, err
	}
	var freed int64
	for i, dir := range dirs {
		size, _, err := getDirSizeAndFiles(dir)
		if err != nil {
			return freed, i, err
		}
		if err := os.RemoveAll(dir); err != nil {
			return freed, i, errutils.Wrapf(err, "failed to remove directory %s", dir)
		}
		freed += size
	}
	return freed, len(dirs), nil
}

// cleanDirectory empties dir and returns the bytes freed.
func cleanDirectory(dir string) (int64, error) {
	size, _, err := getDirSizeAndFiles(dir)
	if err != nil {
		return 0, err
	}
	if size == 0 {
		if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
			return 0, nil
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, errutils.Wrapf(err, "failed to remove directory %s", dir)
	}
	if err := os.MkdirAll(dir, fsutil.DirModeSecure); err != nil {
		return size, errutils.Wrapf(err, "failed to recreate directory %s", dir)
	}
	return size, nil
}

// getDirSizeAndFiles calculates directory size and file count. A missing
// directory is empty.
func getDirSizeAndFiles(dir string) (size int64, count int, err error) {
	if _, err = os.Stat(dir); os.IsNotExist(err) {
		return 0, 0, nil
	}

	err = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		count++
		return nil
	})
	if err != nil {
		err = errutils.Wrapf(err, "error walking directory %s", dir)
	}
	return size, count, err
}
