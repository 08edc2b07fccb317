package cache

import (
	"fmt"
	"strings"

	"github.com/cperrin88/mvnindex/internal/logger"
)

// CacheOperation renders cache management results for the command line.
type CacheOperation struct {
	manager Manager
}

// NewCacheOperation creates a new cache operation instance.
func NewCacheOperation(manager Manager) *CacheOperation {
	return &CacheOperation{
		manager: manager,
	}
}

// Clean cleans the cache based on the provided options.
func (op *CacheOperation) Clean(all, indices, catalogs bool) (string, error) {
	options := CleanOptions{
		All:      all,
		Indices:  indices,
		Catalogs: catalogs,
	}

	logger.Debug("Cleaning cache", logger.Fields{
		"all":      options.All,
		"indices":  options.Indices,
		"catalogs": options.Catalogs,
	})

	result, err := op.manager.Clean(options)
	if err != nil {
		return "", err
	}

	if result.TotalFreed == 0 && result.IndexCount == 0 {
		return "No files were removed from the cache.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Successfully cleaned cache. Freed %s of disk space.", formatBytes(result.TotalFreed))
	if result.IndexCount > 0 {
		fmt.Fprintf(&sb, "\n- Indices: %s (%d removed)", formatBytes(result.IndexFreed), result.IndexCount)
	}
	if result.CatalogFreed > 0 {
		fmt.Fprintf(&sb, "\n- Catalogs: %s", formatBytes(result.CatalogFreed))
	}
	return sb.String(), nil
}

// GetInfo returns information about the cache.
func (op *CacheOperation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Cache Information:
  Index Directory:   %s
  Catalog Directory: %s
  Total Size:        %s
  Indices:           %s (%d indices)
  Catalogs:          %s (%d files)`,
		info.IndexDir,
		info.CatalogDir,
		formatBytes(info.TotalSize),
		formatBytes(info.IndexSize),
		info.IndexCount,
		formatBytes(info.CatalogSize),
		info.CatalogFiles,
	), nil
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T", "P", "E"}
	if exp < len(units) {
		return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
	}
	return fmt.Sprintf("%d B", bytes)
}
