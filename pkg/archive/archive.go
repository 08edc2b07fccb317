// Package archive inspects and creates zip-based artifacts such as jars.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/mholt/archives"
)

// FindEntry returns the first of names present in the archive at
// archivePath, or "" when none is. Files that are not archives hold no
// entries.
func FindEntry(ctx context.Context, archivePath string, names ...string) (string, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		info, err := fs.Stat(fsys, name)
		if err == nil && !info.IsDir() {
			return name, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to inspect %s in %s: %w", name, archivePath, err)
		}
	}
	return "", nil
}

// CreateZip writes a zip archive to archivePath. files maps paths on disk to
// their names inside the archive.
func CreateZip(ctx context.Context, archivePath string, files map[string]string) error {
	archiveFiles, err := archives.FilesFromDisk(ctx, nil, files)
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}

	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", archivePath, err)
	}
	defer func() { _ = file.Close() }()

	if err := (archives.Zip{}).Archive(ctx, file, archiveFiles); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return file.Sync()
}
