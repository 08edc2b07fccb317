package engine

import (
	"context"
	"crypto/sha1" //nolint:gosec // Maven repositories publish sha1 digests
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/archive"
	"github.com/cperrin88/mvnindex/pkg/errutils"
)

// archetypeDescriptors mark a jar as an archetype, current format first.
var archetypeDescriptors = []string{
	"META-INF/maven/archetype-metadata.xml",
	"META-INF/maven/archetype.xml",
}

var indexedExtensions = map[string]bool{".pom": true, ".jar": true}

var errNotInLayout = errors.New("file does not follow the repository layout")

// scanRepository describes every artifact below root. A missing root yields
// an empty result.
func scanRepository(ctx context.Context, root string) ([]*Artifact, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("Repository root does not exist yet", logger.Fields{"root": root})
		return []*Artifact{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", errutils.ErrInvalidPath, root)
	}

	artifacts := make([]*Artifact, 0, 64)
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !indexedExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}

		a, err := describeArtifact(ctx, root, p)
		if errors.Is(err, errNotInLayout) {
			logger.Debug("Skipping file outside the repository layout", logger.Fields{"file": p})
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to describe %s: %w", p, err)
		}
		artifacts = append(artifacts, a)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return artifacts, nil
}

// describeArtifact derives coordinates from the file's position below root,
// group/path/artifact/version/artifact-version[-classifier].ext.
func describeArtifact(ctx context.Context, root, file string) (*Artifact, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return nil, errNotInLayout
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return nil, errNotInLayout
	}

	parts := strings.Split(rel, "/")
	n := len(parts)
	if n < 4 {
		return nil, errNotInLayout
	}
	ver, artifactID, name := parts[n-2], parts[n-3], parts[n-1]
	ext := path.Ext(name)
	if ext == "" {
		return nil, errNotInLayout
	}
	base := strings.TrimSuffix(name, ext)
	prefix := artifactID + "-" + ver

	var classifier string
	switch {
	case base == prefix:
	case strings.HasPrefix(base, prefix+"-"):
		classifier = strings.TrimPrefix(base, prefix+"-")
	default:
		return nil, errNotInLayout
	}

	stat, err := os.Stat(file)
	if err != nil {
		return nil, err
	}
	sum, err := sha1File(file)
	if err != nil {
		return nil, err
	}

	a := &Artifact{
		GroupID:    strings.Join(parts[:n-3], "."),
		ArtifactID: artifactID,
		Version:    ver,
		Classifier: classifier,
		Packaging:  strings.ToLower(strings.TrimPrefix(ext, ".")),
		Path:       rel,
		Size:       stat.Size(),
		SHA1:       sum,
	}
	if a.Packaging == "jar" && classifier == "" {
		a.Archetype = isArchetypeJar(ctx, file)
	}
	return a, nil
}

func isArchetypeJar(ctx context.Context, file string) bool {
	entry, err := archive.FindEntry(ctx, file, archetypeDescriptors...)
	if err != nil {
		logger.Debug("Cannot inspect jar", logger.Fields{"file": file, "error": err})
		return false
	}
	return entry != ""
}

func sha1File(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
