package engine

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/fsutil"
)

const (
	// IndexFile is the snapshot file inside every index data directory.
	IndexFile = "index.json"
	// RemoteIndexFile is fetched from the root of a remote repository.
	RemoteIndexFile = "mvnindex.json"
	// CurrentFormatVersion is the snapshot format written by this engine.
	CurrentFormatVersion = "1"
)

// Artifact describes one file of a Maven repository.
type Artifact struct {
	GroupID    string `json:"group_id"`
	ArtifactID string `json:"artifact_id"`
	Version    string `json:"version"`
	Classifier string `json:"classifier,omitempty"`
	Packaging  string `json:"packaging"`
	// Path is relative to the repository root, slash separated.
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	SHA1      string `json:"sha1"`
	Archetype bool   `json:"archetype,omitempty"`
}

// Snapshot is the content of an index file.
type Snapshot struct {
	FormatVersion string      `json:"format_version"`
	LastUpdate    time.Time   `json:"last_update"`
	Artifacts     []*Artifact `json:"artifacts"`
}

// NewSnapshot creates a sorted snapshot of artifacts stamped with the current time.
func NewSnapshot(artifacts []*Artifact) *Snapshot {
	if artifacts == nil {
		artifacts = []*Artifact{}
	}
	s := &Snapshot{
		FormatVersion: CurrentFormatVersion,
		LastUpdate:    time.Now().UTC(),
		Artifacts:     artifacts,
	}
	s.sort()
	return s
}

// ParseSnapshot decodes an index file.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&s); err != nil {
		return nil, errutils.Wrapf(errutils.ErrIndexBroken, "failed to parse index: %v", err)
	}
	if s.FormatVersion == "" {
		return nil, errutils.Wrap(errutils.ErrIndexBroken, "missing format version in index")
	}
	if s.FormatVersion != CurrentFormatVersion {
		return nil, errutils.Wrapf(errutils.ErrIndexBroken, "unsupported index format %q", s.FormatVersion)
	}
	for i, a := range s.Artifacts {
		if a == nil || a.GroupID == "" || a.ArtifactID == "" || a.Version == "" {
			return nil, errutils.Wrapf(errutils.ErrIndexBroken, "artifact %d misses coordinates", i)
		}
	}
	return &s, nil
}

// ReadSnapshot reads the index file in dir. The returned error wraps
// os.ErrNotExist when there is none.
func ReadSnapshot(dir string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, err
	}
	return ParseSnapshot(data)
}

// Write stores the snapshot in dir atomically.
func (s *Snapshot) Write(dir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errutils.Wrap(err, "failed to marshal index to JSON")
	}
	return fsutil.WriteFileAtomic(filepath.Join(dir, IndexFile), data, fsutil.FileModeDefault)
}

// Upsert replaces the artifact stored under the same path or appends it.
func (s *Snapshot) Upsert(a *Artifact) {
	for i, existing := range s.Artifacts {
		if existing.Path == a.Path {
			s.Artifacts[i] = a
			return
		}
	}
	s.Artifacts = append(s.Artifacts, a)
	s.sort()
}

func (s *Snapshot) sort() {
	slices.SortStableFunc(s.Artifacts, compareArtifacts)
}

func compareArtifacts(a, b *Artifact) int {
	if c := strings.Compare(a.GroupID, b.GroupID); c != 0 {
		return c
	}
	if c := strings.Compare(a.ArtifactID, b.ArtifactID); c != 0 {
		return c
	}
	if c := CompareVersions(a.Version, b.Version); c != 0 {
		return c
	}
	if c := strings.Compare(a.Classifier, b.Classifier); c != 0 {
		return c
	}
	return strings.Compare(a.Path, b.Path)
}

// CompareVersions orders Maven versions semantically when both parse and
// lexically otherwise.
func CompareVersions(a, b string) int {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	if errA == nil && errB == nil {
		if c := va.Compare(vb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

func readFetched(dir string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, RemoteIndexFile))
	if err != nil {
		return nil, err
	}
	return ParseSnapshot(data)
}
