package archetype

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/fsutil"
)

// UserArchetypesFile is the file name of the user archetype list inside the
// index directory.
const UserArchetypesFile = "UserArchetypes.xml"

type userDocument struct {
	XMLName    xml.Name    `xml:"archetypes"`
	Archetypes []userEntry `xml:"archetype"`
}

type userEntry struct {
	GroupID    string `xml:"groupId,attr"`
	ArtifactID string `xml:"artifactId,attr"`
	Version    string `xml:"version,attr"`
	Repository string `xml:"repository,attr,omitempty"`
}

// Store persists the archetypes added by the user as a small XML document:
//
//	<archetypes>
//	  <archetype groupId="g" artifactId="a" version="v" repository="r"/>
//	</archetypes>
type Store struct {
	path string
}

// NewStore creates a store for the document at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the document.
func (s *Store) Path() string { return s.path }

// Load reads the stored archetypes. A missing document yields an empty list.
// An unreadable document is logged and yields an empty list. Entries lacking
// a group, artifact or version are skipped.
func (s *Store) Load() []Info {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Cannot read user archetypes", logger.Fields{
				"path":  s.path,
				"error": fmt.Errorf("%w: %w", errutils.ErrPersistence, err),
			})
		}
		return []Info{}
	}

	var doc userDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		logger.Warn("Ignoring malformed user archetypes", logger.Fields{
			"path":  s.path,
			"error": fmt.Errorf("%w: %w", errutils.ErrPersistence, err),
		})
		return []Info{}
	}

	result := make([]Info, 0, len(doc.Archetypes))
	for _, e := range doc.Archetypes {
		info := Info{
			GroupID:    e.GroupID,
			ArtifactID: e.ArtifactID,
			Version:    e.Version,
			Repository: e.Repository,
		}
		if info.Validate() != nil {
			logger.Debug("Skipping incomplete user archetype", logger.Fields{"archetype": info.String()})
			continue
		}
		result = append(result, info)
	}
	return result
}

// Save replaces the document with entries. Failures are logged; the
// previous document stays intact because the file is written atomically.
func (s *Store) Save(entries []Info) {
	if err := s.save(entries); err != nil {
		logger.Error("Cannot save user archetypes", logger.Fields{"path": s.path, "error": err})
	}
}

func (s *Store) save(entries []Info) error {
	doc := userDocument{Archetypes: make([]userEntry, 0, len(entries))}
	for _, e := range entries {
		doc.Archetypes = append(doc.Archetypes, userEntry{
			GroupID:    e.GroupID,
			ArtifactID: e.ArtifactID,
			Version:    e.Version,
			Repository: e.Repository,
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", errutils.ErrPersistence, err)
	}
	data = append([]byte(xml.Header), data...)
	data = append(data, '\n')

	if err := fsutil.WriteFileAtomic(s.path, data, fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("%w: %w", errutils.ErrPersistence, err)
	}
	return nil
}
