// Package archetype aggregates Maven project archetypes from built-in
// catalogs, the registered indices, pluggable providers and the archetypes
// added by the user.
package archetype

import (
	"cmp"
	"fmt"
	"strings"

	version "github.com/hashicorp/go-version"

	"github.com/cperrin88/mvnindex/pkg/errutils"
)

// Info identifies an archetype. Two values are the same archetype when all
// four fields are equal.
type Info struct {
	GroupID    string `json:"group_id"`
	ArtifactID string `json:"artifact_id"`
	Version    string `json:"version"`
	Repository string `json:"repository,omitempty"`
}

// String returns the groupId:artifactId:version coordinate.
func (i Info) String() string {
	return i.GroupID + ":" + i.ArtifactID + ":" + i.Version
}

// Validate reports an errutils.ErrInvalidArchetype error when a required
// coordinate is blank.
func (i Info) Validate() error {
	var missing []string
	if strings.TrimSpace(i.GroupID) == "" {
		missing = append(missing, "groupId")
	}
	if strings.TrimSpace(i.ArtifactID) == "" {
		missing = append(missing, "artifactId")
	}
	if strings.TrimSpace(i.Version) == "" {
		missing = append(missing, "version")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w %q: missing %s", errutils.ErrInvalidArchetype, i.String(), strings.Join(missing, ", "))
	}
	return nil
}

func compareInfo(a, b Info) int {
	if c := cmp.Compare(a.GroupID, b.GroupID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ArtifactID, b.ArtifactID); c != 0 {
		return c
	}
	if c := compareVersions(a.Version, b.Version); c != 0 {
		return c
	}
	return cmp.Compare(a.Repository, b.Repository)
}

// compareVersions orders semantic versions numerically. Anything go-version
// cannot parse, such as RELEASE or LATEST, is compared as a plain string.
func compareVersions(a, b string) int {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	if errA != nil || errB != nil {
		return cmp.Compare(a, b)
	}
	if c := va.Compare(vb); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}
