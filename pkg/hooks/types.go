package hooks

import (
	"time"
)

// HookType names the moment a script runs.
type HookType string

// Supported hook types.
const (
	// PostUpdate runs after an index was updated successfully.
	PostUpdate HookType = "post-update"
	// PostArchetypeAdd runs after a user archetype was stored.
	PostArchetypeAdd HookType = "post-archetype-add"
)

// Context contains the information passed to a hook script.
type Context struct {
	IndexKey      string
	IndexKind     string
	IndexLocation string
	UpdatedAt     time.Time
	Vars          map[string]interface{}
}
