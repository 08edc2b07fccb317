package hooks

import (
	"os"
	"path/filepath"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/archetype"
	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/index"
)

// HookFileExtension is the extension of hook scripts.
const HookFileExtension = ".tengo"

// LoadScriptFile registers the script stored at path for hookType.
func LoadScriptFile(executor *TengoExecutor, hookType HookType, path string) error {
	if filepath.Ext(path) != HookFileExtension {
		return errutils.Wrapf(errutils.ErrHookLoad, "%s is not a %s script", path, HookFileExtension)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return errutils.Wrapf(errutils.ErrHookLoad, "error reading hook file %s: %v", path, err)
	}
	executor.AddScript(hookType, string(content))
	return nil
}

// CompletionHook adapts the post-update script to the callback signature
// of the update scheduler. Script failures are logged.
func CompletionHook(executor *TengoExecutor) func(*index.RepositoryIndex) {
	return func(idx *index.RepositoryIndex) {
		err := executor.Execute(PostUpdate, Context{
			IndexKey:      idx.Key(),
			IndexKind:     idx.Kind().String(),
			IndexLocation: idx.Location(),
			UpdatedAt:     idx.UpdatedAt(),
		})
		if err != nil {
			logger.Warn("Post-update hook failed", logger.Fields{"index": idx.String(), "error": err})
		}
	}
}

// ArchetypeHook adapts the post-archetype-add script to the manager's
// callback. The archetype is exposed as groupId, artifactId, version and
// repository. Script failures are logged.
func ArchetypeHook(executor *TengoExecutor) func(archetype.Info) {
	return func(info archetype.Info) {
		err := executor.Execute(PostArchetypeAdd, Context{
			Vars: map[string]interface{}{
				"groupId":    info.GroupID,
				"artifactId": info.ArtifactID,
				"version":    info.Version,
				"repository": info.Repository,
			},
		})
		if err != nil {
			logger.Warn("Post-archetype-add hook failed", logger.Fields{"archetype": info.String(), "error": err})
		}
	}
}
