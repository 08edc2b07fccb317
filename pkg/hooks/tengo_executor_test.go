package hooks_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/hooks"
)

func TestTengoExecutor(t *testing.T) {
	executor := hooks.NewTengoExecutor()
	ctx := hooks.Context{
		IndexKey:      "/home/u/.m2/repository",
		IndexKind:     "local",
		IndexLocation: `/home/u/.m2/repository/`,
		UpdatedAt:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Vars: map[string]interface{}{
			"customVar": "customValue",
		},
	}

	t.Run("empty script", func(t *testing.T) {
		executor.AddScript(hooks.PostUpdate, `// nothing to do`)
		assert.NoError(t, executor.Execute(hooks.PostUpdate, ctx))
	})

	t.Run("runtime error", func(t *testing.T) {
		executor.AddScript(hooks.PostUpdate, `non_existent_function()`)
		err := executor.Execute(hooks.PostUpdate, ctx)
		assert.ErrorIs(t, err, errutils.ErrHookExecution)
	})

	t.Run("missing script is a no-op", func(t *testing.T) {
		assert.NoError(t, executor.Execute("not-registered", ctx))
	})

	t.Run("script registration", func(t *testing.T) {
		hookType := hooks.HookType("test-hook")
		assert.False(t, executor.HasScript(hookType))
		executor.AddScript(hookType, "// test script")
		assert.True(t, executor.HasScript(hookType))
		executor.RemoveScript(hookType)
		assert.False(t, executor.HasScript(hookType))
	})

	t.Run("context variables are visible", func(t *testing.T) {
		executor.AddScript(hooks.PostUpdate, `
			err := ""
			if indexKey != "/home/u/.m2/repository" { err = "bad key" }
			if indexKind != "local" { err = "bad kind" }
			if updatedAt != "2024-03-01T10:00:00Z" { err = "bad time" }
			if customVar != "customValue" { err = "bad var" }
		`)
		assert.NoError(t, executor.Execute(hooks.PostUpdate, ctx))
	})

	t.Run("script reports an error string", func(t *testing.T) {
		executor.AddScript(hooks.PostUpdate, `
			strings := import("strings")
			err := ""
			if strings.has_prefix(indexLocation, "/home") {
				err = "refusing " + indexKind + " index"
			}
		`)
		err := executor.Execute(hooks.PostUpdate, ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, errutils.ErrHookScript)
		assert.Contains(t, err.Error(), "refusing local index")
	})

	t.Run("script writes a marker file", func(t *testing.T) {
		marker := filepath.Join(t.TempDir(), "updated.txt")
		executor.AddScript(hooks.PostArchetypeAdd, `
			os := import("os")
			fmt := import("fmt")
			f := os.create(target)
			f.write_string(fmt.sprintf("%s %s", indexKind, updatedAt))
			f.close()
		`)
		withTarget := ctx
		withTarget.Vars = map[string]interface{}{"target": marker}
		require.NoError(t, executor.Execute(hooks.PostArchetypeAdd, withTarget))

		content, err := os.ReadFile(marker)
		require.NoError(t, err)
		assert.Equal(t, "local 2024-03-01T10:00:00Z", string(content))
	})
}

func TestLoadScriptFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "notify.tengo")
	require.NoError(t, os.WriteFile(script, []byte(`x := 1`), 0o644))

	executor := hooks.NewTengoExecutor()
	require.NoError(t, hooks.LoadScriptFile(executor, hooks.PostUpdate, script))
	assert.True(t, executor.HasScript(hooks.PostUpdate))

	err := hooks.LoadScriptFile(executor, hooks.PostUpdate, filepath.Join(dir, "missing.tengo"))
	assert.ErrorIs(t, err, errutils.ErrHookLoad)

	other := filepath.Join(dir, "notify.sh")
	require.NoError(t, os.WriteFile(other, []byte(`echo`), 0o644))
	err = hooks.LoadScriptFile(executor, hooks.PostUpdate, other)
	assert.ErrorIs(t, err, errutils.ErrHookLoad)
}
