package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetIndicesDir_FollowsXDGDataHome(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	dataDir, err := GetDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataHome, AppName), dataDir)

	indicesDir, err := GetIndicesDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataHome, AppName, "indices"), indicesDir)
}

func TestGetLocalRepositoryDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	dir, err := GetLocalRepositoryDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".m2", "repository"), dir)
}
