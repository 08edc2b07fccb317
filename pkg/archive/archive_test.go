package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCreateZipAndFindEntry(t *testing.T) {
	tempDir := t.TempDir()
	ctx := context.Background()

	descriptor := writeFile(t, filepath.Join(tempDir, "src", "archetype-metadata.xml"), "<archetype-descriptor/>")
	manifest := writeFile(t, filepath.Join(tempDir, "src", "MANIFEST.MF"), "Manifest-Version: 1.0\n")

	jar := filepath.Join(tempDir, "quickstart-1.0.jar")
	require.NoError(t, CreateZip(ctx, jar, map[string]string{
		descriptor: "META-INF/maven/archetype-metadata.xml",
		manifest:   "META-INF/MANIFEST.MF",
	}))
	require.FileExists(t, jar)

	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{
			name:  "first candidate present",
			names: []string{"META-INF/maven/archetype-metadata.xml", "META-INF/maven/archetype.xml"},
			want:  "META-INF/maven/archetype-metadata.xml",
		},
		{
			name:  "later candidate present",
			names: []string{"META-INF/maven/archetype.xml", "META-INF/MANIFEST.MF"},
			want:  "META-INF/MANIFEST.MF",
		},
		{
			name:  "none present",
			names: []string{"META-INF/maven/archetype.xml"},
			want:  "",
		},
		{
			name:  "directory does not count",
			names: []string{"META-INF/maven"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindEntry(ctx, jar, tt.names...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindEntry_NotAnArchive(t *testing.T) {
	plain := writeFile(t, filepath.Join(t.TempDir(), "lib-1.0.jar"), "definitely not a zip")
	got, err := FindEntry(context.Background(), plain, "META-INF/maven/archetype-metadata.xml")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindEntry_MissingFile(t *testing.T) {
	_, err := FindEntry(context.Background(), filepath.Join(t.TempDir(), "missing.jar"), "x")
	assert.Error(t, err)
}
