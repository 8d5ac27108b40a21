package source

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"classgraph/internal/classfile/classtest"
	"classgraph/internal/session"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJar(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestCrawler_Collect(t *testing.T) {
	root := t.TempDir()
	classes := filepath.Join(root, "classes", "com", "example")
	require.NoError(t, os.MkdirAll(classes, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(classes, "App.class"), classtest.NewClass("com.example.App").Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(classes, "module-info.class"), []byte{0}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(classes, "README.md"), []byte("# docs"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "Hidden.class"), []byte{0}, 0o644))

	jar := filepath.Join(root, "lib.jar")
	writeJar(t, jar, map[string][]byte{
		"META-INF/MANIFEST.MF":   []byte("Manifest-Version: 1.0\n"),
		"com/lib/Lib.class":      classtest.NewClass("com.lib.Lib").Bytes(),
		"com/lib/Marker.class":   classtest.NewAnnotationType("com.lib.Marker").Bytes(),
		"module-info.class":      {0},
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.jar"), []byte("not a zip"), 0o644))

	c := NewCrawler(logr.Discard())
	units, err := c.Collect(root)
	require.NoError(t, err)

	var names []string
	for _, u := range units {
		names = append(names, u.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		filepath.Join(classes, "App.class"),
		jar + "!com/lib/Lib.class",
		jar + "!com/lib/Marker.class",
	}, names)

	t.Run("units import", func(t *testing.T) {
		res, err := session.Import(context.Background(), units)
		require.NoError(t, err)
		assert.Empty(t, res.DiagnosticsOf(session.MalformedUnit))
		for _, name := range []string{"com.example.App", "com.lib.Lib", "com.lib.Marker"} {
			_, ok := res.Graph.Class(name)
			assert.True(t, ok, name)
		}
	})

	t.Run("single file and archive paths", func(t *testing.T) {
		units, err := c.Collect(filepath.Join(classes, "App.class"), jar)
		require.NoError(t, err)
		assert.Len(t, units, 3)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := c.Collect(filepath.Join(root, "absent"))
		assert.Error(t, err)
	})
}
