package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readZipNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestWriteZip(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "b.py"), "b = 2\n")
	writeFile(t, filepath.Join(src, "a.py"), "a = 1\n")

	zipPath := filepath.Join(dest, "out.zip")
	size, err := WriteZip(zipPath, []Entry{
		{Source: filepath.Join(src, "b.py"), Name: "pkg/b.py"},
		{Source: filepath.Join(src, "a.py"), Name: "pkg/a.py"},
	})
	require.NoError(t, err)
	assert.Positive(t, size)

	names := readZipNames(t, zipPath)
	assert.Equal(t, []string{"pkg/a.py", "pkg/b.py"}, names, "entries are sorted by archive name")
}

func TestWriteZipContentRoundTrip(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "handler.py"), "def handler(): pass\n")

	zipPath := filepath.Join(dest, "fn.zip")
	_, err := WriteZip(zipPath, []Entry{{Source: filepath.Join(src, "handler.py"), Name: "handler.py"}})
	require.NoError(t, err)

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.File, 1)
	f, err := r.File[0].Open()
	require.NoError(t, err)
	defer f.Close()
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "def handler(): pass\n", string(content))
}

func TestWriteZipAtomicity(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "a.py"), "a = 1\n")

	zipPath := filepath.Join(dest, "out.zip")
	_, err := WriteZip(zipPath, []Entry{
		{Source: filepath.Join(src, "a.py"), Name: "a.py"},
		{Source: filepath.Join(src, "missing.py"), Name: "missing.py"},
	})
	require.Error(t, err)

	// A failed packaging attempt must leave nothing at the destination
	// path, and no staging litter behind either.
	_, statErr := os.Stat(zipPath)
	assert.True(t, os.IsNotExist(statErr), "no partial artifact may exist at the final path")

	leftovers, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCollectDir(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeFile(t, filepath.Join(src, "mod.py"), "x = 1\n")
	writeFile(t, filepath.Join(src, "sub", "deep.py"), "y = 2\n")

	entries, err := CollectDir(src, "python/utils")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"python/utils/mod.py", "python/utils/sub/deep.py"}, names)
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	path := filepath.Join(dest, "schema.graphql")
	require.NoError(t, WriteFileAtomic(path, []byte("type Query { id: ID }\n")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "type Query { id: ID }\n", string(content))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no staging file left behind")
}
