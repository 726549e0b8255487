package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDirFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "# Beta\n\nbody")
	writeFile(t, dir, "a.txt", "alpha body")
	writeFile(t, dir, "sub/c.md", "# Gamma\n\nbody")
	writeFile(t, dir, "ignored.json", "{}")

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "a", docs[0].Metadata.Title)
	assert.Equal(t, "Beta", docs[1].Metadata.Title)
	assert.Equal(t, "Gamma", docs[2].Metadata.Title)
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.Error(t, err)
}

func TestLoadFileNormalizesAndTitles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.md", "\r\n# My Notes\r\n\r\nline one\r\nline two\r\n")

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "My Notes", doc.Metadata.Title)
	assert.Equal(t, path, doc.Metadata.Path)
	assert.Len(t, doc.Metadata.SourceID, 16)
	assert.Equal(t, "# My Notes\n\nline one\nline two", doc.Content)
}

func TestLoadFileTitleFallsBackToFilename(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plain.txt", "no headings here")

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "plain", doc.Metadata.Title)
}

func TestLoadFileStableSourceID(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.md", "content")

	first, err := LoadFile(path)
	require.NoError(t, err)
	second, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first.Metadata.SourceID, second.Metadata.SourceID)
}
