package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
}

func TestIngest(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.md", "---\ntitle: First\ntags: [go]\ndate: 2026-01-02\n---\n\nbody A")
	writeSource(t, dir, "b.md", "---\ntitle: Second\nhidden: true\n---\n\nbody B")
	writeSource(t, dir, "c.md", "no front matter, body only")
	writeSource(t, dir, "notes.txt", "not markdown")

	files, warns, err := Ingest(dir)
	require.NoError(t, err)

	bySlug := make(map[string]PostFile, len(files))
	for _, f := range files {
		bySlug[f.Slug] = f
	}

	require.Len(t, files, 2) // hidden 的不进，txt 不扫
	a := bySlug["first"]
	assert.Equal(t, "First", a.Post.Title)
	assert.Equal(t, []string{"go"}, a.Post.Tags)
	assert.Equal(t, "body A", a.Post.Content)
	assert.NotEmpty(t, a.ContentHash)
	assert.Equal(t, 2026, a.Date.Year())

	c := bySlug["c"]
	assert.Equal(t, "no front matter, body only", c.Post.Content)

	// 无标题、无 date 的文件会有 warning
	assert.NotEmpty(t, warns)
}

func TestIngestDuplicateSlugs(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "one.md", "---\ntitle: Same\n---\nfirst")
	writeSource(t, dir, "two.md", "---\ntitle: Same\n---\nsecond")

	files, warns, err := Ingest(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.NotEmpty(t, warns)
}

func TestIngestMissingDir(t *testing.T) {
	_, _, err := Ingest(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
