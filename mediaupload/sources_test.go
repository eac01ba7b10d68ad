package mediaupload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0600))
}

func TestExpandSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp4"), 1)
	writeFile(t, filepath.Join(dir, "b.mp4"), 1)
	writeFile(t, filepath.Join(dir, "notes.txt"), 1)
	writeFile(t, filepath.Join(dir, "nested", "c.mp4"), 1)

	got, err := ExpandSources([]string{
		filepath.Join(dir, "**", "*.mp4"),
		filepath.Join(dir, "a.mp4"),
		"s3://media/raw/d.mp4",
		filepath.Join(dir, "nested"),
	}, log.NewLogger())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.mp4"),
		filepath.Join(dir, "b.mp4"),
		filepath.Join(dir, "nested", "c.mp4"),
		"s3://media/raw/d.mp4",
	}, got)
}

func TestExpandSources_NoMatch(t *testing.T) {
	got, err := ExpandSources([]string{filepath.Join(t.TempDir(), "*.mov")}, log.NewLogger())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpandSources_Missing(t *testing.T) {
	_, err := ExpandSources([]string{filepath.Join(t.TempDir(), "missing.mp4")}, log.NewLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source doesn't exist")
}

func TestOpenSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	writeFile(t, path, 42)

	source, err := OpenSource(context.Background(), path, S3Config{}, log.NewLogger())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, source.Close())
	}()

	assert.Equal(t, "clip.mp4", source.Name())
	assert.Equal(t, int64(42), source.TotalSize())
}

func TestOpenSource_S3RequiresRegion(t *testing.T) {
	_, err := OpenSource(context.Background(), "s3://media/clip.mp4", S3Config{}, log.NewLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region must not be empty")
}
