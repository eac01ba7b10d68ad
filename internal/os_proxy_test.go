package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealOS(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(pth, []byte("12345"), 0644))

	var proxy OsProxy = RealOS{}

	info, err := proxy.Stat(pth)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	f, err := proxy.Open(pth)
	require.NoError(t, err)
	assert.NoError(t, f.Close())

	_, err = proxy.Stat(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(err))
}
