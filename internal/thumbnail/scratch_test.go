package thumbnail

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratch(t *testing.T) {
	root := t.TempDir()

	s, err := NewScratch(root)
	require.NoError(t, err)
	assert.DirExists(t, s.Dir)

	p := s.Path("../../escape.jpg")
	assert.Equal(t, filepath.Join(s.Dir, "escape.jpg"), p)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	s.Cleanup()
	assert.NoDirExists(t, s.Dir)
}

func TestCleanStale(t *testing.T) {
	root := t.TempDir()

	stale := filepath.Join(root, uuid.NewString())
	fresh := filepath.Join(root, uuid.NewString())
	other := filepath.Join(root, "keep-me")
	for _, dir := range []string{stale, fresh, other} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))
	require.NoError(t, os.Chtimes(other, old, old))

	removed, err := CleanStale(root, 24*time.Hour, true)
	require.NoError(t, err)
	assert.Equal(t, []string{stale}, removed)
	assert.DirExists(t, stale)

	removed, err = CleanStale(root, 24*time.Hour, false)
	require.NoError(t, err)
	assert.Equal(t, []string{stale}, removed)
	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh)
	assert.DirExists(t, other)

	removed, err = CleanStale(filepath.Join(root, "missing"), time.Hour, false)
	assert.NoError(t, err)
	assert.Empty(t, removed)
}
