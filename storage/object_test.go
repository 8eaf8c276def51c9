package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectID(t *testing.T) {
	obj := &Object{Bucket: "b", Name: "images/s_IMG_20.jpg"}
	assert.Equal(t, "images%2Fs_IMG_20.jpg", obj.ID())

	obj = &Object{Bucket: "b", Name: "images/bl_my photo.jpg"}
	assert.Equal(t, "images%2Fbl_my%20photo.jpg", obj.ID())
}

func TestObjects_DownloadUpload(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	src, err := backend.Bucket("demo")
	require.NoError(t, err)
	require.NoError(t, src.SaveWithContext(ctx, "temp_upload/s1/IMG_20.jpg", strings.NewReader("source-bytes")))

	objects := NewObjects(backend, 1024)
	scratch := t.TempDir()

	local := filepath.Join(scratch, "nested", "IMG_20.jpg")
	require.NoError(t, objects.Download(ctx, "demo", "temp_upload/s1/IMG_20.jpg", local))
	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "source-bytes", string(data))

	obj, err := objects.Upload(ctx, "demo", local, "images/s_IMG_20.jpg")
	require.NoError(t, err)
	assert.Equal(t, "demo", obj.Bucket)
	assert.Equal(t, "images/s_IMG_20.jpg", obj.Name)

	exists, err := src.Exists(ctx, "images/s_IMG_20.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	err = objects.Download(ctx, "demo", "temp_upload/s1/missing.jpg", filepath.Join(scratch, "missing.jpg"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = objects.Upload(ctx, "demo", filepath.Join(scratch, "nope.jpg"), "images/nope.jpg")
	assert.Error(t, err)
}

func TestDownloadFile_SizeLimit(t *testing.T) {
	p, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, p.SaveWithContext(ctx, "big.jpg", strings.NewReader(strings.Repeat("x", 100))))

	dst := filepath.Join(t.TempDir(), "big.jpg")
	err = DownloadFile(ctx, p, "big.jpg", dst, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds max size")
	assert.NoFileExists(t, dst)

	require.NoError(t, DownloadFile(ctx, p, "big.jpg", dst, 100))
	assert.FileExists(t, dst)
}
