package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocalStorage_PathTraversal_Prevention 测试路径遍历防护
func TestLocalStorage_PathTraversal_Prevention(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	traversalAttempts := []string{
		"../../../etc/passwd",
		"..\\..\\..\\windows\\system32\\config\\sam",
		"../../.env",
		"..",
		".",
		"",
		"/absolute/path",
		"folder/../../../etc/passwd",
		"temp_upload/../../x.jpg",
	}

	for _, attempt := range traversalAttempts {
		t.Run("save_"+attempt, func(t *testing.T) {
			err := storage.SaveWithContext(ctx, attempt, strings.NewReader("x"))
			require.Error(t, err, "Path traversal attempt should be rejected: %s", attempt)
			assert.Contains(t, err.Error(), "invalid")
		})
	}

	_, err = storage.GetWithContext(ctx, "../../../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, storage.DeleteWithContext(ctx, "../../../etc/passwd"))
}

// TestIsValidStoragePath 测试路径校验
func TestIsValidStoragePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantValid bool
	}{
		{"simple", "file.txt", true},
		{"nested", "temp_upload/session1/IMG_20.jpg", true},
		{"space", "temp_upload/a/my photo.jpg", true},
		{"output", "images/xl_IMG_20.jpg", true},
		{"empty", "", false},
		{"dot", ".", false},
		{"dotdot", "..", false},
		{"absolute_unix", "/etc/passwd", false},
		{"backslash", "C:\\file.txt", false},
		{"traversal", "../file.txt", false},
		{"null_byte", "file\x00.txt", false},
		{"newline", "file\n.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantValid, IsValidStoragePath(tt.path), "path: %q", tt.path)
		})
	}
}

// TestLocalStorage_RoundTrip 保存、读取、覆盖、删除
func TestLocalStorage_RoundTrip(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, storage.SaveWithContext(ctx, "images/s_a.jpg", strings.NewReader("v1")))
	require.NoError(t, storage.SaveWithContext(ctx, "images/s_a.jpg", strings.NewReader("v2")))

	exists, err := storage.Exists(ctx, "images/s_a.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := storage.GetWithContext(ctx, "images/s_a.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	// 不应残留临时文件
	entries, err := os.ReadDir(filepath.Join(storage.BasePath(), "images"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, storage.DeleteWithContext(ctx, "images/s_a.jpg"))
	_, err = storage.GetWithContext(ctx, "images/s_a.jpg")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, storage.DeleteWithContext(ctx, "images/s_a.jpg"), ErrNotFound)

	exists, err = storage.Exists(ctx, "images/s_a.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestLocalStorage_CanceledContext 取消的上下文不写入
func TestLocalStorage_CanceledContext(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, storage.SaveWithContext(ctx, "a.jpg", strings.NewReader("x")), context.Canceled)
}

// TestLocalBackend_Buckets 每个存储桶独立目录
func TestLocalBackend_Buckets(t *testing.T) {
	root := t.TempDir()
	backend, err := NewLocalBackend(root)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := backend.Bucket("bucket-a")
	require.NoError(t, err)
	b, err := backend.Bucket("bucket-b")
	require.NoError(t, err)

	again, err := backend.Bucket("bucket-a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	require.NoError(t, a.SaveWithContext(ctx, "images/x.jpg", strings.NewReader("x")))
	exists, err := b.Exists(ctx, "images/x.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.FileExists(t, filepath.Join(root, "bucket-a", "images", "x.jpg"))

	for _, name := range []string{"", "..", "a/b", "a\\b"} {
		_, err := backend.Bucket(name)
		assert.Error(t, err, "bucket %q", name)
	}

	assert.NoError(t, backend.Health(ctx))
	assert.Equal(t, "local", backend.Name())
}
