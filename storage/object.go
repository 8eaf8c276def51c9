package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/anoixa/image-thumbnailer/utils"
	"github.com/anoixa/image-thumbnailer/utils/format"
)

// copyBufferSize 下载复制缓冲区大小
const copyBufferSize = 256 * 1024

// copyBuffers 存储 *[]byte 以避免 SA6002
var copyBuffers = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, copyBufferSize)
		return &buf
	},
}

// Object 已上传对象
type Object struct {
	Bucket string
	Name   string
}

// ID 对象标识，即路径转义后的对象名，例如 images%2Fs_x.jpg
func (o *Object) ID() string {
	return url.PathEscape(o.Name)
}

// DownloadFile 将对象下载到本地文件
// limit > 0 时超过大小的对象会被拒绝
func DownloadFile(ctx context.Context, p Provider, name, dst string, limit int64) error {
	rc, err := p.GetWithContext(ctx, name)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create local file '%s': %w", dst, err)
	}

	var src io.Reader = rc
	if limit > 0 {
		src = io.LimitReader(rc, limit+1)
	}

	bufPtr := copyBuffers.Get().(*[]byte)
	defer copyBuffers.Put(bufPtr)

	n, err := io.CopyBuffer(f, src, *bufPtr)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && limit > 0 && n > limit {
		err = fmt.Errorf("object exceeds max size %s", format.HumanReadableSize(limit))
	}
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("failed to download '%s': %w", name, err)
	}

	utils.LogIfDevf("[Storage] Downloaded %s (%s) via %s", utils.SanitizeLogPath(name), format.HumanReadableSize(n), p.Name())
	return nil
}

// UploadFile 上传本地文件
func UploadFile(ctx context.Context, p Provider, bucket, src, dest string) (*Object, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open local file '%s': %w", src, err)
	}
	defer func() { _ = f.Close() }()

	if err := p.SaveWithContext(ctx, dest, f); err != nil {
		return nil, fmt.Errorf("failed to upload '%s': %w", dest, err)
	}

	return &Object{Bucket: bucket, Name: dest}, nil
}

// Objects 按存储桶名称执行下载和上传
type Objects struct {
	backend  Backend
	maxBytes int64
}

// NewObjects 创建对象操作入口
func NewObjects(backend Backend, maxBytes int64) *Objects {
	return &Objects{backend: backend, maxBytes: maxBytes}
}

// Download 下载对象到本地
func (o *Objects) Download(ctx context.Context, bucket, name, dst string) error {
	p, err := o.backend.Bucket(bucket)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return DownloadFile(ctx, p, name, dst, o.maxBytes)
}

// Upload 上传本地文件
func (o *Objects) Upload(ctx context.Context, bucket, src, dest string) (*Object, error) {
	p, err := o.backend.Bucket(bucket)
	if err != nil {
		return nil, err
	}
	return UploadFile(ctx, p, bucket, src, dest)
}
