package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
	Timeout  time.Duration
}

// WebDAVStorage WebDAV 存储实现，rootPath 对应一个存储桶
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

// normalizeRoot 规范化为 "/a/b" 形式，空路径返回 ""
func normalizeRoot(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// run 在后台执行阻塞调用，ctx 取消时提前返回
// gowebdav 不支持 context
func run(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(storagePath string) string {
	storagePath = strings.TrimLeft(storagePath, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + storagePath
	}
	return "/" + storagePath
}

// SaveWithContext 保存文件到 WebDAV
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, storagePath string, file io.Reader) error {
	if !IsValidStoragePath(storagePath) {
		return fmt.Errorf("invalid storage path: %s", storagePath)
	}
	fullPath := s.fullPath(storagePath)

	if parent := path.Dir(fullPath); parent != "/" && parent != "." {
		if err := run(ctx, func() error { return s.client.MkdirAll(parent, 0755) }); err != nil {
			return fmt.Errorf("failed to ensure parent directory for %s: %w", storagePath, err)
		}
	}

	if err := run(ctx, func() error { return s.client.WriteStream(fullPath, file, 0644) }); err != nil {
		return fmt.Errorf("failed to write file %s: %w", storagePath, err)
	}
	return nil
}

// GetWithContext 从 WebDAV 获取文件流
func (s *WebDAVStorage) GetWithContext(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	fullPath := s.fullPath(storagePath)

	var rc io.ReadCloser
	err := run(ctx, func() error {
		var err error
		rc, err = s.client.ReadStream(fullPath)
		return err
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storagePath)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", storagePath, err)
	}
	return rc, nil
}

// DeleteWithContext 从 WebDAV 删除文件
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, storagePath string) error {
	fullPath := s.fullPath(storagePath)
	return run(ctx, func() error { return s.client.Remove(fullPath) })
}

// Exists 检查文件是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, storagePath string) (bool, error) {
	fullPath := s.fullPath(storagePath)

	var exists bool
	err := run(ctx, func() error {
		_, err := s.client.Stat(fullPath)
		if err == nil {
			exists = true
			return nil
		}
		// 404 表示不存在
		if gowebdav.IsErrNotFound(err) {
			return nil
		}
		return err
	})
	return exists, err
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	// 测试场景下 client 为 nil
	if s.client == nil {
		return ctx.Err()
	}
	return run(ctx, func() error {
		_, err := s.client.ReadDir(s.rootPath)
		return err
	})
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	if s.baseURL == "" {
		return "webdav"
	}
	return fmt.Sprintf("webdav:%s%s", s.baseURL, s.rootPath)
}

// WebDAVBackend 每个存储桶对应 root/{bucket}
type WebDAVBackend struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
	mu       sync.Mutex
	buckets  map[string]*WebDAVStorage
}

// NewWebDAVBackend 创建 WebDAV 存储后端并验证连接
func NewWebDAVBackend(cfg WebDAVConfig) (*WebDAVBackend, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	b := &WebDAVBackend{
		client:   client,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		rootPath: normalizeRoot(cfg.RootPath),
		buckets:  make(map[string]*WebDAVStorage),
	}

	// 验证连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.Health(ctx); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}
	return b, nil
}

func (b *WebDAVBackend) Bucket(name string) (Provider, error) {
	if !IsValidBucketName(name) {
		return nil, fmt.Errorf("invalid bucket name: %s", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.buckets[name]; ok {
		return p, nil
	}
	p := &WebDAVStorage{
		client:   b.client,
		baseURL:  b.baseURL,
		rootPath: b.rootPath + "/" + name,
	}
	b.buckets[name] = p
	return p, nil
}

func (b *WebDAVBackend) Health(ctx context.Context) error {
	root := b.rootPath
	if root == "" {
		root = "/"
	}
	return run(ctx, func() error {
		_, err := b.client.ReadDir(root)
		return err
	})
}

func (b *WebDAVBackend) Name() string {
	return "webdav"
}

