package storage

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log"
	"mime"
	"net"
	"net/http"
	"os"
	"path"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig MinIO 连接配置
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// mustGetSystemCertPool 获取系统证书池
func mustGetSystemCertPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		log.Printf("Failed to load system cert pool: %v", err)
		return x509.NewCertPool()
	}
	return pool
}

// NewMinioClient 创建 MinIO 客户端
func NewMinioClient(cfg MinioConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 10 * time.Second,
		DisableCompression:    true,
	}

	// SSL
	if cfg.UseSSL {
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		if f := os.Getenv("SSL_CERT_FILE"); f != "" {
			rootCAs := mustGetSystemCertPool()
			data, err := os.ReadFile(f)
			if err == nil {
				rootCAs.AppendCertsFromPEM(data)
			}
			transport.TLSClientConfig.RootCAs = rootCAs
		}
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:    cfg.UseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}
	return client, nil
}

// MinioStorage 单个存储桶
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

// SaveWithContext 上传对象，同名对象直接覆盖
func (s *MinioStorage) SaveWithContext(ctx context.Context, identifier string, file io.Reader) error {
	contentType := mime.TypeByExtension(path.Ext(identifier))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	size := int64(-1)
	if st, ok := file.(interface{ Stat() (os.FileInfo, error) }); ok {
		if info, err := st.Stat(); err == nil {
			size = info.Size()
		}
	}

	_, err := s.client.PutObject(ctx, s.bucketName, identifier, file, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object '%s' to minio: %w", identifier, err)
	}
	return nil
}

// GetWithContext 获取对象流
// GetObject 是惰性的，这里先 Stat 一次以便及时返回 NotFound
func (s *MinioStorage) GetWithContext(ctx context.Context, identifier string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, identifier, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrapErr(identifier, err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, s.wrapErr(identifier, err)
	}
	return obj, nil
}

func (s *MinioStorage) DeleteWithContext(ctx context.Context, identifier string) error {
	err := s.client.RemoveObject(ctx, s.bucketName, identifier, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object '%s' from minio: %w", identifier, err)
	}
	return nil
}

func (s *MinioStorage) Exists(ctx context.Context, identifier string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, identifier, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Health 检查存储桶是否可访问
func (s *MinioStorage) Health(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket '%s' does not exist", s.bucketName)
	}
	return nil
}

func (s *MinioStorage) Name() string {
	return "minio:" + s.bucketName
}

func (s *MinioStorage) wrapErr(identifier string, err error) error {
	if isNoSuchKey(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, identifier)
	}
	return fmt.Errorf("failed to get object stream from minio for '%s': %w", identifier, err)
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}

// MinioBackend 共享一个客户端，按存储桶返回 Provider
type MinioBackend struct {
	client  *minio.Client
	mu      sync.Mutex
	buckets map[string]*MinioStorage
}

// NewMinioBackend 创建 MinIO 存储后端
func NewMinioBackend(cfg MinioConfig) (*MinioBackend, error) {
	client, err := NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	return &MinioBackend{client: client, buckets: make(map[string]*MinioStorage)}, nil
}

// Client 返回底层客户端，存储桶通知监听复用同一个连接池
func (b *MinioBackend) Client() *minio.Client {
	return b.client
}

func (b *MinioBackend) Bucket(name string) (Provider, error) {
	if name == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.buckets[name]; ok {
		return p, nil
	}
	p := &MinioStorage{client: b.client, bucketName: name}
	b.buckets[name] = p
	return p, nil
}

// Health 能列出存储桶即视为可用
func (b *MinioBackend) Health(ctx context.Context) error {
	_, err := b.client.ListBuckets(ctx)
	return err
}

func (b *MinioBackend) Name() string {
	return "minio"
}
