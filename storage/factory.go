package storage

import (
	"fmt"
	"log"
	"strings"

	"github.com/anoixa/image-thumbnailer/config"
)

// NewBackend 按配置创建存储后端
func NewBackend(cfg *config.Config) (Backend, error) {
	storageType := strings.ToLower(cfg.StorageType)
	log.Printf("Initializing storage, type: %s", storageType)

	var (
		backend Backend
		err     error
	)
	switch storageType {
	case "", "local":
		backend, err = NewLocalBackend(cfg.StorageLocalPath)
	case "minio":
		backend, err = NewMinioBackend(MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKeyID,
			SecretAccessKey: cfg.MinioSecretAccessKey,
			UseSSL:          cfg.MinioUseSSL,
		})
	case "webdav":
		backend, err = NewWebDAVBackend(WebDAVConfig{
			URL:      cfg.WebDAVURL,
			Username: cfg.WebDAVUsername,
			Password: cfg.WebDAVPassword,
			RootPath: cfg.WebDAVRootPath,
			Timeout:  cfg.WebDAVTimeout,
		})
	default:
		return nil, fmt.Errorf("invalid storage type specified in config: %s", cfg.StorageType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", storageType, err)
	}

	log.Printf("Successfully initialized '%s' storage backend", backend.Name())
	return backend, nil
}
