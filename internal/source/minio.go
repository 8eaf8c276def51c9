package source

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anoixa/image-thumbnailer/internal/event"
	"github.com/minio/minio-go/v7/pkg/notification"
)

// NotificationListener minio.Client 的子集
type NotificationListener interface {
	ListenBucketNotification(ctx context.Context, bucketName, prefix, suffix string, events []string) <-chan notification.Info
}

// 监听的事件类型，删除事件会在资格检查中被跳过
var minioEvents = []string{
	"s3:ObjectCreated:*",
	"s3:ObjectRemoved:*",
}

// MinioConfig 存储桶通知配置
type MinioConfig struct {
	Bucket     string
	Prefix     string
	RetryDelay time.Duration
}

// MinioSource 监听 MinIO 存储桶通知
type MinioSource struct {
	listener   NotificationListener
	dispatcher *Dispatcher
	bucket     string
	prefix     string
	retryDelay time.Duration
}

// NewMinioSource 创建存储桶通知事件源
func NewMinioSource(listener NotificationListener, cfg MinioConfig, dispatcher *Dispatcher) *MinioSource {
	if cfg.Prefix == "" {
		cfg.Prefix = event.IncomingPrefix
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	return &MinioSource{
		listener:   listener,
		dispatcher: dispatcher,
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		retryDelay: cfg.RetryDelay,
	}
}

// Run 持续监听，连接断开后按固定间隔重连，直到 ctx 取消
func (s *MinioSource) Run(ctx context.Context) error {
	if s.bucket == "" {
		return errors.New("minio notify bucket is required")
	}

	log.Printf("[MinioSource] Listening on bucket %s, prefix %s", s.bucket, s.prefix)
	for {
		err := s.consume(ctx, s.listener.ListenBucketNotification(ctx, s.bucket, s.prefix, "", minioEvents))
		if ctx.Err() != nil {
			log.Println("[MinioSource] Stopped")
			return nil
		}
		if err != nil {
			log.Printf("[MinioSource] Notification stream error: %v, reconnecting in %v", err, s.retryDelay)
		} else {
			log.Printf("[MinioSource] Notification stream closed, reconnecting in %v", s.retryDelay)
		}

		select {
		case <-ctx.Done():
			log.Println("[MinioSource] Stopped")
			return nil
		case <-time.After(s.retryDelay):
		}
	}
}

// consume 读取通知直到通道关闭或出错
func (s *MinioSource) consume(ctx context.Context, ch <-chan notification.Info) error {
	for info := range ch {
		if info.Err != nil {
			return info.Err
		}
		for _, record := range info.Records {
			ev, err := event.FromMinioRecord(record)
			if err != nil {
				log.Printf("[MinioSource] Skipping record %s: %v", record.EventName, err)
				continue
			}
			if !s.dispatcher.Dispatch(ev, nil) {
				return errors.New("worker pool stopped")
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}
