package event

import (
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7/pkg/notification"
)

const amzMetaPrefix = "x-amz-meta-"

// FromMinioRecord 将 MinIO 存储桶通知转换为对象事件
func FromMinioRecord(record notification.Event) (*ObjectEvent, error) {
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		key = record.S3.Object.Key
	}

	ev := &ObjectEvent{
		Bucket:        record.S3.Bucket.Name,
		Name:          key,
		ContentType:   record.S3.Object.ContentType,
		ResourceState: resourceStateFor(record.EventName, ""),
		Metadata:      normalizeUserMetadata(record.S3.Object.UserMetadata),
		EventType:     record.EventName,
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

// normalizeUserMetadata 去掉 X-Amz-Meta- 前缀，并将下载令牌字段恢复为规范名称
func normalizeUserMetadata(meta map[string]string) map[string]string {
	if len(meta) == 0 {
		return nil
	}

	out := make(map[string]string, len(meta))
	for k, v := range meta {
		lower := strings.ToLower(k)
		if !strings.HasPrefix(lower, amzMetaPrefix) {
			// content-type 等系统字段
			continue
		}
		name := k[len(amzMetaPrefix):]
		if strings.EqualFold(name, DownloadTokenKey) {
			name = DownloadTokenKey
		}
		out[name] = v
	}
	return out
}
