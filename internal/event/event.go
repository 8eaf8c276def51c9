package event

import (
	"errors"
	"strings"
)

// ResourceState 对象资源状态
const (
	ResourceStateExists    = "exists"
	ResourceStateNotExists = "not_exists"
)

// IncomingPrefix 待处理上传目录前缀
const IncomingPrefix = "temp_upload"

// DownloadTokenKey 源对象元数据中的下载令牌字段
const DownloadTokenKey = "firebaseStorageDownloadTokens"

// ErrInvalidEvent 事件负载无法解析
var ErrInvalidEvent = errors.New("invalid object event")

// SkipReason 跳过处理的原因，空字符串表示需要处理
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipNotImage      SkipReason = "This is not an image."
	SkipWrongFolder   SkipReason = "Folder name is not in temp_upload."
	SkipDeletionEvent SkipReason = "This is a deletion event."
)

// ObjectEvent 对象存储变更通知
type ObjectEvent struct {
	Bucket        string            `json:"bucket"`
	Name          string            `json:"name"`
	ContentType   string            `json:"contentType"`
	ResourceState string            `json:"resourceState"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	EventType     string            `json:"eventType,omitempty"`
}

// Eligibility 检查事件是否需要处理
// 检查顺序：内容类型 -> 目录 -> 删除事件
func (e *ObjectEvent) Eligibility() SkipReason {
	if !strings.HasPrefix(e.ContentType, "image/") {
		return SkipNotImage
	}

	segments := strings.Split(e.Name, "/")
	if len(segments) == 1 || !strings.HasPrefix(segments[0], IncomingPrefix) {
		return SkipWrongFolder
	}

	if e.ResourceState == ResourceStateNotExists {
		return SkipDeletionEvent
	}

	return SkipNone
}

// DownloadToken 返回源对象的下载令牌
// Firebase 可能以逗号分隔保存多个令牌，取第一个
func (e *ObjectEvent) DownloadToken() string {
	token := e.Metadata[DownloadTokenKey]
	if i := strings.IndexByte(token, ','); i >= 0 {
		token = token[:i]
	}
	return strings.TrimSpace(token)
}

// Validate 校验必要字段
func (e *ObjectEvent) Validate() error {
	if e.Bucket == "" {
		return errors.Join(ErrInvalidEvent, errors.New("missing bucket"))
	}
	if e.Name == "" {
		return errors.Join(ErrInvalidEvent, errors.New("missing object name"))
	}
	return nil
}
