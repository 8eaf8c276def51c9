package event

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// objectResource 存储对象资源（兼容 GCS object resource 字段命名）
type objectResource struct {
	Bucket        string            `mapstructure:"bucket"`
	Name          string            `mapstructure:"name"`
	ContentType   string            `mapstructure:"contentType"`
	ResourceState string            `mapstructure:"resourceState"`
	TimeDeleted   string            `mapstructure:"timeDeleted"`
	Metadata      map[string]string `mapstructure:"metadata"`
}

// Decode 解析事件负载
// 支持三种格式：
//  1. 裸对象资源 {"bucket": ..., "name": ...}
//  2. 旧版函数信封 {"eventType": ..., "data": {...}}
//  3. CloudEvent {"specversion": ..., "type": ..., "data": {...}}
func Decode(payload []byte) (*ObjectEvent, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return DecodeMap(raw)
}

// DecodeMap 从已解析的 map 构造事件
func DecodeMap(raw map[string]interface{}) (*ObjectEvent, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidEvent)
	}

	eventType := firstString(raw, "type", "eventType")
	body := raw
	if data, ok := raw["data"].(map[string]interface{}); ok {
		body = data
	}

	var res objectResource
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &res,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	ev := &ObjectEvent{
		Bucket:        res.Bucket,
		Name:          res.Name,
		ContentType:   res.ContentType,
		ResourceState: res.ResourceState,
		Metadata:      res.Metadata,
		EventType:     eventType,
	}
	if ev.ResourceState == "" {
		ev.ResourceState = resourceStateFor(eventType, res.TimeDeleted)
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

// resourceStateFor 根据事件类型推断资源状态
func resourceStateFor(eventType, timeDeleted string) string {
	t := strings.ToLower(eventType)
	if strings.Contains(t, "delete") || strings.Contains(t, "objectremoved") {
		return ResourceStateNotExists
	}
	if timeDeleted != "" {
		return ResourceStateNotExists
	}
	return ResourceStateExists
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
