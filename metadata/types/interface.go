package types

import (
	"context"
	"errors"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("metadata record not found")

// Record 元数据记录，序列化为 {"url": "..."}
type Record struct {
	URL string `json:"url"`
}

// Store 元数据存储接口
// Set 总是覆盖已有记录
type Store interface {
	Set(ctx context.Context, key string, record Record) error
	Get(ctx context.Context, key string) (*Record, error)
	Ping(ctx context.Context) error
	Close() error
	Name() string
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
