package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/image-thumbnailer/metadata/types"
	"github.com/dgraph-io/ristretto"
)

// ErrDropped ristretto 拒绝或丢弃了写入
var ErrDropped = errors.New("memory store dropped the write")

// Config Ristretto 配置
type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// DefaultConfig 约十万条记录
func DefaultConfig() Config {
	return Config{
		NumCounters: 1e6,
		MaxCost:     1 << 27,
		BufferItems: 64,
	}
}

// Store 进程内元数据存储，用于开发和测试
// 容量满时 ristretto 可能淘汰记录
type Store struct {
	client *ristretto.Cache
}

// New 创建内存存储
func New(cfg Config) (*Store, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Store{client: cache}, nil
}

// Set 写入后等待生效，保证随后的 Get 可见
func (s *Store) Set(ctx context.Context, key string, record types.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cost := int64(len(key) + len(record.URL))
	if !s.client.Set(key, record, cost) {
		return fmt.Errorf("%w: %s", ErrDropped, key)
	}
	s.client.Wait()

	if _, ok := s.client.Get(key); !ok {
		return fmt.Errorf("%w: %s", ErrDropped, key)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (*types.Record, error) {
	value, found := s.client.Get(key)
	if !found {
		return nil, types.ErrNotFound
	}
	record, ok := value.(types.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected value type %T for %s", value, key)
	}
	return &record, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close 关闭缓存
func (s *Store) Close() error {
	s.client.Close()
	return nil
}

func (s *Store) Name() string {
	return "memory"
}
