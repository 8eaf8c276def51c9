package metadata

import (
	"fmt"
	"log"
	"strings"

	"github.com/anoixa/image-thumbnailer/config"
	"github.com/anoixa/image-thumbnailer/database"
	"github.com/anoixa/image-thumbnailer/metadata/memory"
	"github.com/anoixa/image-thumbnailer/metadata/redis"
	"github.com/anoixa/image-thumbnailer/metadata/sqlstore"
	"github.com/anoixa/image-thumbnailer/metadata/types"
)

type (
	Store  = types.Store
	Record = types.Record
)

// ErrNotFound 记录不存在
var ErrNotFound = types.ErrNotFound

// 存储类型
const (
	TypeDatabase = "database"
	TypeRedis    = "redis"
	TypeMemory   = "memory"
)

// NeedsDatabase 当前配置是否需要数据库连接
func NeedsDatabase(cfg *config.Config) bool {
	t := strings.ToLower(cfg.MetadataType)
	return t == "" || t == TypeDatabase
}

// NewStore 按 metadata_type 创建元数据存储
// database 类型需要传入已打开的 db
func NewStore(cfg *config.Config, db database.Provider) (Store, error) {
	storeType := strings.ToLower(cfg.MetadataType)
	log.Printf("Initializing metadata store, type: %s", storeType)

	switch storeType {
	case "", TypeDatabase:
		if db == nil {
			return nil, fmt.Errorf("metadata store type '%s' requires a database provider", TypeDatabase)
		}
		return sqlstore.New(db), nil

	case TypeRedis:
		store, err := redis.New(redis.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case TypeMemory:
		log.Println("[Metadata] Using in-memory store, records are lost on restart")
		store, err := memory.New(memory.DefaultConfig())
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported metadata store type: %s", cfg.MetadataType)
	}
}
