package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/image-thumbnailer/database"
	"github.com/anoixa/image-thumbnailer/database/models"
	"github.com/anoixa/image-thumbnailer/metadata/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store 基于 GORM 的元数据存储
type Store struct {
	db database.Provider
}

// New 创建 SQL 存储
func New(db database.Provider) *Store {
	return &Store{db: db}
}

// Set 按 key upsert
func (s *Store) Set(ctx context.Context, key string, record types.Record) error {
	row := models.ImageURL{Key: key, URL: record.URL}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (*types.Record, error) {
	var row models.ImageURL
	err := s.db.WithContext(ctx).Where(&models.ImageURL{Key: key}).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record %s: %w", key, err)
	}
	return &types.Record{URL: row.URL}, nil
}

// Ping 检查数据库连接
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.SQLDB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 数据库连接由调用方管理
func (s *Store) Close() error {
	return nil
}

func (s *Store) Name() string {
	return "database:" + s.db.Name()
}
