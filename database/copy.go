package database

import (
	"context"
	"fmt"

	"github.com/anoixa/image-thumbnailer/database/models"
	"gorm.io/gorm"
)

// 冲突处理策略
const (
	ConflictSkip      = "skip"
	ConflictOverwrite = "overwrite"
	ConflictError     = "error"
)

// CopyStats 记录复制统计
type CopyStats struct {
	Copied      int
	Skipped     int
	Overwritten int
}

// CopyImageURLs 将源库的 image_urls 记录复制到目标库
// 目标库已存在相同 key 时按 onConflict 处理
func CopyImageURLs(ctx context.Context, source, target *gorm.DB, batchSize int, onConflict string) (*CopyStats, error) {
	switch onConflict {
	case ConflictSkip, ConflictOverwrite, ConflictError:
	default:
		return nil, fmt.Errorf("invalid on-conflict strategy: %s (must be skip, overwrite, or error)", onConflict)
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	stats := &CopyStats{}
	var lastID uint
	for {
		var batch []models.ImageURL
		err := source.WithContext(ctx).
			Where("id > ?", lastID).
			Order("id").
			Limit(batchSize).
			Find(&batch).Error
		if err != nil {
			return stats, fmt.Errorf("failed to read source records: %w", err)
		}
		if len(batch) == 0 {
			return stats, nil
		}

		for _, record := range batch {
			lastID = record.ID
			if err := copyRecord(ctx, target, record, onConflict, stats); err != nil {
				return stats, err
			}
		}
	}
}

func copyRecord(ctx context.Context, target *gorm.DB, record models.ImageURL, onConflict string, stats *CopyStats) error {
	var existing []models.ImageURL
	if err := target.WithContext(ctx).Where(&models.ImageURL{Key: record.Key}).Limit(1).Find(&existing).Error; err != nil {
		return fmt.Errorf("conflict check failed for %s: %w", record.Key, err)
	}

	if len(existing) == 0 {
		record.ID = 0
		if err := target.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to copy %s: %w", record.Key, err)
		}
		stats.Copied++
		return nil
	}

	switch onConflict {
	case ConflictOverwrite:
		err := target.WithContext(ctx).
			Model(&existing[0]).
			Updates(map[string]interface{}{"url": record.URL, "updated_at": record.UpdatedAt}).Error
		if err != nil {
			return fmt.Errorf("failed to overwrite %s: %w", record.Key, err)
		}
		stats.Overwritten++
	case ConflictError:
		return fmt.Errorf("record already exists: %s", record.Key)
	default:
		stats.Skipped++
	}
	return nil
}
