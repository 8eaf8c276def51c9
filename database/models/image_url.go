package models

import "time"

// ImageURL 衍生图访问地址记录
// Key 形如 images/{baseName}/{label}
type ImageURL struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	Key       string    `gorm:"uniqueIndex;size:512;not null" json:"key"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (ImageURL) TableName() string {
	return "image_urls"
}

// AllModels 需要迁移的模型
func AllModels() []interface{} {
	return []interface{}{
		&ImageURL{},
	}
}
