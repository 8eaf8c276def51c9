package database

import (
	"fmt"
	"log"

	"github.com/anoixa/image-thumbnailer/config"
	"github.com/anoixa/image-thumbnailer/database/models"
)

// Open 创建数据库提供者
func Open(cfg *config.Config) (Provider, error) {
	log.Println("Initializing database provider...")

	provider, err := NewGormProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database provider: %w", err)
	}

	log.Printf("Database provider '%s' initialized successfully", provider.Name())
	return provider, nil
}

// AutoMigrate 自动迁移数据库结构
func AutoMigrate(provider Provider) error {
	if provider == nil {
		return fmt.Errorf("database provider not initialized")
	}

	log.Println("Running database auto migration...")
	if err := provider.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to auto migrate database: %w", err)
	}
	log.Println("Database auto migration completed.")
	return nil
}
