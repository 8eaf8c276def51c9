package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/anoixa/image-thumbnailer/config"
	"github.com/anoixa/image-thumbnailer/database"
	"github.com/anoixa/image-thumbnailer/internal/source"
	"github.com/anoixa/image-thumbnailer/internal/thumbnail"
	"github.com/anoixa/image-thumbnailer/internal/transform"
	"github.com/anoixa/image-thumbnailer/internal/worker"
	"github.com/anoixa/image-thumbnailer/metadata"
	"github.com/anoixa/image-thumbnailer/storage"
	"github.com/anoixa/image-thumbnailer/utils"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config *config.Config

	backend      storage.Backend
	db           database.Provider
	store        metadata.Store
	transformer  transform.Transformer
	orchestrator *thumbnail.Orchestrator
	pool         *worker.Pool
	dispatcher   *source.Dispatcher
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Init 按依赖顺序初始化全部组件
func (c *Container) Init() error {
	utils.LogIfDevf("Initializing DI container...")

	if err := c.InitStorage(); err != nil {
		return err
	}
	if err := c.InitMetadata(); err != nil {
		return err
	}
	if err := c.InitProcessing(); err != nil {
		return err
	}

	utils.LogIfDevf("DI container initialized successfully")
	return nil
}

// InitStorage 初始化存储后端
func (c *Container) InitStorage() error {
	backend, err := storage.NewBackend(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.backend = backend
	return nil
}

// InitDatabase 打开数据库并自动迁移
func (c *Container) InitDatabase() error {
	if c.db != nil {
		return nil
	}
	db, err := database.Open(c.config)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = db.Close()
		return err
	}
	c.db = db
	return nil
}

// InitMetadata 初始化元数据存储，database 类型会先打开数据库
func (c *Container) InitMetadata() error {
	if metadata.NeedsDatabase(c.config) {
		if err := c.InitDatabase(); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	store, err := metadata.NewStore(c.config, c.db)
	if err != nil {
		return fmt.Errorf("failed to initialize metadata store: %w", err)
	}
	c.store = store
	log.Printf("Metadata store '%s' initialized", store.Name())
	return nil
}

// InitProcessing 初始化转换器、编排器、协程池和分发器
func (c *Container) InitProcessing() error {
	if c.backend == nil || c.store == nil {
		return fmt.Errorf("storage and metadata must be initialized first")
	}

	t, err := transform.New(c.config.TransformEngine, c.config.TransformJPEGQuality)
	if err != nil {
		return fmt.Errorf("failed to initialize transformer: %w", err)
	}
	if c.config.TransformMaxConcurrency > 0 {
		t = transform.WithLimit(t, c.config.TransformMaxConcurrency)
	}
	c.transformer = t
	log.Printf("Transform engine '%s' initialized", t.Name())

	scratchRoot := c.config.GetScratchDir()
	if err := os.MkdirAll(scratchRoot, 0755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}

	objects := storage.NewObjects(c.backend, c.config.MaxSourceBytes())
	c.orchestrator = thumbnail.New(objects, t, c.store, thumbnail.Options{
		AccessURLBase: c.config.AccessURLBase,
		ScratchRoot:   scratchRoot,
	})

	c.pool = worker.NewPool(c.config.GetWorkerCount(), c.config.WorkerQueueSize)
	c.dispatcher = source.NewDispatcher(c.pool, c.orchestrator.Handle, c.config.InvocationTimeout)
	return nil
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStorage 获取存储后端
func (c *Container) GetStorage() storage.Backend {
	return c.backend
}

// GetDatabaseProvider 获取数据库提供者，非 database 元数据类型时为 nil
func (c *Container) GetDatabaseProvider() database.Provider {
	return c.db
}

// GetStore 获取元数据存储
func (c *Container) GetStore() metadata.Store {
	return c.store
}

// GetOrchestrator 获取编排器
func (c *Container) GetOrchestrator() *thumbnail.Orchestrator {
	return c.orchestrator
}

// GetPool 获取协程池
func (c *Container) GetPool() *worker.Pool {
	return c.pool
}

// GetDispatcher 获取事件分发器
func (c *Container) GetDispatcher() *source.Dispatcher {
	return c.dispatcher
}

// Ping 检查元数据存储连通性
func (c *Container) Ping(ctx context.Context) error {
	if c.store == nil {
		return fmt.Errorf("metadata store not initialized")
	}
	return c.store.Ping(ctx)
}

// Close 关闭所有服务
// 协程池先停止，确保执行中的调用在存储关闭前完成
func (c *Container) Close() error {
	utils.LogIfDevf("Closing DI container...")

	if c.pool != nil {
		c.pool.Stop()
		stats := c.pool.GetStats()
		log.Printf("[Container] Worker pool stopped, executed=%d failed=%d", stats.Executed, stats.Failed)
	}

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			log.Printf("[Container] Error closing metadata store: %v", err)
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			log.Printf("[Container] Error closing database: %v", err)
		}
	}

	if c.config != nil && transform.IsVips(c.config.TransformEngine) {
		transform.ShutdownVips()
	}

	utils.LogIfDevf("DI container closed")
	return nil
}
