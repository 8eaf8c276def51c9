package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/anoixa/image-thumbnailer/api/core"
	"github.com/anoixa/image-thumbnailer/config"
	"github.com/anoixa/image-thumbnailer/internal/app"
	"github.com/anoixa/image-thumbnailer/internal/source"
	"github.com/anoixa/image-thumbnailer/internal/thumbnail"
	"github.com/anoixa/image-thumbnailer/storage"
	"github.com/anoixa/image-thumbnailer/utils"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP trigger and event consumers",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	config.InitConfig()
	cfg := config.Get()

	container := app.NewContainer(cfg)
	if err := container.Init(); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// 启动时清理被超时中断的调用留下的临时目录
	go cleanStaleScratch(cfg.GetScratchDir())

	ctx, stopSources := context.WithCancel(context.Background())
	var sources sync.WaitGroup
	startSources(ctx, cfg, container, &sources)

	// 启动gin
	server, cleanup := core.StartServer(&core.ServerDependencies{
		Config:  cfg,
		Workers: cfg.GetWorkerCount(),
		Events: core.RouterDependencies{
			Events:  container.GetDispatcher(),
			Records: container.GetStore(),
			Storage: container.GetStorage(),
			Store:   container.GetStore(),
		},
	})
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.InvocationTimeout+5*time.Second)
	defer cancel()

	// 先停止接收新事件
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if cleanup != nil {
		cleanup()
	}

	stopSources()
	sources.Wait()
	log.Println("Event sources stopped.")

	// 关闭 DI 容器，等待执行中的调用完成
	if err := container.Close(); err != nil {
		log.Printf("Error closing container: %v", err)
	}

	log.Println("Server exited successfully")
}

// startSources 按配置启动 Kafka 和 MinIO 通知事件源
func startSources(ctx context.Context, cfg *config.Config, container *app.Container, wg *sync.WaitGroup) {
	dispatcher := container.GetDispatcher()

	if cfg.KafkaEnabled {
		src := source.NewKafkaSource(source.KafkaConfig{
			Brokers:     cfg.KafkaBrokerList(),
			Topic:       cfg.KafkaTopic,
			GroupID:     cfg.KafkaGroupID,
			MaxInFlight: cfg.WorkerQueueSize,
		}, dispatcher)
		runSource(ctx, wg, "kafka-source", src.Run)
	}

	if cfg.MinioNotifyEnabled {
		listener, err := minioListener(cfg, container.GetStorage())
		if err != nil {
			log.Fatalf("Failed to initialize MinIO notification listener: %v", err)
		}
		src := source.NewMinioSource(listener, source.MinioConfig{
			Bucket:     cfg.MinioNotifyBucket,
			Prefix:     cfg.MinioNotifyPrefix,
			RetryDelay: cfg.MinioNotifyRetry,
		}, dispatcher)
		runSource(ctx, wg, "minio-source", src.Run)
	}
}

func runSource(ctx context.Context, wg *sync.WaitGroup, name string, run func(context.Context) error) {
	wg.Add(1)
	utils.SafeGo(name, func() {
		defer wg.Done()
		if err := run(ctx); err != nil {
			log.Printf("[%s] exited with error: %v", name, err)
		}
	})
}

// minioListener 复用 minio 存储后端的客户端，其他存储类型单独创建
func minioListener(cfg *config.Config, backend storage.Backend) (source.NotificationListener, error) {
	if mb, ok := backend.(*storage.MinioBackend); ok {
		return mb.Client(), nil
	}
	client, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:        cfg.MinioEndpoint,
		AccessKeyID:     cfg.MinioAccessKeyID,
		SecretAccessKey: cfg.MinioSecretAccessKey,
		UseSSL:          cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func cleanStaleScratch(root string) {
	removed, err := thumbnail.CleanStale(root, 24*time.Hour, false)
	if err != nil {
		log.Printf("Failed to clean scratch directory: %v", err)
		return
	}
	if len(removed) > 0 {
		log.Printf("Removed %d stale scratch directories", len(removed))
	}
}
