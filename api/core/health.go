package core

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/image-thumbnailer/config"
	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// HealthChecker 存储后端健康检查
type HealthChecker interface {
	Health(ctx context.Context) error
}

// StorePinger 元数据存储健康检查
type StorePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	storage HealthChecker
	store   StorePinger
	timeout time.Duration
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(storage HealthChecker, store StorePinger) *HealthHandler {
	return &HealthHandler{storage: storage, store: store, timeout: 5 * time.Second}
}

// Handle GET /health
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	checks := gin.H{
		"storage":  checkStorageHealth(ctx, h.storage),
		"metadata": checkStoreHealth(ctx, h.store),
	}

	httpStatus := http.StatusOK
	status := "ok"
	for _, result := range checks {
		if result != "ok" {
			httpStatus = http.StatusServiceUnavailable
			status = "degraded"
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":  status,
		"uptime":  time.Since(startTime).Round(time.Second).String(),
		"version": config.Version,
		"checks":  checks,
	})
}

func checkStorageHealth(ctx context.Context, storage HealthChecker) string {
	if storage == nil {
		return "not initialized"
	}
	if err := storage.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func checkStoreHealth(ctx context.Context, store StorePinger) string {
	if store == nil {
		return "not initialized"
	}
	if err := store.Ping(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}
