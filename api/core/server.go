package core

import (
	"net/http"
	"time"

	"github.com/anoixa/image-thumbnailer/api/middleware"
	"github.com/anoixa/image-thumbnailer/config"
	"github.com/gin-gonic/gin"
)

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	Events  RouterDependencies
	Config  *config.Config
	Workers int
}

// setupRouter 创建 gin 引擎
func setupRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := deps.Config

	if !config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	// 仅在开发版本时启用 gin 日志
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	_ = router.SetTrustedProxies(nil)

	eventLimiter := middleware.NewIPRateLimiter(cfg.RateLimitEventsRPS, cfg.RateLimitEventsBurst, 10*time.Minute)
	cleanup := func() {
		eventLimiter.StopCleanup()
	}

	routes := deps.Events
	routes.EventLimiter = eventLimiter
	routes.TriggerDisabled = !cfg.HTTPTriggerEnabled
	if routes.MaxConcurrency <= 0 {
		routes.MaxConcurrency = int64(deps.Workers)
	}
	if routes.QueueTimeout <= 0 {
		routes.QueueTimeout = cfg.ServerReadTimeout
	}
	RegisterRoutes(router, &routes)

	return router, cleanup
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := deps.Config
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
