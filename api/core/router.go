package core

import (
	"time"

	"github.com/anoixa/image-thumbnailer/api/common"
	"github.com/anoixa/image-thumbnailer/api/handler/events"
	"github.com/anoixa/image-thumbnailer/api/handler/records"
	"github.com/anoixa/image-thumbnailer/api/middleware"
	"github.com/anoixa/image-thumbnailer/config"
	"github.com/gin-gonic/gin"
)

// maxEventBodyBytes 单条事件的请求体上限
const maxEventBodyBytes = 1 << 20

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Events          events.Runner
	Records         records.RecordReader
	Storage         HealthChecker
	Store           StorePinger
	EventLimiter    *middleware.IPRateLimiter
	MaxConcurrency  int64
	QueueTimeout    time.Duration
	TriggerDisabled bool
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	registerBasicRoutes(router, deps)

	if !deps.TriggerDisabled && deps.Events != nil {
		registerEventRoutes(router, deps)
	}

	if deps.Records != nil {
		recordHandler := records.NewHandler(deps.Records)
		router.GET("/records/:base", recordHandler.GetRecords)
	}
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.Storage, deps.Store)
	router.GET("/health", healthHandler.Handle)

	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})
}

// registerEventRoutes 注册事件推送路由
func registerEventRoutes(router *gin.Engine, deps *RouterDependencies) {
	eventHandler := events.NewHandler(deps.Events)

	queueTimeout := deps.QueueTimeout
	if queueTimeout <= 0 {
		queueTimeout = 30 * time.Second
	}

	eventsGroup := router.Group("/events")
	if deps.EventLimiter != nil {
		eventsGroup.Use(deps.EventLimiter.Middleware())
	}
	eventsGroup.Use(middleware.MaxBytesReader(maxEventBodyBytes))
	eventsGroup.Use(middleware.NewConcurrencyLimiter(deps.MaxConcurrency).MiddlewareWithBlock(queueTimeout))
	{
		eventsGroup.POST("", eventHandler.PushEvent) // POST /events
	}
}
