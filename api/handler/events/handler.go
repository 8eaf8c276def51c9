package events

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/anoixa/image-thumbnailer/api/common"
	"github.com/anoixa/image-thumbnailer/internal/event"
	"github.com/anoixa/image-thumbnailer/utils"
	"github.com/gin-gonic/gin"
)

// Runner 事件处理入口，由 source.Dispatcher 实现
type Runner interface {
	Run(ctx context.Context, ev *event.ObjectEvent) error
	Dispatch(ev *event.ObjectEvent, done func(error)) bool
}

// Handler 对象事件推送处理器
type Handler struct {
	runner Runner
}

// NewHandler 创建处理器
func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

// PushEvent 接收一条对象事件
// 默认同步处理，处理失败返回 500 以便推送方重试
// async=true 时投递到协程池后立即返回 202
func (h *Handler) PushEvent(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			common.RespondError(c, http.StatusRequestEntityTooLarge, "Event payload too large")
			return
		}
		common.RespondError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	ev, err := event.Decode(payload)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if c.Query("async") == "true" {
		if !h.runner.Dispatch(ev, nil) {
			common.RespondError(c, http.StatusServiceUnavailable, "Worker pool is stopped")
			return
		}
		common.RespondAccepted(c, "Event queued", gin.H{
			"bucket": ev.Bucket,
			"name":   ev.Name,
		})
		return
	}

	if err := h.runner.Run(c.Request.Context(), ev); err != nil {
		log.Printf("[Events] Processing failed for %s/%s: %v", ev.Bucket, utils.SanitizeLogPath(ev.Name), err)
		common.RespondError(c, http.StatusInternalServerError, "Failed to process event")
		return
	}

	c.Status(http.StatusNoContent)
}
