package source

import (
	"context"
	"log"
	"time"

	"github.com/anoixa/image-thumbnailer/internal/event"
	"github.com/anoixa/image-thumbnailer/internal/worker"
	"github.com/anoixa/image-thumbnailer/utils"
)

// Handler 处理单个对象事件
type Handler func(ctx context.Context, ev *event.ObjectEvent) error

// Dispatcher 将事件投递到协程池，每次调用带独立超时
type Dispatcher struct {
	pool    *worker.Pool
	handler Handler
	timeout time.Duration
}

// NewDispatcher 创建分发器，timeout <= 0 表示不限时
func NewDispatcher(pool *worker.Pool, handler Handler, timeout time.Duration) *Dispatcher {
	return &Dispatcher{pool: pool, handler: handler, timeout: timeout}
}

// Run 在当前协程中同步处理
func (d *Dispatcher) Run(ctx context.Context, ev *event.ObjectEvent) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return d.handler(ctx, ev)
}

// Dispatch 异步处理，队列满时阻塞等待
// 返回 false 表示协程池已停止，done 不会被调用
func (d *Dispatcher) Dispatch(ev *event.ObjectEvent, done func(error)) bool {
	return d.pool.SubmitBlocking(func() {
		err := d.Run(context.Background(), ev)
		if err != nil {
			log.Printf("[Dispatcher] Failed to process %s/%s: %v", ev.Bucket, utils.SanitizeLogPath(ev.Name), err)
		}
		if done != nil {
			done(err)
		}
	}, 0)
}
