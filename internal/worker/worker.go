package worker

import (
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Task 异步任务
type Task func()

// Stats 协程池统计
type Stats struct {
	Submitted   uint64
	Executed    uint64
	Failed      uint64
	Dropped     uint64
	WorkerCount int
	QueueLen    int
	QueueCap    int
}

// Pool 协程池
// Stop 会拒绝新任务，并等待队列中和执行中的任务全部完成
type Pool struct {
	workers int
	queue   chan Task
	wg      sync.WaitGroup

	mu      sync.RWMutex
	stopped bool

	submitted atomic.Uint64
	executed  atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewPool 创建并启动协程池
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	p := &Pool{
		workers: workers,
		queue:   make(chan Task, queueSize),
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	log.Printf("Async worker pool started with %d workers", p.workers)
	return p
}

// Stop 停止工作池，可重复调用
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	log.Println("Async worker pool stopped")
}

// Submit 提交任务（非阻塞，队列满时丢弃）
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}

	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return true
	default:
		p.dropped.Add(1)
		log.Println("WARN: Worker pool queue is full, task dropped")
		return false
	}
}

// SubmitBlocking 阻塞提交任务，队列满时等待（带超时）
// timeout <= 0 表示一直等待
func (p *Pool) SubmitBlocking(task Task, timeout time.Duration) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}

	if timeout <= 0 {
		p.queue <- task
		p.submitted.Add(1)
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return true
	case <-timer.C:
		p.dropped.Add(1)
		return false
	}
}

// GetStats 返回统计信息
func (p *Pool) GetStats() Stats {
	return Stats{
		Submitted:   p.submitted.Load(),
		Executed:    p.executed.Load(),
		Failed:      p.failed.Load(),
		Dropped:     p.dropped.Load(),
		WorkerCount: p.workers,
		QueueLen:    len(p.queue),
		QueueCap:    cap(p.queue),
	}
}

// worker 工作协程，队列关闭且取空后退出
func (p *Pool) worker() {
	defer p.wg.Done()

	for task := range p.queue {
		if task == nil {
			continue
		}
		p.executeTask(task)
	}
}

// executeTask 执行任务并捕获 panic
func (p *Pool) executeTask(task Task) {
	defer func() {
		p.executed.Add(1)
		if r := recover(); r != nil {
			p.failed.Add(1)
			log.Printf("Panic recovered in async task: %v", r)
		}
	}()
	task()
}
