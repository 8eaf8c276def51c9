package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_PanicDoesNotKillWorker(t *testing.T) {
	pool := NewPool(2, 10)
	defer pool.Stop()

	var completed atomic.Int32
	for i := 0; i < 2; i++ {
		require.True(t, pool.Submit(func() { panic("resize exploded") }))
	}
	for i := 0; i < 3; i++ {
		require.True(t, pool.Submit(func() { completed.Add(1) }))
	}

	require.Eventually(t, func() bool { return pool.GetStats().Executed == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), completed.Load())
	assert.Equal(t, uint64(2), pool.GetStats().Failed)
}

func TestPool_StopWaitsForInFlight(t *testing.T) {
	pool := NewPool(2, 10)

	started := make(chan struct{})
	var done atomic.Bool
	pool.Submit(func() {
		close(started)
		time.Sleep(150 * time.Millisecond)
		done.Store(true)
	})
	<-started

	pool.Stop()
	assert.True(t, done.Load())
}

func TestPool_StopDrainsQueue(t *testing.T) {
	pool := NewPool(1, 10)

	var completed atomic.Int32
	for i := 0; i < 5; i++ {
		pool.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			completed.Add(1)
		})
	}
	pool.Stop()

	assert.Equal(t, int32(5), completed.Load())
	assert.False(t, pool.Submit(func() {}))
	assert.False(t, pool.SubmitBlocking(func() {}, 0))
}

func TestPool_SubmitDropsWhenFull(t *testing.T) {
	pool := NewPool(1, 2)
	blocker := make(chan struct{})
	defer func() {
		close(blocker)
		pool.Stop()
	}()

	started := make(chan struct{})
	pool.Submit(func() {
		close(started)
		<-blocker
	})
	<-started

	assert.True(t, pool.Submit(func() {}))
	assert.True(t, pool.Submit(func() {}))
	assert.False(t, pool.Submit(func() {}))
	assert.Equal(t, uint64(1), pool.GetStats().Dropped)
	assert.Equal(t, 2, pool.GetStats().QueueLen)
}

func TestPool_SubmitBlocking(t *testing.T) {
	pool := NewPool(1, 1)
	defer pool.Stop()

	blocker := make(chan struct{})
	started := make(chan struct{})
	pool.Submit(func() {
		close(started)
		<-blocker
	})
	<-started
	require.True(t, pool.Submit(func() {}))

	assert.False(t, pool.SubmitBlocking(func() {}, 20*time.Millisecond), "queue full, should time out")

	go func() {
		time.Sleep(30 * time.Millisecond)
		close(blocker)
	}()
	assert.True(t, pool.SubmitBlocking(func() {}, time.Second))
	assert.Equal(t, uint64(1), pool.GetStats().Dropped)
}

func TestPool_ConcurrentSubmit(t *testing.T) {
	pool := NewPool(4, 2000)

	const producers, perProducer = 50, 20
	var completed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				pool.Submit(func() { completed.Add(1) })
			}
		}()
	}
	wg.Wait()
	pool.Stop()

	assert.Equal(t, int32(producers*perProducer), completed.Load())
	assert.Equal(t, uint64(producers*perProducer), pool.GetStats().Submitted)
}

func TestPool_NilTaskSkipped(t *testing.T) {
	pool := NewPool(1, 10)

	assert.True(t, pool.Submit(nil))
	pool.Stop()

	stats := pool.GetStats()
	assert.Equal(t, uint64(1), stats.Submitted)
	assert.Equal(t, uint64(0), stats.Executed)
}

func TestPool_Defaults(t *testing.T) {
	pool := NewPool(0, 0)
	pool.Stop()
	pool.Stop()

	stats := pool.GetStats()
	assert.Greater(t, stats.WorkerCount, 0)
	assert.Equal(t, 1000, stats.QueueCap)
}
