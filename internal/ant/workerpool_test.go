package ant

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, 100, nil)
	defer pool.Stop()

	var current, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		err := pool.TrySubmit(func() {
			defer wg.Done()
			n := atomic.AddInt64(&current, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&current, -1)
		})
		require.NoError(t, err)
	}
	wg.Wait()
	require.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestWorkerPoolRejectsWhenFull(t *testing.T) {
	pool := NewWorkerPool(1, 10, nil)
	defer pool.Stop()

	block := make(chan struct{})
	require.NoError(t, pool.TrySubmit(func() { <-block }))

	// Wait until the worker picks up the blocking job so the queue is free.
	time.Sleep(10 * time.Millisecond)

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.TrySubmit(func() { <-block }))
	}

	start := time.Now()
	err := pool.TrySubmit(func() {})
	require.ErrorIs(t, err, ErrQueueFull)
	require.Less(t, time.Since(start), 100*time.Millisecond, "rejection must not block")

	close(block)
}

func TestWorkerPoolHonorsSmallQueueCapacity(t *testing.T) {
	pool := NewWorkerPool(1, 1, nil)
	defer pool.Stop()

	block := make(chan struct{})
	require.NoError(t, pool.TrySubmit(func() { <-block }))

	// Wait until the worker picks up the blocking job so the queue is free.
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, pool.TrySubmit(func() { <-block }))
	require.ErrorIs(t, pool.TrySubmit(func() {}), ErrQueueFull)

	close(block)
}

func TestWorkerPoolRecoversFromPanic(t *testing.T) {
	pool := NewWorkerPool(1, 10, nil)
	defer pool.Stop()

	require.NoError(t, pool.TrySubmit(func() { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, pool.TrySubmit(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive panic")
	}
}

func TestWorkerPoolStopIsIdempotentAndRejectsAfter(t *testing.T) {
	pool := NewWorkerPool(2, 10, nil)
	pool.Stop()
	pool.Stop()
	require.ErrorIs(t, pool.TrySubmit(func() {}), ErrQueueFull)
}
