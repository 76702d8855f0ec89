package ant

import (
	"errors"
	"runtime/debug"
	"sync"

	"antfarm/internal/logging"
)

// ErrQueueFull is returned by TrySubmit when the bounded queue is saturated.
// The caller drops the job; the agent's next scheduled firing tries again.
var ErrQueueFull = errors.New("worker queue full")

// WorkerPool runs tick jobs on a fixed set of goroutines behind a bounded
// queue. Submission never blocks.
type WorkerPool struct {
	jobs   chan func()
	logger logging.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewWorkerPool starts workers goroutines draining a queue of queueCapacity.
func NewWorkerPool(workers, queueCapacity int, logger logging.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueCapacity < 1 {
		queueCapacity = 1
	}

	p := &WorkerPool{
		jobs:   make(chan func(), queueCapacity),
		logger: logging.OrNop(logger),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(job)
	}
}

func (p *WorkerPool) run(job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker recovered from panic: %v\n%s", r, debug.Stack())
		}
	}()
	job()
}

// TrySubmit enqueues job without blocking. Returns ErrQueueFull when the
// queue is saturated or the pool is stopped.
func (p *WorkerPool) TrySubmit(job func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrQueueFull
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes intake, drains queued jobs, and waits for the workers.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}
