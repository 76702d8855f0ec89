package ant

import (
	"sync"
	"time"

	"antfarm/internal/domain"
	"antfarm/internal/logging"
)

// Scheduler owns one timer per ant and submits tick jobs to the worker pool.
// Single-instance: running multiple processes against the same store
// schedules every ant once per process and produces duplicate runs.
type Scheduler struct {
	pool   *WorkerPool
	logger logging.Logger

	mu      sync.Mutex
	entries map[string]*timerEntry
}

type timerEntry struct {
	stop chan struct{}
	done chan struct{}
}

// NewScheduler wraps pool. The pool is owned by the caller except for
// Shutdown, which stops it.
func NewScheduler(pool *WorkerPool, logger logging.Logger) *Scheduler {
	return &Scheduler{
		pool:    pool,
		logger:  logging.OrNop(logger),
		entries: make(map[string]*timerEntry),
	}
}

// ScheduleOrReschedule installs or replaces the timer for ant.ID, firing
// every max(interval, 5s). Rescheduling always cancels the existing timer
// first; there is no in-place interval change.
func (s *Scheduler) ScheduleOrReschedule(a domain.Ant, tick func()) {
	s.Cancel(a.ID)

	interval := a.Interval()
	entry := &timerEntry{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.entries[a.ID] = entry
	s.mu.Unlock()

	go s.runTimer(a, interval, entry, tick)
	s.logger.Info("scheduled antId=%s model=%s intervalSeconds=%d", a.ID, a.Model, a.IntervalSeconds)
}

func (s *Scheduler) runTimer(a domain.Ant, interval time.Duration, entry *timerEntry, tick func()) {
	defer close(entry.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ticksStartedTotal.Inc()
			if err := s.pool.TrySubmit(tick); err != nil {
				poolRejectionsTotal.Inc()
				s.logger.Warn("ant tick rejected by worker queue antId=%s model=%s", a.ID, a.Model)
			}
		case <-entry.stop:
			return
		}
	}
}

// Cancel stops and removes the timer for antID. No-op if absent.
func (s *Scheduler) Cancel(antID string) {
	s.mu.Lock()
	entry, ok := s.entries[antID]
	if ok {
		delete(s.entries, antID)
	}
	s.mu.Unlock()

	if ok {
		close(entry.stop)
		<-entry.done
	}
}

// Scheduled reports whether antID currently has a live timer.
func (s *Scheduler) Scheduled(antID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[antID]
	return ok
}

// Shutdown cancels every timer and stops the worker pool.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]*timerEntry)
	s.mu.Unlock()

	for _, entry := range entries {
		close(entry.stop)
		<-entry.done
	}
	s.pool.Stop()
}
