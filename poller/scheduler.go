package poller

import (
	"context"
	"sync"
	"time"
)

// Task is one scheduled unit of work
type Task func(ctx context.Context)

// Scheduler runs a task at a fixed interval on its own goroutine.
// A tick always runs to completion; ticks never overlap.
type Scheduler struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a stopped scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Start runs task immediately and then every interval until Stop is
// called or ctx is done. Starting a running scheduler restarts it.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration, task Task) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Ticks get their own context so Stop never interrupts a running tick
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		task(context.WithoutCancel(loopCtx))
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				task(context.WithoutCancel(loopCtx))
			}
		}
	}()
}

// Stop ends the loop and waits for a running tick to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}
