// Package scheduler runs keyed, best-effort callbacks after a delay.
// Pending timers live in memory only and are lost on restart, the periodic
// reservation sweep picks up whatever they would have done.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TimerScheduler is an in-process DeferredScheduler backed by time.AfterFunc
type TimerScheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewTimerScheduler returns a scheduler whose callbacks each get at most timeout to run
func NewTimerScheduler(timeout time.Duration, logger *slog.Logger) *TimerScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &TimerScheduler{
		timers:  make(map[string]*time.Timer),
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
		logger:  logger,
	}
}

// Schedule runs fn after delay. Scheduling an existing key replaces its timer.
func (s *TimerScheduler) Schedule(key string, delay time.Duration, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	if existing, ok := s.timers[key]; ok {
		existing.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if current, ok := s.timers[key]; !ok || current != timer {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.wg.Add(1)
		s.mu.Unlock()
		defer s.wg.Done()

		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled task panicked", "key", key, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
		fn(ctx)
	})
	s.timers[key] = timer
}

// Cancel stops a pending timer. It reports whether one was pending.
func (s *TimerScheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[key]
	if !ok {
		return false
	}
	delete(s.timers, key)
	return timer.Stop()
}

// Pending returns the number of timers not fired yet
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop drops pending timers and waits for running callbacks
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}
