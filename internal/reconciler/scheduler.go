package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Scheduler runs reconciliation passes on a fixed interval. Passes never
// overlap: the timer is re-armed only after the previous pass has finished,
// so a slow provider stretches the cycle instead of stacking passes.
type Scheduler struct {
	reconciler *Reconciler
	interval   time.Duration
	logger     *slog.Logger

	mu   sync.RWMutex
	last *Result
}

// SchedulerOption is a functional option for configuring the Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets a custom logger for the scheduler.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a Scheduler running passes every interval.
func NewScheduler(r *Reconciler, interval time.Duration, opts ...SchedulerOption) (*Scheduler, error) {
	if r == nil {
		return nil, fmt.Errorf("reconciler is required")
	}
	if interval < time.Second {
		return nil, fmt.Errorf("interval must be at least 1s, got %s", interval)
	}

	s := &Scheduler{
		reconciler: r,
		interval:   interval,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Run executes an immediate pass and then loops until ctx is canceled.
// It always returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler starting",
		slog.Duration("interval", s.interval),
	)

	s.runPass(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return ctx.Err()

		case <-timer.C:
			s.runPass(ctx)
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result := s.reconciler.Reconcile(ctx)

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	if result.HasErrors() {
		s.logger.Warn(result.Summary())
	} else {
		s.logger.Info(result.Summary())
	}
}

// LastResult returns the most recent pass result, or nil before the first
// pass completes.
func (s *Scheduler) LastResult() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Degraded reports whether the last pass had failures, with a message
// naming the failing families. Suitable for health.RegisterStatus.
func (s *Scheduler) Degraded() (bool, string) {
	last := s.LastResult()
	if last == nil || !last.HasErrors() {
		return false, ""
	}

	var parts []string
	for _, fr := range last.Failed() {
		parts = append(parts, fr.String())
	}
	return true, strings.Join(parts, "; ")
}
