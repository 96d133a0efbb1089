package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"NewsHarvester/internal/ports"
)

// State is the phase of the interval loop.
type State int32

const (
	Idle State = iota
	Cycling
	Sleeping
)

func (s State) String() string {
	switch s {
	case Cycling:
		return "cycling"
	case Sleeping:
		return "sleeping"
	default:
		return "idle"
	}
}

// IntervalScheduler alternates Cycling and Sleeping; the sleep starts when a cycle ends.
type IntervalScheduler struct {
	interval time.Duration
	logger   *slog.Logger
	state    atomic.Int32

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a loop with a fixed post-cycle sleep.
func NewIntervalScheduler(interval time.Duration, logger *slog.Logger) *IntervalScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntervalScheduler{interval: interval, logger: logger}
}

// Start runs the first cycle immediately in a background goroutine. If a
// previous loop is still finishing its cycle after Stop, Start waits for it
// to exit so two loops never overlap.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return errors.New("interval scheduler: nil job")
	}
	if s.interval <= 0 {
		return errors.New("interval scheduler: interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}
	if s.done != nil {
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(ctx, job, s.stop, s.done)
	return nil
}

func (s *IntervalScheduler) loop(ctx context.Context, job func(time.Time), stop, done chan struct{}) {
	defer close(done)
	defer s.state.Store(int32(Idle))

	for {
		s.state.Store(int32(Cycling))
		job(time.Now())

		if ctx.Err() != nil {
			return
		}

		s.state.Store(int32(Sleeping))
		s.logger.Info("sleeping until next cycle", "interval", s.interval)
		timer := time.NewTimer(s.interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stop:
			timer.Stop()
			return
		}
	}
}

// State reports the current phase.
func (s *IntervalScheduler) State() State {
	return State(s.state.Load())
}

// Done is closed once the loop has exited; nil before Start.
func (s *IntervalScheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Stop ends the loop after the in-flight cycle and waits for it or ctx.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop = nil
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	if stop != nil {
		close(stop)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
