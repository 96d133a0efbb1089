package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

// Cycler runs one harvesting cycle.
type Cycler interface {
	RunCycle(ctx context.Context) (domain.CycleReport, error)
}

// Scheduler wires the timing driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline Cycler
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, pipeline Cycler, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Debug("cycle triggered", "at", trigger)
		_, _ = s.RunOnce(ctx)
	}

	return s.driver.Start(ctx, job)
}

// RunOnce executes a single cycle, turning a panic into an error so the loop
// survives. Cycle errors are logged by the pipeline, not here.
func (s *Scheduler) RunOnce(ctx context.Context) (report domain.CycleReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cycle panicked", "panic", r, "stack", string(debug.Stack()))
			report.Inserted = 0
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()

	return s.pipeline.RunCycle(ctx)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
