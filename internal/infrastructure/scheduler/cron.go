package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsHarvester/internal/ports"
)

// CronScheduler triggers cycles on a cron expression; overlapping triggers are skipped.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler validates spec and builds a scheduler for it.
func NewCronScheduler(spec string, location *time.Location, logger *slog.Logger) (*CronScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronScheduler{spec: spec, location: location, logger: logger}, nil
}

// Start registers job and starts the cron runner. The runner stops with ctx.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return errors.New("cron scheduler: nil job")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	log := cronLogger{c.logger}
	runner := cron.New(
		cron.WithLocation(c.location),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	if _, err := runner.AddFunc(c.spec, func() { job(time.Now().In(c.location)) }); err != nil {
		return fmt.Errorf("schedule %q: %w", c.spec, err)
	}

	runner.Start()
	c.cron = runner
	c.logger.Info("cron scheduler started", "spec", c.spec, "timezone", c.location.String())

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()
	return nil
}

// Stop halts the runner and waits for a running job or ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner := c.cron
	c.cron = nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}

	select {
	case <-runner.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
