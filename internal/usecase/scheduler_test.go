package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsHarvester/internal/domain"
)

type panickyCycler struct{}

func (panickyCycler) RunCycle(context.Context) (domain.CycleReport, error) {
	panic("nil map write")
}

type countingCycler struct{ n atomic.Int32 }

func (c *countingCycler) RunCycle(context.Context) (domain.CycleReport, error) {
	c.n.Add(1)
	return domain.CycleReport{Inserted: 2}, nil
}

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunOnceRecoversPanic(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, panickyCycler{}, nil)
	report, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil map write")
	assert.Zero(t, report.Inserted)
}

func TestSchedulerJobSurvivesPanics(t *testing.T) {
	t.Parallel()

	driver := &manualDriver{}
	s := NewScheduler(driver, panickyCycler{}, nil)
	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)

	assert.NotPanics(t, func() {
		driver.job(time.Now())
		driver.job(time.Now())
	})

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerDelegatesToPipeline(t *testing.T) {
	t.Parallel()

	driver := &manualDriver{}
	cycler := &countingCycler{}
	s := NewScheduler(driver, cycler, nil)
	require.NoError(t, s.Start(context.Background()))

	driver.job(time.Now())
	driver.job(time.Now())
	assert.EqualValues(t, 2, cycler.n.Load())

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
}

func TestSchedulerLogsCycleErrorOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	repo := newMemRepository()
	repo.commitErr = errors.New("connection reset by peer")
	src := &fakeSource{cycles: [][]domain.RawArticle{{raw("Mint", "https://mint.example/1")}}}
	p := newTestPipeline(t, src, repo)
	p.logger = logger

	_, err := NewScheduler(nil, p, logger).RunOnce(context.Background())
	require.ErrorIs(t, err, ErrStorageUnavailable)

	assert.Equal(t, 1, strings.Count(buf.String(), `"level":"ERROR"`), buf.String())
}
