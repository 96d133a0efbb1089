package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsHarvester/internal/config"
	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/infrastructure/fetcher"
	"NewsHarvester/internal/infrastructure/parser"
	schedulerdriver "NewsHarvester/internal/infrastructure/scheduler"
	"NewsHarvester/internal/infrastructure/storage"
	"NewsHarvester/internal/infrastructure/telegram"
	"NewsHarvester/internal/logging"
	"NewsHarvester/internal/metrics"
	"NewsHarvester/internal/ports"
	"NewsHarvester/internal/scanner"
	"NewsHarvester/internal/summarizer"
	"NewsHarvester/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	repository ports.ArticleRepository
	pipeline   *usecase.Pipeline
	scheduler  *usecase.Scheduler
	registry   *prometheus.Registry
}

// New builds the application. Failing to load the summarizer model or to
// reach storage is fatal.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	model, err := summarizer.LoadModel(cfg.Summarizer.StopwordsFile)
	if err != nil {
		return nil, fmt.Errorf("load summarizer model: %w", err)
	}
	textRank, err := summarizer.New(model, summarizer.Options{
		Sentences: cfg.Summarizer.Sentences,
		Phrases:   cfg.Summarizer.Phrases,
	}, baseLogger.With("component", "summarizer"))
	if err != nil {
		return nil, err
	}

	sites, err := BuildRegistry(cfg.Sites)
	if err != nil {
		return nil, err
	}

	repository, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	httpFetcher := fetcher.New(cfg.Scheduler.RequestTimeout(), "")
	selector := parser.NewSelectorScanner(httpFetcher, cfg.Scheduler.LinkLimit, baseLogger.With("component", "scanner"))
	source := parser.NewStrategySource(sites, selector, baseLogger.With("component", "source"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:        source,
		Sites:         sites,
		Summarizer:    textRank,
		Persister:     usecase.NewPersister(repository, baseLogger.With("component", "persister")),
		Notifier:      notifier,
		Metrics:       metrics.New(registry),
		EscalateAfter: cfg.Scheduler.EscalateAfter,
		Logger:        baseLogger.With("component", "pipeline"),
	})

	driver, err := newDriver(cfg.Scheduler, baseLogger.With("component", "scheduler"))
	if err != nil {
		_ = repository.Close()
		return nil, err
	}

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		repository: repository,
		pipeline:   pipeline,
		scheduler:  usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler")),
		registry:   registry,
	}, nil
}

// BuildRegistry turns configured sites into the scanner registry.
func BuildRegistry(sites []config.SiteConfig) (*scanner.Registry, error) {
	reg, err := scanner.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, sc := range sites {
		site := scanner.Site{
			Name:                sc.Name,
			URL:                 sc.URL,
			LinkSelector:        sc.LinkSelector,
			TitleSelector:       sc.TitleSelector,
			ContentSelector:     sc.ContentSelector,
			DateSelector:        sc.DateSelector,
			DateRule:            sc.DateRule,
			ReadabilityFallback: sc.Readability,
		}
		if err := reg.Register(site); err != nil {
			return nil, fmt.Errorf("register site: %w", err)
		}
	}
	return reg, nil
}

func newDriver(cfg config.SchedulerConfig, logger *slog.Logger) (ports.Scheduler, error) {
	if cfg.CronExpression != "" {
		return schedulerdriver.NewCronScheduler(cfg.CronExpression, cfg.Location(), logger)
	}
	return schedulerdriver.NewIntervalScheduler(cfg.Interval(), logger), nil
}

// Run starts the recurring loop and blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Metrics.Addr != "" {
		srv := a.metricsServer()
		go func() {
			a.logger.Info("metrics listener started", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics listener failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("harvester running",
		"sites", len(a.cfg.Sites),
		"interval", a.cfg.Scheduler.Interval(),
		"cron", a.cfg.Scheduler.CronExpression)

	<-ctx.Done()
	a.logger.Info("shutdown requested, waiting for the running cycle")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// RunOnce executes a single cycle.
func (a *Application) RunOnce(ctx context.Context) (domain.CycleReport, error) {
	return a.scheduler.RunOnce(ctx)
}

// Close releases storage.
func (a *Application) Close() error {
	if a.repository == nil {
		return nil
	}
	return a.repository.Close()
}

func (a *Application) metricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
