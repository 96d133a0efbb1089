package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/metrics"
	"NewsHarvester/internal/normalizer"
	"NewsHarvester/internal/ports"
	"NewsHarvester/internal/scanner"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source        ports.ArticleSource
	Sites         *scanner.Registry
	Summarizer    ports.Summarizer
	Persister     *Persister
	Notifier      ports.Notifier
	Metrics       *metrics.Metrics
	EscalateAfter int
	Logger        *slog.Logger
}

// Pipeline implements one harvesting cycle: harvest, condense, normalize, persist.
type Pipeline struct {
	source     ports.ArticleSource
	sites      *scanner.Registry
	summarizer ports.Summarizer
	persister  *Persister
	notifier   ports.Notifier
	metrics    *metrics.Metrics
	health     *SiteHealth
	logger     *slog.Logger
	now        func() time.Time

	mu sync.Mutex
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:     deps.Source,
		sites:      deps.Sites,
		summarizer: deps.Summarizer,
		persister:  deps.Persister,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		health:     NewSiteHealth(deps.EscalateAfter),
		logger:     logger,
		now:        time.Now,
	}
}

// RunCycle executes one full cycle. Site failures are absorbed; the returned
// error is cycle-level (storage) and the report then carries zero inserts.
func (p *Pipeline) RunCycle(ctx context.Context) (domain.CycleReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	report := domain.CycleReport{ID: uuid.NewString(), StartedAt: p.now()}
	log := p.logger.With("cycle", report.ID)
	log.Info("cycle started")

	if p.source == nil {
		report.FinishedAt = p.now()
		return report, errors.New("pipeline has no article source")
	}

	raws, results := p.source.Harvest(ctx)
	report.Sites = results

	processed := p.process(raws)
	report.Collected = len(processed)

	p.escalate(ctx, log, results)

	var err error
	if p.persister != nil {
		report.Inserted, err = p.persister.Persist(ctx, processed)
		if err != nil {
			report.Inserted = 0
			err = fmt.Errorf("persist cycle: %w", err)
		}
	}

	report.FinishedAt = p.now()
	p.metrics.ObserveCycle(report, err)

	if err != nil {
		log.Error("cycle failed", "collected", report.Collected, "error", err)
		return report, err
	}
	log.Info("cycle finished",
		"collected", report.Collected,
		"inserted", report.Inserted,
		"duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	return report, nil
}

func (p *Pipeline) process(raws []domain.RawArticle) []domain.ProcessedArticle {
	out := make([]domain.ProcessedArticle, 0, len(raws))
	for _, raw := range raws {
		title := strings.TrimSpace(raw.Title)
		if title == "" || raw.URL == "" {
			continue
		}

		summary := raw.Content
		if p.summarizer != nil {
			summary = p.summarizer.Summarize(raw.Content)
		}

		out = append(out, domain.ProcessedArticle{
			Title:       title,
			URL:         raw.URL,
			Summary:     summary,
			PublishedAt: normalizer.Normalize(raw.Date, p.dateRule(raw.Source)),
			Source:      raw.Source,
		})
	}
	return out
}

func (p *Pipeline) dateRule(source string) domain.DateRule {
	if p.sites == nil {
		return domain.DateRulePassthrough
	}
	site, err := p.sites.Resolve(source)
	if err != nil {
		return domain.DateRulePassthrough
	}
	return site.DateRule
}

func (p *Pipeline) escalate(ctx context.Context, log *slog.Logger, results []domain.SiteResult) {
	for _, esc := range p.health.Observe(results) {
		log.Error("site produced no articles",
			"site", esc.Site,
			"consecutive_cycles", esc.Streak,
			"last_error", esc.Err)

		if p.notifier == nil {
			continue
		}
		msg := fmt.Sprintf("NewsHarvester: %s returned no articles for %d consecutive cycles", esc.Site, esc.Streak)
		if esc.Err != nil {
			msg += fmt.Sprintf(" (last error: %v)", esc.Err)
		}
		if err := p.notifier.Notify(ctx, msg); err != nil {
			log.Warn("alert delivery failed", "site", esc.Site, "error", err)
		}
	}
}
