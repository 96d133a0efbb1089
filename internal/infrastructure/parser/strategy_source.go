package parser

import (
	"context"
	"fmt"
	"log/slog"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
	"NewsHarvester/internal/scanner"
)

// StrategySource implements ArticleSource by running a scanner over every registered site.
type StrategySource struct {
	registry *scanner.Registry
	scanner  scanner.Scanner
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires the site registry with the scanner that visits them.
func NewStrategySource(reg *scanner.Registry, sc scanner.Scanner, log *slog.Logger) *StrategySource {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &StrategySource{
		registry: reg,
		scanner:  sc,
		logger:   log,
	}
}

// Harvest visits sites sequentially. A failing site is logged and recorded
// in its SiteResult; the remaining sites still run.
func (s *StrategySource) Harvest(ctx context.Context) ([]domain.RawArticle, []domain.SiteResult) {
	if s.registry == nil || s.scanner == nil {
		s.logger.Error("strategy source is not configured")
		return nil, nil
	}

	sites := s.registry.Sites()
	s.logger.Debug("harvest started", "sites", len(sites))

	var (
		aggregated []domain.RawArticle
		results    = make([]domain.SiteResult, 0, len(sites))
	)
	for _, site := range sites {
		if ctx.Err() != nil {
			break
		}

		s.logger.Info("scraping site", "site", site.Name, "url", site.URL)
		articles, result := s.scanSite(ctx, site)
		result.Site = site.Name
		if result.Err != nil {
			s.logger.Error("site scrape failed", "site", site.Name, "error", result.Err)
		} else {
			s.logger.Info("site scraped", "site", site.Name, "articles", len(articles), "skipped", result.Skipped)
		}

		results = append(results, result)
		aggregated = append(aggregated, articles...)
	}

	s.logger.Debug("harvest done", "total_articles", len(aggregated))
	return aggregated, results
}

func (s *StrategySource) scanSite(ctx context.Context, site scanner.Site) (articles []domain.RawArticle, result domain.SiteResult) {
	defer func() {
		if r := recover(); r != nil {
			articles = nil
			result = domain.SiteResult{Site: site.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	articles, result, err := s.scanner.Scan(ctx, site)
	if err != nil {
		result.Err = err
	}
	for i := range articles {
		if articles[i].Source == "" {
			articles[i].Source = site.Name
		}
	}
	result.Articles = len(articles)
	return articles, result
}
