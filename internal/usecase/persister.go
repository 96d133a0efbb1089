package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

// ErrStorageUnavailable marks a batch that could not be opened or committed.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Persister stores new articles once per cycle as a single batch.
type Persister struct {
	repository ports.ArticleRepository
	logger     *slog.Logger
}

// NewPersister wires the storage collaborator.
func NewPersister(repository ports.ArticleRepository, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{repository: repository, logger: logger}
}

// Persist inserts every article whose URL is not stored yet and commits once.
// Per-article failures are logged and skipped; only batch-level failures are returned.
func (p *Persister) Persist(ctx context.Context, articles []domain.ProcessedArticle) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	batch, err := p.repository.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	defer func() {
		if err := batch.Rollback(); err != nil {
			p.logger.Warn("rollback failed", "error", err)
		}
	}()

	seen := make(map[string]struct{}, len(articles))
	for _, article := range articles {
		if article.URL == "" {
			continue
		}
		if _, dup := seen[article.URL]; dup {
			p.logger.Debug("duplicate url in batch", "url", article.URL)
			continue
		}
		seen[article.URL] = struct{}{}

		exists, err := batch.ExistsByURL(ctx, article.URL)
		if err != nil {
			p.logger.Warn("existence check failed", "url", article.URL, "error", err)
			continue
		}
		if exists {
			p.logger.Debug("article already stored", "url", article.URL)
			continue
		}

		if _, err := batch.Insert(ctx, article); err != nil {
			if errors.Is(err, ports.ErrDuplicateURL) {
				p.logger.Debug("insert conflict", "url", article.URL)
			} else {
				p.logger.Warn("insert failed", "url", article.URL, "error", err)
			}
			continue
		}
	}

	inserted, err := batch.Commit()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return inserted, nil
}
