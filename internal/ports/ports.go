package ports

import (
	"context"
	"errors"
	"time"

	"NewsHarvester/internal/domain"
)

// ErrDuplicateURL reports that an insert hit the URL uniqueness constraint.
var ErrDuplicateURL = errors.New("article url already stored")

// ArticleSource harvests raw articles from every configured site.
type ArticleSource interface {
	Harvest(ctx context.Context) ([]domain.RawArticle, []domain.SiteResult)
}

// ArticleRepository is the storage collaborator used by the persister and read side.
type ArticleRepository interface {
	Begin(ctx context.Context) (Batch, error)
	ListAll(ctx context.Context) ([]domain.StoredArticle, error)
	Count(ctx context.Context) (int, error)
	EnsureSchema(ctx context.Context) error
	Close() error
}

// Batch stages inserts that become visible on Commit.
type Batch interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	Insert(ctx context.Context, article domain.ProcessedArticle) (domain.StoredArticle, error)
	Commit() (int, error)
	Rollback() error
}

// Summarizer condenses article bodies.
type Summarizer interface {
	Summarize(text string) string
}

// Notifier delivers operator alerts to Telegram or other channels.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Scheduler controls when cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
