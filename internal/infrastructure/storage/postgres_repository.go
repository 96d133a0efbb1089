package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

const (
	articlesTable     = "articles"
	batchSavepoint    = "article_batch"
	uniqueViolation   = "23505"
	defaultMaxOpen    = 5
	defaultMaxIdle    = 2
	defaultConnMaxAge = 30 * time.Minute
	pingTimeout       = 5 * time.Second
)

var articleColumns = []string{"id", "title", "url", "description", "published_at", "source", "created_at"}

const createArticlesTable = `CREATE TABLE IF NOT EXISTS articles (
    id           BIGSERIAL PRIMARY KEY,
    title        VARCHAR(500)  NOT NULL,
    url          VARCHAR(1000) NOT NULL UNIQUE,
    description  TEXT,
    published_at VARCHAR(100),
    source       VARCHAR(100),
    created_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS articles_created_at_idx ON articles (created_at DESC);`

// PostgresRepository persists articles into Postgres.
type PostgresRepository struct {
	db   *sqlx.DB
	psql sq.StatementBuilderType
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// OpenPostgres connects and pings the database behind dsn.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpen)
	db.SetMaxIdleConns(defaultMaxIdle)
	db.SetConnMaxLifetime(defaultConnMaxAge)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sqlx.DB implementation.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates the articles table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createArticlesTable); err != nil {
		return fmt.Errorf("create articles table: %w", err)
	}
	return nil
}

// Begin opens the transaction backing one persistence batch.
func (r *PostgresRepository) Begin(ctx context.Context) (ports.Batch, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	return &postgresBatch{tx: tx, psql: r.psql}, nil
}

// ListAll returns every stored article, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]domain.StoredArticle, error) {
	query, args, err := r.psql.Select(articleColumns...).
		From(articlesTable).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	out := make([]domain.StoredArticle, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Count returns the number of stored articles.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	query, args, err := r.psql.Select("COUNT(*)").From(articlesTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

type postgresBatch struct {
	tx       *sqlx.Tx
	psql     sq.StatementBuilderType
	inserted int
}

// ExistsByURL runs inside a savepoint so a failed lookup does not abort the transaction.
func (b *postgresBatch) ExistsByURL(ctx context.Context, url string) (bool, error) {
	query, args, err := b.psql.Select("1").
		From(articlesTable).
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	exists := false
	err = b.savepoint(ctx, func() error {
		var one int
		switch err := b.tx.GetContext(ctx, &one, query, args...); {
		case errors.Is(err, sql.ErrNoRows):
			return nil
		case err != nil:
			return fmt.Errorf("check url: %w", err)
		}
		exists = true
		return nil
	})
	return exists, err
}

// Insert runs inside a savepoint so a failed row does not abort the transaction.
func (b *postgresBatch) Insert(ctx context.Context, article domain.ProcessedArticle) (domain.StoredArticle, error) {
	query, args, err := b.psql.Insert(articlesTable).
		Columns("title", "url", "description", "published_at", "source").
		Values(article.Title, article.URL, article.Summary, article.PublishedAt, article.Source).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return domain.StoredArticle{}, fmt.Errorf("build insert: %w", err)
	}

	var (
		id        int64
		createdAt time.Time
	)
	err = b.savepoint(ctx, func() error {
		if err := b.tx.QueryRowxContext(ctx, query, args...).Scan(&id, &createdAt); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return fmt.Errorf("%w: %s", ports.ErrDuplicateURL, article.URL)
			}
			return fmt.Errorf("insert article: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.StoredArticle{}, err
	}

	b.inserted++
	return article.Stored(id, createdAt), nil
}

// savepoint runs fn between SAVEPOINT and RELEASE, rolling back to it when fn fails.
func (b *postgresBatch) savepoint(ctx context.Context, fn func() error) error {
	if _, err := b.tx.ExecContext(ctx, "SAVEPOINT "+batchSavepoint); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}

	if err := fn(); err != nil {
		if _, rbErr := b.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+batchSavepoint); rbErr != nil {
			return fmt.Errorf("%w (rollback to savepoint: %v)", err, rbErr)
		}
		return err
	}

	if _, err := b.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+batchSavepoint); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

func (b *postgresBatch) Commit() (int, error) {
	if err := b.tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return b.inserted, nil
}

func (b *postgresBatch) Rollback() error {
	if err := b.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback batch: %w", err)
	}
	return nil
}

type articleRow struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	URL         string         `db:"url"`
	Description sql.NullString `db:"description"`
	PublishedAt sql.NullString `db:"published_at"`
	Source      sql.NullString `db:"source"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r articleRow) toDomain() domain.StoredArticle {
	return domain.StoredArticle{
		ID:          r.ID,
		Title:       r.Title,
		URL:         r.URL,
		Summary:     r.Description.String,
		PublishedAt: r.PublishedAt.String,
		Source:      r.Source.String,
		CreatedAt:   r.CreatedAt,
	}
}
