package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

var articlesBucket = []byte("articles")

// BoltRepository keeps articles in an embedded bbolt file keyed by URL.
type BoltRepository struct {
	db  *bolt.DB
	now func() time.Time
}

var _ ports.ArticleRepository = (*BoltRepository)(nil)

// OpenBolt opens (or creates) the database file at path.
func OpenBolt(path string) (*BoltRepository, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	return &BoltRepository{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// EnsureSchema creates the articles bucket when missing.
func (r *BoltRepository) EnsureSchema(context.Context) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(articlesBucket)
		return err
	})
}

// Begin opens the single write transaction backing one batch.
func (r *BoltRepository) Begin(context.Context) (ports.Batch, error) {
	tx, err := r.db.Begin(true)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	bucket, err := tx.CreateBucketIfNotExists(articlesBucket)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("articles bucket: %w", err)
	}
	return &boltBatch{tx: tx, bucket: bucket, now: r.now}, nil
}

// ListAll returns every stored article, newest first.
func (r *BoltRepository) ListAll(context.Context) ([]domain.StoredArticle, error) {
	var out []domain.StoredArticle
	err := r.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(articlesBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var rec boltRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			out = append(out, rec.toDomain())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Count returns the number of stored articles.
func (r *BoltRepository) Count(context.Context) (int, error) {
	n := 0
	err := r.db.View(func(tx *bolt.Tx) error {
		if bucket := tx.Bucket(articlesBucket); bucket != nil {
			n = bucket.Stats().KeyN
		}
		return nil
	})
	return n, err
}

// Close releases the file lock.
func (r *BoltRepository) Close() error {
	return r.db.Close()
}

type boltBatch struct {
	tx       *bolt.Tx
	bucket   *bolt.Bucket
	now      func() time.Time
	inserted int
}

func (b *boltBatch) ExistsByURL(_ context.Context, url string) (bool, error) {
	if url == "" {
		return false, nil
	}
	return b.bucket.Get([]byte(url)) != nil, nil
}

func (b *boltBatch) Insert(_ context.Context, article domain.ProcessedArticle) (domain.StoredArticle, error) {
	key := []byte(article.URL)
	if len(key) == 0 {
		return domain.StoredArticle{}, errors.New("article url is empty")
	}
	if b.bucket.Get(key) != nil {
		return domain.StoredArticle{}, fmt.Errorf("%w: %s", ports.ErrDuplicateURL, article.URL)
	}

	seq, err := b.bucket.NextSequence()
	if err != nil {
		return domain.StoredArticle{}, fmt.Errorf("next id: %w", err)
	}
	stored := article.Stored(int64(seq), b.now())

	data, err := json.Marshal(fromDomain(stored))
	if err != nil {
		return domain.StoredArticle{}, fmt.Errorf("encode article: %w", err)
	}
	if err := b.bucket.Put(key, data); err != nil {
		return domain.StoredArticle{}, fmt.Errorf("put article: %w", err)
	}

	b.inserted++
	return stored, nil
}

func (b *boltBatch) Commit() (int, error) {
	if err := b.tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return b.inserted, nil
}

func (b *boltBatch) Rollback() error {
	if err := b.tx.Rollback(); err != nil && !errors.Is(err, bolt.ErrTxClosed) {
		return fmt.Errorf("rollback batch: %w", err)
	}
	return nil
}

type boltRecord struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	PublishedAt string    `json:"published_at"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

func fromDomain(a domain.StoredArticle) boltRecord {
	return boltRecord{
		ID:          a.ID,
		Title:       a.Title,
		URL:         a.URL,
		Description: a.Summary,
		PublishedAt: a.PublishedAt,
		Source:      a.Source,
		CreatedAt:   a.CreatedAt,
	}
}

func (r boltRecord) toDomain() domain.StoredArticle {
	return domain.StoredArticle{
		ID:          r.ID,
		Title:       r.Title,
		URL:         r.URL,
		Summary:     r.Description,
		PublishedAt: r.PublishedAt,
		Source:      r.Source,
		CreatedAt:   r.CreatedAt,
	}
}
