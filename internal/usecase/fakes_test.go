package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

type memRepository struct {
	mu        sync.Mutex
	rows      map[string]domain.StoredArticle
	nextID    int64
	beginErr  error
	commitErr error
	failURL   string
	checked   []string
}

func newMemRepository(urls ...string) *memRepository {
	r := &memRepository{rows: map[string]domain.StoredArticle{}}
	for _, u := range urls {
		r.nextID++
		r.rows[u] = domain.StoredArticle{ID: r.nextID, URL: u, Title: "seed", CreatedAt: time.Now()}
	}
	return r
}

func (r *memRepository) Begin(context.Context) (ports.Batch, error) {
	if r.beginErr != nil {
		return nil, r.beginErr
	}
	return &memBatch{repo: r, staged: map[string]domain.StoredArticle{}}, nil
}

func (r *memRepository) ListAll(context.Context) ([]domain.StoredArticle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StoredArticle, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *memRepository) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows), nil
}

func (r *memRepository) EnsureSchema(context.Context) error { return nil }
func (r *memRepository) Close() error                       { return nil }

type memBatch struct {
	repo   *memRepository
	staged map[string]domain.StoredArticle
}

func (b *memBatch) ExistsByURL(_ context.Context, url string) (bool, error) {
	b.repo.mu.Lock()
	defer b.repo.mu.Unlock()
	b.repo.checked = append(b.repo.checked, url)
	_, ok := b.repo.rows[url]
	return ok, nil
}

func (b *memBatch) Insert(_ context.Context, article domain.ProcessedArticle) (domain.StoredArticle, error) {
	b.repo.mu.Lock()
	defer b.repo.mu.Unlock()
	if article.URL == b.repo.failURL {
		return domain.StoredArticle{}, errors.New("value too long for type character varying(500)")
	}
	if _, ok := b.repo.rows[article.URL]; ok {
		return domain.StoredArticle{}, fmt.Errorf("%w: %s", ports.ErrDuplicateURL, article.URL)
	}
	if _, ok := b.staged[article.URL]; ok {
		return domain.StoredArticle{}, fmt.Errorf("%w: %s", ports.ErrDuplicateURL, article.URL)
	}
	b.repo.nextID++
	stored := article.Stored(b.repo.nextID, time.Now())
	b.staged[article.URL] = stored
	return stored, nil
}

func (b *memBatch) Commit() (int, error) {
	if b.repo.commitErr != nil {
		return 0, b.repo.commitErr
	}
	b.repo.mu.Lock()
	defer b.repo.mu.Unlock()
	for url, row := range b.staged {
		b.repo.rows[url] = row
	}
	return len(b.staged), nil
}

func (b *memBatch) Rollback() error {
	b.staged = map[string]domain.StoredArticle{}
	return nil
}

type fakeSource struct {
	cycles [][]domain.RawArticle
	calls  int
}

func (s *fakeSource) Harvest(context.Context) ([]domain.RawArticle, []domain.SiteResult) {
	batch := s.cycles[min(s.calls, len(s.cycles)-1)]
	s.calls++

	counts := map[string]int{}
	var order []string
	for _, a := range batch {
		if _, ok := counts[a.Source]; !ok {
			order = append(order, a.Source)
		}
		counts[a.Source]++
	}
	results := make([]domain.SiteResult, 0, len(order))
	for _, site := range order {
		results = append(results, domain.SiteResult{Site: site, Articles: counts[site]})
	}
	return batch, results
}

type staticSource struct {
	results []domain.SiteResult
}

func (s staticSource) Harvest(context.Context) ([]domain.RawArticle, []domain.SiteResult) {
	return nil, s.results
}

type upperSummarizer struct{}

func (upperSummarizer) Summarize(text string) string { return "S:" + text }

type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, msg string) error {
	n.messages = append(n.messages, msg)
	return n.err
}

func raw(source, url string) domain.RawArticle {
	return domain.RawArticle{
		Source:  source,
		URL:     url,
		Title:   "Title " + url,
		Content: "Body of " + url + ".",
		Date:    "Updated - Jan 5, 2024 at 10:00 IST",
	}
}
