package domain

import "time"

// NoDate is stored when a page carries no usable publish date.
const NoDate = "No Date"

// RawArticle is the unprocessed result of parsing one article page.
type RawArticle struct {
	Source  string
	URL     string
	Title   string
	Content string
	Date    string
}

// ProcessedArticle is the unit handed to persistence. URL is the dedup key.
type ProcessedArticle struct {
	Title       string
	URL         string
	Summary     string
	PublishedAt string
	Source      string
}

// StoredArticle is a ProcessedArticle after storage assigned its identity.
type StoredArticle struct {
	ID          int64
	Title       string
	URL         string
	Summary     string
	PublishedAt string
	Source      string
	CreatedAt   time.Time
}

// Stored builds the storage view of a processed article.
func (p ProcessedArticle) Stored(id int64, createdAt time.Time) StoredArticle {
	return StoredArticle{
		ID:          id,
		Title:       p.Title,
		URL:         p.URL,
		Summary:     p.Summary,
		PublishedAt: p.PublishedAt,
		Source:      p.Source,
		CreatedAt:   createdAt,
	}
}

// DateRule enumerates the per-source date cleanup strategies.
type DateRule string

const (
	DateRulePassthrough  DateRule = "passthrough"
	DateRuleStripUpdated DateRule = "strip-updated"
)

// SiteResult summarizes what one site contributed to a cycle.
type SiteResult struct {
	Site     string
	Links    int
	Articles int
	Skipped  int
	Err      error
}

// Empty reports whether the site contributed nothing this cycle.
func (r SiteResult) Empty() bool {
	return r.Err != nil || r.Articles == 0
}

// CycleReport captures the outcome of one harvesting cycle.
type CycleReport struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Sites      []SiteResult
	Collected  int
	Inserted   int
}
