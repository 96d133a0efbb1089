package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/infrastructure/fetcher"
	"NewsHarvester/internal/scanner"
)

// DefaultLinkLimit caps article fetches per site per cycle.
const DefaultLinkLimit = 10

// SelectorScanner extracts articles from a listing page using CSS selectors.
type SelectorScanner struct {
	fetcher   fetcher.Fetcher
	linkLimit int
	logger    *slog.Logger
}

var _ scanner.Scanner = (*SelectorScanner)(nil)

// NewSelectorScanner wires a fetcher; linkLimit defaults to 10.
func NewSelectorScanner(f fetcher.Fetcher, linkLimit int, logger *slog.Logger) *SelectorScanner {
	if f == nil {
		f = fetcher.New(0, "")
	}
	if linkLimit <= 0 {
		linkLimit = DefaultLinkLimit
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SelectorScanner{fetcher: f, linkLimit: linkLimit, logger: logger}
}

// Scan fetches the listing page, follows up to linkLimit article links and
// extracts each one. Article level failures are logged and skipped; only a
// failed listing fetch is returned as an error.
func (s *SelectorScanner) Scan(ctx context.Context, site scanner.Site) ([]domain.RawArticle, domain.SiteResult, error) {
	result := domain.SiteResult{Site: site.Name}

	listing, err := s.fetchDocument(ctx, site.URL)
	if err != nil {
		return nil, result, fmt.Errorf("listing page: %w", err)
	}

	links := ListLinks(listing, site, s.linkLimit)
	result.Links = len(links)
	s.logger.Info("found article links", "site", site.Name, "links", len(links))

	var articles []domain.RawArticle
	for _, link := range links {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return articles, result, ctxErr
		}

		article, ok, err := s.scanArticle(ctx, site, link)
		switch {
		case err != nil:
			result.Skipped++
			s.logger.Warn("article fetch failed", "site", site.Name, "url", link, "error", err)
		case !ok:
			result.Skipped++
			s.logger.Info("article structure mismatch, skipped", "site", site.Name, "url", link)
		default:
			articles = append(articles, article)
			s.logger.Debug("article extracted", "site", site.Name, "title", article.Title)
		}
	}

	result.Articles = len(articles)
	return articles, result, nil
}

func (s *SelectorScanner) scanArticle(ctx context.Context, site scanner.Site, link string) (article domain.RawArticle, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while extracting %s: %v", link, r)
		}
	}()

	raw, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return domain.RawArticle{}, false, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Body))
	if err != nil {
		return domain.RawArticle{}, false, fmt.Errorf("parse document: %w", err)
	}

	article, ok = ExtractArticle(doc, site, link)
	if !ok && site.ReadabilityFallback {
		article, ok = withReadability(doc, site, link, raw.Body)
	}
	return article, ok, nil
}

func (s *SelectorScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	raw, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// ListLinks returns up to limit distinct absolute http(s) links matched by
// the site's link selector, resolved against the listing URL.
func ListLinks(doc *goquery.Document, site scanner.Site, limit int) []string {
	base, err := url.Parse(site.URL)
	if err != nil {
		return nil
	}

	var links []string
	seen := map[string]struct{}{}
	doc.Find(site.LinkSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, exists := sel.Attr("href")
		if !exists {
			return true
		}
		resolved, ok := resolveLink(base, href)
		if !ok {
			return true
		}
		if _, dup := seen[resolved]; dup {
			return true
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
		return limit <= 0 || len(links) < limit
	})

	return links
}

// ExtractArticle pulls title, content and date from an article page. It
// reports false when the title or content selectors match nothing.
func ExtractArticle(doc *goquery.Document, site scanner.Site, pageURL string) (domain.RawArticle, bool) {
	title := collapse(doc.Find(site.TitleSelector).First().Text())
	if title == "" {
		return domain.RawArticle{}, false
	}

	var parts []string
	doc.Find(site.ContentSelector).Each(func(_ int, sel *goquery.Selection) {
		if text := collapse(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	content := strings.Join(parts, " ")
	if content == "" {
		return domain.RawArticle{}, false
	}

	return domain.RawArticle{
		Source:  site.Name,
		URL:     pageURL,
		Title:   title,
		Content: content,
		Date:    extractDate(doc, site),
	}, true
}

func withReadability(doc *goquery.Document, site scanner.Site, pageURL string, body []byte) (domain.RawArticle, bool) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return domain.RawArticle{}, false
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return domain.RawArticle{}, false
	}

	title := collapse(doc.Find(site.TitleSelector).First().Text())
	if title == "" {
		title = collapse(article.Title)
	}
	content := collapse(article.TextContent)
	if title == "" || content == "" {
		return domain.RawArticle{}, false
	}

	return domain.RawArticle{
		Source:  site.Name,
		URL:     pageURL,
		Title:   title,
		Content: content,
		Date:    extractDate(doc, site),
	}, true
}

func extractDate(doc *goquery.Document, site scanner.Site) string {
	if site.DateSelector == "" {
		return domain.NoDate
	}
	if date := collapse(doc.Find(site.DateSelector).First().Text()); date != "" {
		return date
	}
	return domain.NoDate
}

const invalidRune = "\uFFFD"

func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(strings.ToValidUTF8(href, invalidRune))
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

// collapse normalizes whitespace and replaces invalid UTF-8, which Postgres rejects.
func collapse(text string) string {
	return strings.Join(strings.Fields(strings.ToValidUTF8(text, invalidRune)), " ")
}
