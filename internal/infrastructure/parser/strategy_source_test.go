package parser

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/infrastructure/fetcher"
	"NewsHarvester/internal/scanner"
)

func TestStrategySourceIsolatesTimedOutSite(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	defer close(release)

	mux := http.NewServeMux()
	healthy := httptest.NewServer(mux)
	defer healthy.Close()
	mux.HandleFunc("/economy/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<h3 class="title"><a href="/story-1">one</a></h3><h3 class="title"><a href="/story-2">two</a></h3>`))
	})
	mux.HandleFunc("/story-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage("Story one", "Jan 2, 2024", "Body one.")))
	})
	mux.HandleFunc("/story-2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage("Story two", "Jan 3, 2024", "Body two.")))
	})

	slowSite := testSite(slow.URL)
	slowSite.Name = "Slow Site"
	healthySite := testSite(healthy.URL)
	healthySite.Name = "Healthy Site"

	reg, err := scanner.NewRegistry(slowSite, healthySite)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	sc := NewSelectorScanner(fetcher.New(100*time.Millisecond, ""), 10, logger)
	source := NewStrategySource(reg, sc, logger)

	articles, results := source.Harvest(context.Background())

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles from healthy site, got %d", len(articles))
	}
	for _, a := range articles {
		if a.Source != "Healthy Site" {
			t.Fatalf("unexpected source %q", a.Source)
		}
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 site results, got %d", len(results))
	}
	if !errors.Is(results[0].Err, fetcher.ErrTimeout) {
		t.Fatalf("expected timeout for slow site, got %v", results[0].Err)
	}
	if results[1].Err != nil || results[1].Articles != 2 {
		t.Fatalf("unexpected healthy result: %+v", results[1])
	}
	if !strings.Contains(logs.String(), "site scrape failed") || !strings.Contains(logs.String(), "Slow Site") {
		t.Fatalf("expected failure log for slow site, got:\n%s", logs.String())
	}
}

type panickyScanner struct{}

func (panickyScanner) Scan(_ context.Context, site scanner.Site) ([]domain.RawArticle, domain.SiteResult, error) {
	if site.Name == "boom" {
		panic("selector engine exploded")
	}
	return []domain.RawArticle{{URL: "https://ok.example.com/1", Title: "t", Content: "c"}}, domain.SiteResult{}, nil
}

func TestStrategySourceRecoversFromPanics(t *testing.T) {
	t.Parallel()

	boom := testSite("https://boom.example.com")
	boom.Name = "boom"
	ok := testSite("https://ok.example.com")
	ok.Name = "ok"
	reg, err := scanner.NewRegistry(boom, ok)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	articles, results := NewStrategySource(reg, panickyScanner{}, nil).Harvest(context.Background())

	if len(articles) != 1 || articles[0].Source != "ok" {
		t.Fatalf("unexpected articles: %+v", articles)
	}
	if results[0].Err == nil || results[1].Err != nil {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestStrategySourceMalformedListingContributesNothing(t *testing.T) {
	t.Parallel()

	base := "https://news.example.com"
	broken := testSite("https://broken.example.com")
	broken.Name = "broken"
	good := testSite(base)
	good.Name = "good"

	f := &stubFetcher{pages: map[string]string{
		broken.URL:  `<html><body><p>redesigned homepage</p></body></html>`,
		good.URL:    `<h3 class="title"><a href="/x">x</a></h3>`,
		base + "/x": articlePage("X", "", "X body."),
	}}
	reg, err := scanner.NewRegistry(broken, good)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	articles, results := NewStrategySource(reg, NewSelectorScanner(f, 10, nil), nil).Harvest(context.Background())

	if len(articles) != 1 || articles[0].Source != "good" {
		t.Fatalf("unexpected articles: %+v", articles)
	}
	if results[0].Err != nil || !results[0].Empty() {
		t.Fatalf("malformed listing should be empty without error: %+v", results[0])
	}
}
