// Package fetcher performs bounded HTTP GETs against news sites.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent mimics a desktop browser; several sources reject bot agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	maxHTMLBodyBytes = 2 << 20 // 2 MiB
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindTimeout    Kind = "timeout"
	KindNetwork    Kind = "network"
	KindHTTPStatus Kind = "http_status"
)

var (
	ErrTimeout    = errors.New("fetch timed out")
	ErrNetwork    = errors.New("fetch network failure")
	ErrHTTPStatus = errors.New("fetch returned non-2xx status")
)

// FetchError is returned for every failed fetch.
type FetchError struct {
	Kind   Kind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels.
func (e *FetchError) Is(target error) bool {
	switch e.Kind {
	case KindTimeout:
		return target == ErrTimeout
	case KindNetwork:
		return target == ErrNetwork
	case KindHTTPStatus:
		return target == ErrHTTPStatus
	}
	return false
}

// Document is a fetched page.
type Document struct {
	URL  string
	Body []byte
}

// Fetcher retrieves raw documents.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Document, error)
}

// RestyFetcher implements Fetcher over a resty client.
type RestyFetcher struct {
	client *resty.Client
}

var _ Fetcher = (*RestyFetcher)(nil)

// New builds a fetcher with the given timeout and user agent; zero values use defaults.
func New(timeout time.Duration, userAgent string) *RestyFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")

	return &RestyFetcher{client: client}
}

// Fetch issues a GET and classifies any failure. The body is streamed and
// read up to maxHTMLBodyBytes; anything past that is never read.
func (f *RestyFetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, classify(url, err)
	}
	raw := resp.RawBody()
	if raw != nil {
		defer raw.Close()
	}

	if !resp.IsSuccess() {
		return nil, &FetchError{
			Kind:   KindHTTPStatus,
			URL:    url,
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("status %d", resp.StatusCode()),
		}
	}

	var body []byte
	if raw != nil {
		body, err = io.ReadAll(io.LimitReader(raw, maxHTMLBodyBytes))
		if err != nil {
			return nil, classify(url, err)
		}
	}

	final := url
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		final = resp.RawResponse.Request.URL.String()
	}

	return &Document{URL: final, Body: body}, nil
}

func classify(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, URL: url, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, URL: url, Err: err}
	}
	return &FetchError{Kind: KindNetwork, URL: url, Err: err}
}
