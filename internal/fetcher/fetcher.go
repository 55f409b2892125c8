// Package fetcher downloads documentation pages and extracts their
// readable text.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"ragify/internal/chunker"
	"ragify/internal/logger"
)

// Default configuration values.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultDelay     = 500 * time.Millisecond
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultTitle     = "API Documentation"

	maxBodyBytes = 5 << 20
	minFragment  = 10
)

const (
	noiseSelector   = "script, style, nav, footer, header"
	mainSelector    = `main, article, .content, .documentation, [role="main"]`
	contentSelector = "p, h1, h2, h3, h4, li, td, code, pre"
)

// Config holds fetcher settings. Zero values select the defaults.
type Config struct {
	Timeout   time.Duration
	Delay     time.Duration
	UserAgent string
}

// Fetcher retrieves pages over a shared HTTP client.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// New creates a fetcher with the given configuration.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Fetch downloads a single page. Any network, HTTP or parse problem is
// reported as a Failure rather than an error.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) RawDocument {
	logger.Info("Fetching: %s", pageURL)

	doc, err := f.get(ctx, pageURL)
	if err != nil {
		logger.Error("fetch %s: %v", pageURL, err)
		return Failure{URL: pageURL, Message: err.Error()}
	}

	doc.Find(noiseSelector).Remove()

	return Page{
		URL:     pageURL,
		Title:   extractTitle(doc, pageURL),
		Content: chunker.Clean(extractContent(doc)),
		Source:  SourceLabel(pageURL),
	}
}

func (f *Fetcher) get(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// extractTitle prefers <title>, then the first <h1>, then the last URL
// path segment.
func extractTitle(doc *goquery.Document, pageURL string) string {
	if t := chunker.Clean(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t := chunker.Clean(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	if u, err := url.Parse(pageURL); err == nil {
		segments := strings.Split(u.Path, "/")
		if last := segments[len(segments)-1]; last != "" {
			return last
		}
	}
	return DefaultTitle
}

// extractContent collects text from content tags inside the main content
// container, dropping short fragments such as button labels.
func extractContent(doc *goquery.Document) string {
	root := doc.Find(mainSelector).First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		return ""
	}

	var parts []string
	root.Find(contentSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) > minFragment {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}
