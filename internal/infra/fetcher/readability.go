package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"feed-ingest/internal/resilience/circuitbreaker"

	"github.com/go-shiori/go-readability"
)

// ReadabilityEnricher downloads article pages and returns the main body as
// HTML. Callers sanitize the result. Safe for concurrent use.
type ReadabilityEnricher struct {
	client   *http.Client
	breakers *circuitbreaker.Registry
	cfg      Config
}

// NewReadabilityEnricher creates an enricher using NewHTTPClient(cfg).
func NewReadabilityEnricher(cfg Config) *ReadabilityEnricher {
	return NewReadabilityEnricherWithClient(NewHTTPClient(cfg), cfg)
}

// NewReadabilityEnricherWithClient uses client as is. Redirect and address
// policies are then the client's responsibility.
func NewReadabilityEnricherWithClient(client *http.Client, cfg Config) *ReadabilityEnricher {
	return &ReadabilityEnricher{
		client:   client,
		breakers: circuitbreaker.NewRegistry(circuitbreaker.ContentFetchConfig()),
		cfg:      cfg,
	}
}

// Enrich returns the readable body of the page at articleURL.
// Hosts that keep failing are skipped while their breaker is open.
func (e *ReadabilityEnricher) Enrich(ctx context.Context, articleURL string) (string, error) {
	u, err := parseURL(articleURL)
	if err != nil {
		return "", err
	}

	res, err := e.breakers.Get(u.Hostname()).Execute(func() (interface{}, error) {
		return e.fetch(ctx, u)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (e *ReadabilityEnricher) fetch(ctx context.Context, u *url.URL) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: request exceeded %v", ErrTimeout, e.cfg.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && errors.Is(urlErr.Err, ErrTooManyRedirects) {
			return "", urlErr.Err
		}
		return "", fmt.Errorf("get %s: %w", u.Redacted(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get %s: HTTP %d", u.Redacted(), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > e.cfg.MaxBodySize {
		return "", fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, e.cfg.MaxBodySize)
	}

	// リダイレクト後のURLを基準に相対リンクを解決する
	pageURL := u
	if resp.Request != nil && resp.Request.URL != nil {
		pageURL = resp.Request.URL
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadabilityFailed, err)
	}
	if article.Content == "" {
		return "", fmt.Errorf("%w: no readable content found", ErrReadabilityFailed)
	}

	slog.Debug("article content extracted",
		slog.String("url", pageURL.String()),
		slog.Int("content_length", len(article.Content)))
	return article.Content, nil
}
