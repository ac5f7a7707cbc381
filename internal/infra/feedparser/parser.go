// Package feedparser downloads RSS, Atom and JSON feeds and maps their items
// into entity.FeedEntry values. Each host gets its own circuit breaker and
// token bucket; transient HTTP failures are retried with backoff.
package feedparser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/resilience/circuitbreaker"
	"feed-ingest/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "FeedIngestBot/1.0 (+https://github.com/feed-ingest)"

const acceptHeader = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, text/xml;q=0.9, */*;q=0.8"

// Config controls fetching behaviour.
type Config struct {
	UserAgent string
	// Timeout bounds a single HTTP exchange. The caller's context usually
	// carries a tighter per-source deadline.
	Timeout     time.Duration
	MaxBodySize int64

	Retry   retry.Config
	Breaker circuitbreaker.Config

	// HostRate and HostBurst size the per-host token bucket.
	HostRate  rate.Limit
	HostBurst int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:   DefaultUserAgent,
		Timeout:     10 * time.Second,
		MaxBodySize: 10 << 20,
		Retry:       retry.FeedFetchConfig(),
		Breaker:     circuitbreaker.FeedFetchConfig(),
		HostRate:    rate.Every(500 * time.Millisecond),
		HostBurst:   3,
	}
}

// Parser implements refresh.FeedParser.
type Parser struct {
	client   *http.Client
	cfg      Config
	breakers *circuitbreaker.Registry

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Parser. A nil client gets one with cfg.Timeout.
func New(client *http.Client, cfg Config) *Parser {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}
	if cfg.HostRate == 0 {
		cfg.HostRate = rate.Inf
	}
	if cfg.HostBurst <= 0 {
		cfg.HostBurst = 1
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	// パース失敗はホスト障害ではないのでブレーカーを開かない
	bcfg := cfg.Breaker
	bcfg.IsSuccessful = func(err error) bool {
		var pe *ParseError
		return err == nil || errors.As(err, &pe)
	}

	return &Parser{
		client:   client,
		cfg:      cfg,
		breakers: circuitbreaker.NewRegistry(bcfg),
		limiters: make(map[string]*rate.Limiter),
	}
}

// FetchFeed downloads feedURL and returns its entries in document order.
// Failures are *FetchError or *ParseError.
func (p *Parser) FetchFeed(ctx context.Context, feedURL string) ([]entity.FeedEntry, error) {
	u, err := url.Parse(feedURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("invalid feed url")}
	}

	if err := p.limiter(u.Host).Wait(ctx); err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}

	breaker := p.breakers.Get(u.Host)
	var feed *gofeed.Feed

	err = retry.WithBackoff(ctx, p.cfg.Retry, func() error {
		res, err := breaker.Execute(func() (interface{}, error) {
			return p.fetchOnce(ctx, feedURL)
		})
		if err != nil {
			if circuitbreaker.IsRejected(err) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("host", u.Host),
					slog.String("feed_url", feedURL))
				return &FetchError{URL: feedURL, Err: err}
			}
			return err
		}
		feed = res.(*gofeed.Feed)
		return nil
	})
	if err != nil {
		var fe *FetchError
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, pe
		}
		if errors.As(err, &fe) {
			if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(fe.Err, ctxErr) {
				return nil, &FetchError{URL: feedURL, StatusCode: fe.StatusCode, Err: errors.Join(ctxErr, fe.Err)}
			}
			return nil, fe
		}
		return nil, &FetchError{URL: feedURL, Err: err}
	}

	return mapFeed(feed, feedURL), nil
}

// fetchOnce performs one GET and parse without retry or circuit breaker.
func (p *Parser) fetchOnce(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &FetchError{
			URL:        feedURL,
			StatusCode: resp.StatusCode,
			Err: &retry.HTTPError{
				StatusCode: resp.StatusCode,
				Message:    http.StatusText(resp.StatusCode),
				RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			},
		}
	}

	// 上限+1 まで読んで超過を検出する
	body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBodySize+1))
	if err != nil {
		return nil, &FetchError{URL: feedURL, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > p.cfg.MaxBodySize {
		return nil, &FetchError{
			URL:        feedURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response body exceeds %d bytes", p.cfg.MaxBodySize),
		}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: feedURL, Err: err}
	}
	return feed, nil
}

func (p *Parser) limiter(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[host]
	if !ok {
		l = rate.NewLimiter(p.cfg.HostRate, p.cfg.HostBurst)
		p.limiters[host] = l
	}
	return l
}

// OpenCircuits lists hosts whose breaker is currently open.
func (p *Parser) OpenCircuits() []string {
	return p.breakers.OpenKeys()
}
