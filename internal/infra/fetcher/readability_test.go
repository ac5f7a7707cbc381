package fetcher_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"feed-ingest/internal/infra/fetcher"
	"feed-ingest/internal/resilience/circuitbreaker"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
	<nav><a href="/">Home</a></nav>
	<article>
		<h1>Test Article Title</h1>
		<p>This is the first paragraph of the article content, long enough to be picked up as body text by the extractor.</p>
		<p>This is the second paragraph with more important information about the topic being discussed at length here.</p>
		<p>This is the third paragraph to ensure we have enough content for the readability scoring to select this block.</p>
	</article>
</body>
</html>`

func localConfig() fetcher.Config {
	cfg := fetcher.DefaultConfig()
	cfg.DenyPrivateIPs = false // ローカルのテストサーバーに接続するため
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestEnrich_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != fetcher.DefaultConfig().UserAgent {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	e := fetcher.NewReadabilityEnricher(localConfig())
	content, err := e.Enrich(context.Background(), server.URL+"/post")
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if !strings.Contains(content, "first paragraph") {
		t.Errorf("content missing body text: %q", content)
	}
}

func TestEnrich_InvalidURL(t *testing.T) {
	e := fetcher.NewReadabilityEnricher(localConfig())

	for _, raw := range []string{"", "not-a-url", "file:///etc/passwd", "ftp://example.com/x", "http://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := e.Enrich(context.Background(), raw)
			if !errors.Is(err, fetcher.ErrInvalidURL) {
				t.Fatalf("want ErrInvalidURL, got %v", err)
			}
		})
	}
}

func TestEnrich_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	e := fetcher.NewReadabilityEnricher(localConfig())
	_, err := e.Enrich(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "HTTP 410") {
		t.Fatalf("want HTTP 410 error, got %v", err)
	}
}

func TestEnrich_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer server.Close()

	cfg := localConfig()
	cfg.MaxBodySize = 1024
	_, err := fetcher.NewReadabilityEnricher(cfg).Enrich(context.Background(), server.URL)
	if !errors.Is(err, fetcher.ErrBodyTooLarge) {
		t.Fatalf("want ErrBodyTooLarge, got %v", err)
	}
}

func TestEnrich_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	cfg := localConfig()
	cfg.Timeout = 50 * time.Millisecond
	_, err := fetcher.NewReadabilityEnricher(cfg).Enrich(context.Background(), server.URL)
	if err == nil {
		t.Fatal("want timeout error, got nil")
	}
}

func TestEnrich_TooManyRedirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	cfg := localConfig()
	cfg.MaxRedirects = 2
	_, err := fetcher.NewReadabilityEnricher(cfg).Enrich(context.Background(), server.URL+"/r")
	if !errors.Is(err, fetcher.ErrTooManyRedirects) {
		t.Fatalf("want ErrTooManyRedirects, got %v", err)
	}
}

func TestEnrich_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	content, err := fetcher.NewReadabilityEnricher(localConfig()).Enrich(context.Background(), server.URL+"/old")
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if !strings.Contains(content, "second paragraph") {
		t.Errorf("content missing body text: %q", content)
	}
}

func TestEnrich_DenyPrivateIPs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request to loopback should have been blocked")
	}))
	defer server.Close()

	cfg := fetcher.DefaultConfig()
	cfg.Timeout = 2 * time.Second
	_, err := fetcher.NewReadabilityEnricher(cfg).Enrich(context.Background(), server.URL)
	if err == nil {
		t.Fatal("want error for loopback address, got nil")
	}
}

func TestEnrich_CircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	e := fetcher.NewReadabilityEnricher(localConfig())
	minRequests := int(circuitbreaker.ContentFetchConfig().MinRequests)

	var lastErr error
	for i := 0; i < minRequests+3; i++ {
		_, lastErr = e.Enrich(context.Background(), fmt.Sprintf("%s/p/%d", server.URL, i))
	}
	if !circuitbreaker.IsRejected(lastErr) {
		t.Fatalf("want breaker rejection, got %v", lastErr)
	}
	if got := int(hits.Load()); got != minRequests {
		t.Errorf("server hits = %d, want %d", got, minRequests)
	}
}
