// Package refresh drives one ingestion run: it lists the active sources,
// fetches them in bounded batches, stores new articles, records a job per
// source, purges expired articles and stamps the last-refresh marker.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/observability/logging"
	"feed-ingest/internal/observability/metrics"
	"feed-ingest/internal/observability/tracing"
	"feed-ingest/internal/repository"
	"feed-ingest/internal/usecase/jobs"
	"feed-ingest/internal/usecase/retention"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// LastRefreshKey is the metadata key holding the RFC3339Nano time of the last run.
const LastRefreshKey = "last_refresh_at"

// FeedParser downloads a feed and returns its entries in document order.
type FeedParser interface {
	FetchFeed(ctx context.Context, feedURL string) ([]entity.FeedEntry, error)
}

// ContentEnricher fetches the full body of an article page.
type ContentEnricher interface {
	Enrich(ctx context.Context, articleURL string) (string, error)
}

// Config controls batching and retention.
type Config struct {
	// BatchSize is the number of sources fetched concurrently.
	BatchSize int
	// FetchTimeout bounds each feed download. Store writes are not bounded by it.
	FetchTimeout time.Duration
	// RetentionDays is the age in days beyond which articles are deleted.
	RetentionDays int
}

// DefaultConfig returns K=3, a 10s fetch timeout and 90 days of retention.
func DefaultConfig() Config {
	return Config{
		BatchSize:     3,
		FetchTimeout:  10 * time.Second,
		RetentionDays: retention.DefaultRetentionDays,
	}
}

// Deps are the collaborators of the Service. Enricher may be nil.
type Deps struct {
	Sources  repository.SourceRepository
	Articles repository.ArticleRepository
	Metadata repository.MetadataRepository
	Jobs     repository.JobRepository
	Parser   FeedParser
	Enricher ContentEnricher
}

// Service implements RefreshFeeds.
type Service struct {
	sources  repository.SourceRepository
	articles repository.ArticleRepository
	metadata repository.MetadataRepository
	parser   FeedParser
	enricher ContentEnricher
	tracker  *jobs.Tracker
	cleaner  *retention.Cleaner

	cfg      Config
	now      func() time.Time
	newRunID func() string
}

// NewService wires a Service. Zero config fields take their defaults.
func NewService(d Deps, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = def.RetentionDays
	}

	s := &Service{
		sources:  d.Sources,
		articles: d.Articles,
		metadata: d.Metadata,
		parser:   d.Parser,
		enricher: d.Enricher,
		tracker:  jobs.NewTracker(d.Jobs),
		cleaner:  retention.NewCleaner(d.Articles),
		cfg:      cfg,
		newRunID: uuid.NewString,
	}
	s.WithClock(time.Now)
	return s
}

// WithClock replaces the time source of the service and its helpers.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.tracker.WithClock(now)
	s.cleaner.WithClock(now)
	return s
}

// RefreshFeeds runs one ingestion pass. Individual source failures are
// reported in the summary; only an unavailable store, a failed source
// listing or a failed marker write are returned as errors.
func (s *Service) RefreshFeeds(ctx context.Context) (*entity.RefreshSummary, error) {
	wallStart := time.Now()
	runID := s.newRunID()

	logger := logging.WithRunID(logging.FromContext(ctx), runID)
	ctx = logging.WithLogger(ctx, logger)
	ctx, span := tracing.StartSpan(ctx, "refresh.RefreshFeeds", attribute.String("run.id", runID))
	defer span.End()

	status := "aborted"
	defer func() { metrics.RecordRefreshRun(status, time.Since(wallStart)) }()

	summary := &entity.RefreshSummary{
		RunID:     runID,
		StartedAt: s.now().UTC(),
		Results:   []entity.SourceResult{},
	}

	srcs, err := s.sources.ListActive(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("list active sources: %w", err)
	}
	logger.Info("refresh started",
		slog.Int("sources", len(srcs)),
		slog.Int("batch_size", s.cfg.BatchSize))

	results := make([]entity.SourceResult, len(srcs))
	for start := 0; start < len(srcs); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(srcs))

		// 全件の完了を待ってから次のバッチへ進む
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := s.refreshSource(ctx, runID, srcs[i])
				results[i] = res
				return err
			})
		}
		if err := g.Wait(); err != nil {
			tracing.RecordError(span, err)
			logger.Error("refresh aborted", slog.Any("error", err))
			return nil, fmt.Errorf("%w: %w", ErrRunAborted, err)
		}
	}
	for _, r := range results {
		summary.Add(r)
	}

	deleted, err := s.cleaner.DeleteArticlesOlderThan(ctx, s.cfg.RetentionDays)
	if err != nil {
		if isStoreUnavailable(err) {
			tracing.RecordError(span, err)
			return nil, fmt.Errorf("%w: %w", ErrRunAborted, err)
		}
		logger.Warn("retention cleanup failed", slog.Any("error", err))
	}
	summary.DeletedArticles = deleted

	if err := s.metadata.Set(ctx, LastRefreshKey, s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		tracing.RecordError(span, err)
		summary.ElapsedMs = time.Since(wallStart).Milliseconds()
		logger.Error("failed to record last refresh time", slog.Any("error", err))
		return summary, fmt.Errorf("set %s: %w", LastRefreshKey, err)
	}

	summary.ElapsedMs = time.Since(wallStart).Milliseconds()
	status = "success"
	span.SetAttributes(
		attribute.Int("refresh.total", summary.Total),
		attribute.Int("refresh.failed", summary.Failed),
		attribute.Int("refresh.new_articles", summary.TotalNewArticles),
	)
	logger.Info("refresh completed",
		slog.Int("total", summary.Total),
		slog.Int("successful", summary.Successful),
		slog.Int("failed", summary.Failed),
		slog.Int("new_articles", summary.TotalNewArticles),
		slog.Int64("deleted_articles", summary.DeletedArticles),
		slog.Int64("elapsed_ms", summary.ElapsedMs))

	return summary, nil
}
