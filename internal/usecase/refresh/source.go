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
	"feed-ingest/internal/usecase/extract"
	"feed-ingest/internal/usecase/jobs"

	"go.opentelemetry.io/otel/attribute"
)

// refreshSource fetches and stores one source. The returned error is
// non-nil only when the store is unavailable and the run must stop.
func (s *Service) refreshSource(ctx context.Context, runID string, src *entity.Source) (res entity.SourceResult, fatal error) {
	start := time.Now()
	res = entity.SourceResult{SourceID: src.ID, SourceName: src.Name}
	defer func() { res.ElapsedMs = time.Since(start).Milliseconds() }()

	done := metrics.TrackInFlight()
	defer done()

	logger := logging.WithSource(logging.FromContext(ctx), src.ID, src.Name)
	ctx, span := tracing.StartSpan(ctx, "refresh.source",
		attribute.Int64("source.id", src.ID),
		attribute.String("source.feed_url", src.FeedURL))
	defer span.End()

	handle, err := s.tracker.Open(ctx, runID, src.ID)
	if err != nil {
		res.Error = err.Error()
		tracing.RecordError(span, err)
		if isStoreUnavailable(err) {
			return res, fmt.Errorf("source %d: %w", src.ID, err)
		}
		logger.Error("failed to open feed job", slog.Any("error", err))
		return res, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	fetchStart := time.Now()
	entries, err := s.parser.FetchFeed(fetchCtx, src.FeedURL)
	cancel()
	metrics.RecordFetchDuration(src.ID, time.Since(fetchStart))

	if err != nil {
		res.Error = err.Error()
		tracing.RecordError(span, err)
		metrics.RecordFetchError(src.ID, errorKind(err))
		logger.Warn("failed to fetch feed",
			slog.String("feed_url", src.FeedURL),
			slog.Any("error", err))
		if ferr := handle.Fail(ctx, err.Error()); ferr != nil {
			if isStoreUnavailable(ferr) {
				return res, fmt.Errorf("source %d: %w", src.ID, ferr)
			}
			logger.Error("failed to record job failure", slog.Any("error", ferr))
		}
		return res, nil
	}

	found, added, err := s.storeEntries(ctx, src, entries, logger)
	if err != nil {
		// ストアが落ちている。ジョブの失敗記録は可能な範囲で行う
		res.Error = err.Error()
		tracing.RecordError(span, err)
		metrics.RecordFetchError(src.ID, metrics.ErrorKindStore)
		s.failBestEffort(ctx, handle, err, logger)
		return res, fmt.Errorf("source %d: %w", src.ID, err)
	}

	if err := handle.Complete(ctx, found, added); err != nil {
		if isStoreUnavailable(err) {
			res.Error = err.Error()
			s.failBestEffort(ctx, handle, err, logger)
			return res, fmt.Errorf("source %d: %w", src.ID, err)
		}
		// 記事は保存済み。ジョブを FAILED で閉じ、次回の実行で取り直す
		res.Error = fmt.Sprintf("record job completion: %v", err)
		res.ArticlesFound = found
		res.NewArticles = added
		tracing.RecordError(span, err)
		logger.Error("failed to complete feed job", slog.Any("error", err))
		s.failBestEffort(ctx, handle, err, logger)
		return res, nil
	}

	if err := s.sources.MarkFetched(ctx, src.ID, s.now().UTC()); err != nil {
		if isStoreUnavailable(err) {
			res.Error = err.Error()
			return res, fmt.Errorf("source %d: %w", src.ID, err)
		}
		logger.Error("failed to mark source fetched", slog.Any("error", err))
	}

	res.Success = true
	res.ArticlesFound = found
	res.NewArticles = added
	span.SetAttributes(attribute.Int("articles.found", found), attribute.Int("articles.added", added))
	logger.Info("source refreshed",
		slog.Int("articles_found", found),
		slog.Int("articles_added", added),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// storeEntries upserts entries in document order. Per-article errors other
// than an unavailable store are logged and skipped.
func (s *Service) storeEntries(ctx context.Context, src *entity.Source, entries []entity.FeedEntry, logger *slog.Logger) (found, added int, err error) {
	now := s.now()
	for _, entry := range entries {
		x := extract.Extract(entry, now)
		if x.Content == nil && s.enricher != nil {
			x.Content = s.enrich(ctx, x.URL, logger)
		}

		found++
		outcome, err := s.articles.UpsertByURL(ctx, x.Article(src))
		if err != nil {
			metrics.RecordUpsert("error")
			if isStoreUnavailable(err) {
				return found, added, err
			}
			logger.Warn("article upsert failed, skipping",
				slog.String("url", x.URL),
				slog.Any("error", err))
			continue
		}
		metrics.RecordUpsert(outcome.String())
		if outcome == entity.Inserted {
			added++
		}
	}
	return found, added, nil
}

func (s *Service) enrich(ctx context.Context, articleURL string, logger *slog.Logger) *string {
	ectx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	body, err := s.enricher.Enrich(ectx, articleURL)
	if err != nil {
		logger.Debug("content enrichment failed",
			slog.String("url", articleURL),
			slog.Any("error", err))
		return nil
	}
	if c := extract.SanitizeHTML(body); c != "" {
		return &c
	}
	return nil
}

func (s *Service) failBestEffort(ctx context.Context, handle *jobs.Handle, cause error, logger *slog.Logger) {
	if err := handle.Fail(context.WithoutCancel(ctx), cause.Error()); err != nil {
		logger.Warn("could not record job failure", slog.Any("error", err))
	}
}
