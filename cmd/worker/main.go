package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feed-ingest/internal/handler/http/admin"
	pgRepo "feed-ingest/internal/infra/adapter/persistence/postgres"
	sqliteRepo "feed-ingest/internal/infra/adapter/persistence/sqlite"
	"feed-ingest/internal/infra/db"
	"feed-ingest/internal/infra/feedparser"
	"feed-ingest/internal/infra/fetcher"
	workerPkg "feed-ingest/internal/infra/worker"
	"feed-ingest/internal/observability/logging"
	"feed-ingest/internal/usecase/refresh"
	sourceUC "feed-ingest/internal/usecase/source"
)

type options struct {
	Driver      string `long:"driver" env:"DATABASE_DRIVER" default:"postgres" description:"Storage backend (postgres or sqlite)"`
	DSN         string `long:"dsn" env:"DATABASE_URL" required:"true" description:"Database connection string or SQLite file path"`
	MetricsPort int    `long:"metrics-port" env:"METRICS_PORT" default:"9090" description:"Port of the admin server (/metrics, /refresh)"`

	Once    bool   `long:"once" description:"Run a single refresh, print the summary and exit"`
	Migrate bool   `long:"migrate" description:"Apply database migrations and exit"`
	Seed    string `long:"seed" value-name:"FILE" description:"Register the sources listed in a YAML file before starting"`
	LogText bool   `long:"log-text" env:"LOG_TEXT" description:"Human-readable logs instead of JSON"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	logger := logging.NewLogger()
	if opts.LogText {
		logger = logging.NewTextLogger()
	}
	slog.SetDefault(logger)

	if err := run(opts, logger); err != nil {
		logger.Error("worker exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

type stores struct {
	refresh.Deps
	seeder *sourceUC.Service
}

func run(opts options, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver, err := db.ParseDriver(opts.Driver)
	if err != nil {
		return err
	}

	if err := db.MigrateUp(driver, opts.DSN); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if opts.Migrate {
		logger.Info("migrations applied", slog.String("driver", string(driver)))
		return nil
	}

	database, err := db.Open(ctx, driver, opts.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	st := newStores(driver, database)
	if opts.Seed != "" {
		if _, err := st.seeder.SeedFromFile(ctx, opts.Seed); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	workerMetrics := workerPkg.NewWorkerMetrics(prometheus.DefaultRegisterer)
	cfg := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Duration("crawl_timeout", cfg.CrawlTimeout),
		slog.Int("batch_size", cfg.BatchSize),
		slog.Duration("fetch_timeout", cfg.FetchTimeout),
		slog.Int("retention_days", cfg.RetentionDays),
		slog.Bool("content_enrich", cfg.ContentEnrichEnabled))

	svc := newRefreshService(st.Deps, cfg, logger)
	runner := workerPkg.NewRunner(svc.RefreshFeeds, cfg.CrawlTimeout, workerMetrics, logger)

	if opts.Once {
		return runOnce(ctx, runner)
	}

	health := workerPkg.NewHealth(logger)
	health.AddCheck("database", database.PingContext)

	adminServer := newServer(opts.MetricsPort, admin.NewRouter(admin.Deps{
		Runner:   runner,
		Health:   health,
		Metadata: st.Metadata,
		Metrics:  promhttp.Handler(),
		Logger:   logger,
	}))
	healthServer := newServer(cfg.HealthPort, admin.NewHealthRouter(health))
	serverErr := make(chan error, 2)
	for _, srv := range []*http.Server{adminServer, healthServer} {
		go func() {
			logger.Info("http server starting", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("%s: %w", srv.Addr, err)
			}
		}()
	}

	scheduler, err := workerPkg.NewScheduler(cfg, runner, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	health.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err = <-serverErr:
		logger.Error("http server failed", slog.Any("error", err))
	}

	health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	for _, srv := range []*http.Server{adminServer, healthServer} {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Error("http server shutdown failed", slog.String("addr", srv.Addr), slog.Any("error", serr))
		}
	}
	logger.Info("worker stopped")
	return err
}

func newStores(driver db.Driver, database *sql.DB) stores {
	var st stores
	switch driver {
	case db.DriverSQLite:
		st.Deps = refresh.Deps{
			Sources:  sqliteRepo.NewSourceRepo(database),
			Articles: sqliteRepo.NewArticleRepo(database),
			Metadata: sqliteRepo.NewMetadataRepo(database),
			Jobs:     sqliteRepo.NewJobRepo(database),
		}
	default:
		st.Deps = refresh.Deps{
			Sources:  pgRepo.NewSourceRepo(database),
			Articles: pgRepo.NewArticleRepo(database),
			Metadata: pgRepo.NewMetadataRepo(database),
			Jobs:     pgRepo.NewJobRepo(database),
		}
	}
	st.seeder = &sourceUC.Service{Repo: st.Sources}
	return st
}

func newRefreshService(deps refresh.Deps, cfg *workerPkg.WorkerConfig, logger *slog.Logger) *refresh.Service {
	pcfg := feedparser.DefaultConfig()
	pcfg.Timeout = cfg.FetchTimeout
	if cfg.UserAgent != "" {
		pcfg.UserAgent = cfg.UserAgent
	}
	deps.Parser = feedparser.New(createHTTPClient(cfg.FetchTimeout), pcfg)

	if cfg.ContentEnrichEnabled {
		fcfg, warnings := fetcher.LoadConfigFromEnv(cfg.UserAgent)
		for _, w := range warnings {
			logger.Warn("Configuration fallback applied", slog.String("warning", w))
		}
		deps.Enricher = fetcher.NewReadabilityEnricher(fcfg)
		logger.Info("content enrichment enabled",
			slog.Duration("timeout", fcfg.Timeout),
			slog.Bool("deny_private_ips", fcfg.DenyPrivateIPs))
	}

	return refresh.NewService(deps, refresh.Config{
		BatchSize:     cfg.BatchSize,
		FetchTimeout:  cfg.FetchTimeout,
		RetentionDays: cfg.RetentionDays,
	})
}

// runOnce serves external schedulers: one run, summary on stdout.
func runOnce(ctx context.Context, runner *workerPkg.Runner) error {
	summary, err := runner.Run(ctx, workerPkg.TriggerManual)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// createHTTPClient creates the feed client. TLS 1.2+ is enforced.
func createHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

func newServer(port int, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		// POST /refresh は同期実行なので書き込みタイムアウトは長めにとる
		WriteTimeout: 35 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}
