// Package app wires configuration into stores, sources and services for
// the binaries under cmd/.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gidi_ingest/internal/config"
	"gidi_ingest/internal/domain"
	"gidi_ingest/internal/fetch"
	"gidi_ingest/internal/media"
	"gidi_ingest/internal/metrics"
	"gidi_ingest/internal/normalize"
	"gidi_ingest/internal/publisher"
	"gidi_ingest/internal/report"
	"gidi_ingest/internal/scheduler"
	"gidi_ingest/internal/service"
	"gidi_ingest/internal/source"
	"gidi_ingest/internal/storage/postgres"
)

type App struct {
	DB          *sqlx.DB
	Registry    *prometheus.Registry
	News        *service.NewsService
	Venues      *service.VenueService
	Feed        *service.FeedService
	Maintenance *service.MaintenanceService

	cfg       *config.Config
	publisher *publisher.RabbitMQ
	logger    *slog.Logger
}

// Build connects to the store and the optional event bus and report bucket,
// then assembles every service.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to database")

	a := &App{DB: db, cfg: cfg, logger: logger}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.Registry)

	deps := service.RunDeps{
		RunState: postgres.NewRunStateStore(a.DB),
		Metrics:  m,
		Logger:   logger,
	}

	if cfg.RabbitMQ.Enabled {
		pub, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		a.publisher = pub
		deps.Publisher = pub
	}

	if s3cfg := cfg.Report.S3; s3cfg.Bucket != "" {
		client, err := report.NewS3Client(ctx, report.Config{
			Bucket:    s3cfg.Bucket,
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			Prefix:    s3cfg.Prefix,
			AccessKey: cfg.Credentials.S3AccessKey,
			SecretKey: cfg.Credentials.S3SecretKey,
		})
		if err != nil {
			return fmt.Errorf("create s3 client: %w", err)
		}
		deps.Reports = report.NewS3Sink(client, s3cfg.Bucket, s3cfg.Prefix)
	}

	client := fetch.New(fetch.Config{
		Timeout:   cfg.Fetch.Timeout,
		Delay:     cfg.Fetch.Delay,
		UserAgent: cfg.Fetch.UserAgent,
	})
	srcDeps := source.Deps{Client: client, NewsAPIKey: cfg.Credentials.NewsAPIKey, Logger: logger}

	newsSources, err := source.BuildAll(cfg.News.Sources, srcDeps)
	if err != nil {
		return fmt.Errorf("news sources: %w", err)
	}
	venueSources, err := source.BuildAll(cfg.Venues.Sources, srcDeps)
	if err != nil {
		return fmt.Errorf("venue sources: %w", err)
	}

	newsPolicy, err := domain.ParseConflictPolicy(cfg.News.ConflictPolicy)
	if err != nil {
		return fmt.Errorf("news: %w", err)
	}
	venuePolicy, err := domain.ParseConflictPolicy(cfg.Venues.ConflictPolicy)
	if err != nil {
		return fmt.Errorf("venues: %w", err)
	}

	newsImages := media.NewNewsResolver(cfg.News.Fallbacks)
	venueImages := media.NewVenueResolver(cfg.Venues.Fallbacks)
	normalizer := normalize.New(normalize.Limits{
		Title:       cfg.Normalize.TitleMax,
		Summary:     cfg.Normalize.SummaryMax,
		Name:        cfg.Normalize.NameMax,
		Description: cfg.Normalize.DescriptionMax,
	}, newsImages, venueImages)

	fetchOpts := service.FetchOptions{Workers: cfg.Fetch.Workers, Timeout: cfg.Fetch.Timeout}
	articles := postgres.NewArticleStore(a.DB)
	venues := postgres.NewVenueStore(a.DB)

	a.News = service.NewNewsService(asSources(newsSources), articles, normalizer, newsPolicy, fetchOpts, deps)
	a.Venues = service.NewVenueService(asSources(venueSources), venues, normalizer, venuePolicy, fetchOpts, deps)

	var places service.PlaceSearcher
	if p := source.Places(venueSources); p != nil {
		places = p
	}
	a.Feed = service.NewFeedService(a.News, a.Venues, places, m, logger)
	a.Maintenance = service.NewMaintenanceService(
		articles,
		venues,
		postgres.NewTransactionManager(a.DB),
		newsImages,
		venueImages,
		logger,
	)
	return nil
}

// Entries returns the scheduled jobs, optionally narrowed to one by name.
func (a *App) Entries(only string) ([]scheduler.Entry, error) {
	all := []scheduler.Entry{
		{Job: a.News, Schedule: a.cfg.News.Schedule},
		{Job: a.Venues, Schedule: a.cfg.Venues.Schedule},
	}
	if only == "" {
		return all, nil
	}
	for _, e := range all {
		if e.Job.Name() == only {
			return []scheduler.Entry{e}, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown job %q", domain.ErrConfiguration, only)
}

func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close publisher", "error", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func asSources(adapters []source.Adapter) []service.Source {
	out := make([]service.Source, len(adapters))
	for i, a := range adapters {
		out[i] = a
	}
	return out
}

func SetupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
