// Package app builds the long-lived services of an enrichment run from
// configuration and owns their shutdown.
package app

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/company-enricher/internal/api"
	"github.com/JakeFAU/company-enricher/internal/checkpoint"
	"github.com/JakeFAU/company-enricher/internal/clock/system"
	"github.com/JakeFAU/company-enricher/internal/config"
	"github.com/JakeFAU/company-enricher/internal/enricher"
	"github.com/JakeFAU/company-enricher/internal/extractor"
	collyfetcher "github.com/JakeFAU/company-enricher/internal/fetcher/colly"
	"github.com/JakeFAU/company-enricher/internal/fetcher/headless"
	"github.com/JakeFAU/company-enricher/internal/id/uuid"
	"github.com/JakeFAU/company-enricher/internal/llm"
	"github.com/JakeFAU/company-enricher/internal/logging"
	"github.com/JakeFAU/company-enricher/internal/metrics"
	"github.com/JakeFAU/company-enricher/internal/orchestrator"
	pubsubpublisher "github.com/JakeFAU/company-enricher/internal/publisher/pubsub"
	"github.com/JakeFAU/company-enricher/internal/storage/memory"
	"github.com/JakeFAU/company-enricher/internal/storage/postgres"
	"github.com/JakeFAU/company-enricher/internal/worker"
)

// App holds the services wired for one run.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	// Server is nil when server.port is 0.
	Server *api.Server
	Sink   enricher.SummarySink

	cfg     config.Config
	logger  *zap.Logger
	closers []func() error
}

// New wires every component selected by cfg. It fails fast: on error, anything
// already opened is closed before returning.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *App, err error) {
	logger = logging.OrNop(logger)
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()
	metrics.Init()

	var pool *pgxpool.Pool
	if cfg.UsesDatabase() {
		pool, err = postgres.NewPool(ctx, postgres.PoolConfig{DSN: cfg.DB.DSN, MaxConns: cfg.DB.MaxConns})
		if err != nil {
			return nil, err
		}
		a.addCloser(func() error { pool.Close(); return nil })
	}

	roster, err := a.buildRoster(pool)
	if err != nil {
		return nil, err
	}
	sink, err := a.buildSink(pool)
	if err != nil {
		return nil, err
	}
	store, err := a.buildCheckpoint(ctx)
	if err != nil {
		return nil, err
	}
	notifier, err := a.buildNotifier(ctx)
	if err != nil {
		return nil, err
	}
	fetcher, err := a.buildFetcher()
	if err != nil {
		return nil, err
	}
	gen, err := a.buildGenerator(ctx)
	if err != nil {
		return nil, err
	}
	ext, err := extractor.New(gen, extractor.Config{
		MaxContentChars: cfg.Extractor.MaxContentChars,
		StripHTML:       cfg.Extractor.StripHTML,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build extractor: %w", err)
	}

	clock := system.New()
	w, err := worker.New(fetcher, ext, clock, worker.Config{
		MaxRetries: cfg.Run.MaxRetries,
		RetryDelay: cfg.Run.RetryDelay,
	}, logger.Named("worker"))
	if err != nil {
		return nil, fmt.Errorf("build worker: %w", err)
	}

	deps := orchestrator.Deps{
		Roster:     roster,
		Processor:  w,
		Sink:       sink,
		Checkpoint: store,
		Clock:      clock,
		IDs:        uuid.New(),
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	orch, err := orchestrator.New(deps, orchestrator.Config{
		BatchSize: cfg.Run.BatchSize,
		Window:    cfg.Run.RateWindow,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}

	a.Orchestrator = orch
	a.Sink = sink
	if cfg.Server.Port > 0 {
		a.Server = api.NewServer(orch, logger.Named("api"))
	}
	return a, nil
}

// Run executes one enrichment pass. The status server, when configured, lives
// exactly as long as the run.
func (a *App) Run(ctx context.Context) (enricher.RunSummary, error) {
	if a.Server == nil {
		return a.Orchestrator.Run(ctx)
	}
	srvCtx, cancel := context.WithCancel(ctx)
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- a.Server.ListenAndServe(srvCtx, fmt.Sprintf(":%d", a.cfg.Server.Port))
	}()

	summary, err := a.Orchestrator.Run(ctx)
	cancel()
	if serr := <-srvErr; serr != nil {
		a.logger.Warn("status server stopped with error", zap.Error(serr))
	}
	return summary, err
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("error closing service", zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *App) addCloser(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *App) buildRoster(pool *pgxpool.Pool) (enricher.RosterSource, error) {
	switch a.cfg.Roster.Provider {
	case "postgres":
		if pool == nil {
			return nil, errors.New("roster.provider postgres requires db.dsn")
		}
		a.logger.Info("using postgres roster", zap.String("table", a.cfg.Roster.Table))
		roster, err := postgres.NewRosterStore(pool, a.cfg.Roster.Table)
		if err != nil {
			return nil, fmt.Errorf("build roster: %w", err)
		}
		return roster, nil
	case "static":
		a.logger.Info("using built-in static roster", zap.Int("companies", len(memory.StaticWebsites)))
		return memory.NewStaticRoster(memory.StaticWebsites), nil
	case "memory":
		companies := make([]enricher.Company, 0, len(a.cfg.Roster.Companies))
		for _, c := range a.cfg.Roster.Companies {
			companies = append(companies, enricher.Company{ID: c.ID, Website: c.Website})
		}
		a.logger.Info("using configured roster", zap.Int("companies", len(companies)))
		return memory.NewRoster(companies), nil
	default:
		return nil, fmt.Errorf("unknown roster provider: %s", a.cfg.Roster.Provider)
	}
}

func (a *App) buildSink(pool *pgxpool.Pool) (enricher.SummarySink, error) {
	if pool == nil {
		a.logger.Warn("db.dsn not set; summary rows are kept in memory and discarded at exit")
		return memory.NewSummaryStore(), nil
	}
	sink, err := postgres.NewSummaryStore(pool, a.cfg.DB.SummaryTable)
	if err != nil {
		return nil, fmt.Errorf("build summary store: %w", err)
	}
	return sink, nil
}

func (a *App) buildCheckpoint(ctx context.Context) (enricher.CheckpointStore, error) {
	switch a.cfg.Checkpoint.Provider {
	case "file":
		store, err := checkpoint.NewFileStore(a.cfg.Checkpoint.Path)
		if err != nil {
			return nil, err
		}
		a.logger.Info("using file checkpoint", zap.String("path", store.Path()))
		return store, nil
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		a.addCloser(client.Close)
		store, err := checkpoint.NewGCSStore(client, checkpoint.GCSConfig{
			Bucket: a.cfg.Checkpoint.GCSBucket,
			Object: a.cfg.Checkpoint.GCSObject,
		})
		if err != nil {
			return nil, err
		}
		a.logger.Info("using gcs checkpoint", zap.String("uri", store.URI()))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown checkpoint provider: %s", a.cfg.Checkpoint.Provider)
	}
}

func (a *App) buildNotifier(ctx context.Context) (enricher.Notifier, error) {
	if a.cfg.PubSub.TopicName == "" {
		return nil, nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	a.addCloser(client.Close)
	pub, err := pubsubpublisher.New(client, a.cfg.PubSub.TopicName)
	if err != nil {
		return nil, err
	}
	a.addCloser(func() error { pub.Close(); return nil })
	a.logger.Info("publishing enriched events", zap.String("topic", a.cfg.PubSub.TopicName))
	return pub, nil
}

func (a *App) buildFetcher() (enricher.Fetcher, error) {
	switch a.cfg.Fetch.Mode {
	case "colly":
		return collyfetcher.New(collyfetcher.Config{
			UserAgent:     a.cfg.Fetch.UserAgent,
			RespectRobots: a.cfg.Fetch.RespectRobots,
			Timeout:       a.cfg.Fetch.Timeout,
		}, a.logger.Named("fetcher")), nil
	case "headless":
		f, err := headless.NewChromedp(headless.Config{
			MaxParallel:       a.cfg.Run.BatchSize,
			UserAgent:         a.cfg.Fetch.UserAgent,
			NavigationTimeout: a.cfg.Fetch.HeadlessTimeout,
		}, a.logger.Named("headless"))
		if err != nil {
			return nil, fmt.Errorf("build headless fetcher: %w", err)
		}
		a.addCloser(func() error { f.Close(); return nil })
		return f, nil
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s", a.cfg.Fetch.Mode)
	}
}

func (a *App) buildGenerator(ctx context.Context) (llm.Generator, error) {
	switch a.cfg.Extractor.Backend {
	case "rest":
		client, err := llm.NewRESTClient(llm.RESTConfig{
			BaseURL: a.cfg.Extractor.BaseURL,
			Model:   a.cfg.Extractor.Model,
			APIKey:  a.cfg.Extractor.APIKey,
			Timeout: a.cfg.Extractor.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("build rest model client: %w", err)
		}
		return client, nil
	case "genai":
		client, err := llm.NewGenAIClient(ctx, llm.GenAIConfig{
			Model:  a.cfg.Extractor.Model,
			APIKey: a.cfg.Extractor.APIKey,
		})
		if err != nil {
			return nil, err
		}
		a.addCloser(client.Close)
		return client, nil
	default:
		return nil, fmt.Errorf("unknown extractor backend: %s", a.cfg.Extractor.Backend)
	}
}
