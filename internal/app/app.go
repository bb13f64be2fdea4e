// Package app initializes and holds long-lived application services, acting as
// a dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/clock/system"
	"github.com/JakeFAU/catalog-crawler/internal/config"
	collyfetcher "github.com/JakeFAU/catalog-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/catalog-crawler/internal/id/uuid"
	"github.com/JakeFAU/catalog-crawler/internal/ingest"
	"github.com/JakeFAU/catalog-crawler/internal/pipeline"
	"github.com/JakeFAU/catalog-crawler/internal/storage/memory"
	"github.com/JakeFAU/catalog-crawler/internal/storage/postgres"
	"github.com/JakeFAU/catalog-crawler/internal/storage/sqlite"
	"github.com/JakeFAU/catalog-crawler/internal/store"
)

// App holds the shared services built once per command run.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    store.ItemStore
	pipeline *pipeline.Service
}

// New opens the configured store and wires the crawl pipeline. When
// store.auto_migrate is set the schema is created before returning.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	itemStore, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if cfg.Store.AutoMigrate {
		if err := Migrate(ctx, itemStore); err != nil {
			itemStore.Close()
			return nil, err
		}
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.Crawler.RequestTimeout,
	})
	ingestor := ingest.New(itemStore, uuid.New(), logger.Named("ingest"))
	svc, err := pipeline.New(pipeline.Config{
		RootURL:        cfg.Crawler.RootURL,
		StartPath:      cfg.Crawler.StartPath,
		UserAgent:      cfg.Crawler.UserAgent,
		MinInterval:    cfg.Crawler.MinInterval,
		RequestTimeout: cfg.Crawler.RequestTimeout,
		RespectRobots:  cfg.Crawler.RespectRobots,
		MaxItems:       cfg.Crawler.MaxItems,
		MaxPages:       cfg.Crawler.MaxPages,
	}, fetcher, catalog.NewListingParser(), catalog.NewExtractor(), ingestor, logger.Named("pipeline"))
	if err != nil {
		itemStore.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	logger.Info("application services initialized",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("start_url", svc.StartURL()),
		zap.Bool("respect_robots", cfg.Crawler.RespectRobots),
	)
	return &App{cfg: cfg, logger: logger, store: itemStore, pipeline: svc}, nil
}

// OpenStore builds the item store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.ItemStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		s, err := postgres.NewItemStore(ctx, postgres.Config{DSN: cfg.DSN, Table: cfg.Table, MaxConns: cfg.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.NewItemStore(cfg.DSN, system.New())
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		return memory.NewItemStore(system.New()), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Migrate bootstraps the schema of stores that support it.
func Migrate(ctx context.Context, s store.ItemStore) error {
	m, ok := s.(store.Migrator)
	if !ok {
		return errors.New("store does not support migrations")
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}
	return nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store exposes the item store.
func (a *App) Store() store.ItemStore {
	return a.store
}

// Pipeline returns the crawl-and-ingest service.
func (a *App) Pipeline() *pipeline.Service {
	return a.pipeline
}

// Ping checks the store when it supports connectivity checks.
func (a *App) Ping(ctx context.Context) error {
	if p, ok := a.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the store. It is called by a Cobra hook after the command finishes.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	a.store.Close()
}
