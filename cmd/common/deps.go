// Package common wires the dependencies shared by all commands.
package common

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	"github.com/nordnytt/aggregator/internal/config"
	"github.com/nordnytt/aggregator/internal/dedupe"
	"github.com/nordnytt/aggregator/internal/domains"
	"github.com/nordnytt/aggregator/internal/extract"
	"github.com/nordnytt/aggregator/internal/feed"
	"github.com/nordnytt/aggregator/internal/logger"
	"github.com/nordnytt/aggregator/internal/pipeline"
	"github.com/nordnytt/aggregator/internal/robots"
	"github.com/nordnytt/aggregator/internal/store"
)

// robotsCacheTTL bounds how long a fetched robots.txt is reused per host.
const robotsCacheTTL = 24 * time.Hour

// httpClientTimeout is the outer bound on any single outbound request;
// individual components apply tighter per-call timeouts.
const httpClientTimeout = 30 * time.Second

// Deps holds the configuration and logger every command needs.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger
}

// NewCommandDeps loads configuration and builds the logger.
func NewCommandDeps() (*Deps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Environment == "dev" || cfg.App.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}

// OpenDatabase connects to PostgreSQL and ensures the articles schema.
func OpenDatabase(ctx context.Context, cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := store.NewPostgresConnection(store.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.Name,
		SSLMode:  cfg.SSLMode,
	})
	if err != nil {
		return nil, err
	}

	if err := store.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// BuildPipeline assembles the full ingestion pipeline on top of the given
// article store.
func BuildPipeline(deps *Deps, articles store.Store) *pipeline.Pipeline {
	cfg := deps.Config.Fetch
	client := &http.Client{Timeout: httpClientTimeout}

	checker := robots.NewChecker(client, cfg.UserAgent, robotsCacheTTL)

	return pipeline.New(
		domains.NewFileLoader(cfg.AllowedList, cfg.BlockedList),
		feed.NewRetriever(client, cfg.UserAgent, deps.Logger),
		extract.NewExtractor(client, checker, cfg.UserAgent, deps.Logger),
		dedupe.NewFilter(cfg.DedupeThreshold),
		articles,
		deps.Logger,
	)
}
