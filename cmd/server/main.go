// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package main is the entry point for the Cadence server.
//
// Cadence ranks catalog tracks for a listener by merging a preference
// model's scores with a genre-based fallback stream.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: YAML file plus environment overrides (koanf v2)
//  2. Catalog: DuckDB store for tracks, users and interactions
//  3. Model store: BadgerDB holding versioned model snapshots
//  4. Snapshot holder, circuit-broken scorer and ranking engine
//  5. Refitter: loads the newest persisted snapshot
//  6. Supervisor tree: refit and cache sweep services (data layer) and the
//     HTTP server (api layer)
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains for
// supervisor.shutdown_timeout, then the stores are closed.
//
// # Example Usage
//
//	./cadence -config /etc/cadence/config.yaml
//
//	CADENCE_CONFIG=/etc/cadence/config.yaml LOG_LEVEL=debug ./cadence
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/cadence/internal/api"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/database"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/recommend/algorithms"
	"github.com/tomtom215/cadence/internal/recommend/snapshot"
	"github.com/tomtom215/cadence/internal/recommend/storage"
	"github.com/tomtom215/cadence/internal/supervisor"
	"github.com/tomtom215/cadence/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	configPath := flag.String("config", os.Getenv("CADENCE_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logger := logging.Logger()

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("model_store_path", cfg.ModelStore.Path).
		Bool("refit_enabled", cfg.Refit.Enabled).
		Msg("Starting Cadence")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize catalog database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing catalog database")
		}
	}()

	modelStore, err := storage.Open(cfg.ModelStore.Path)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to open model store")
		return
	}
	defer func() {
		if err := modelStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing model store")
		}
	}()

	holder := snapshot.NewHolder()
	scorer := snapshot.NewScorer(holder, buildBreakerConfig(&cfg.Recommend.Breaker), logger)

	engine, err := recommend.NewEngine(buildEngineConfig(&cfg.Recommend), recommend.Stores{
		Catalog:      db,
		Profiles:     db,
		Interactions: db,
	}, scorer, logger)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create ranking engine")
		return
	}
	holder.OnPublish(func(*algorithms.ALSModel) {
		engine.InvalidateAll()
	})

	refitter, err := snapshot.NewRefitter(buildRefitConfig(cfg), algorithms.NewALS(buildALSConfig(&cfg.Refit.ALS)), db, modelStore, holder, logger)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create refitter")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if loaded, err := refitter.LoadLatest(ctx); err != nil {
		// rankings degrade to the fallback stream until the next refit
		logging.Warn().Err(err).Msg("Failed to load persisted model snapshot")
	} else if !loaded {
		logging.Info().Msg("No persisted model snapshot; waiting for first refit")
	}

	handler, err := api.NewHandler(engine, db, refitter, scorer, api.HandlerConfig{
		RefitsPerMinute: cfg.Server.RefitsPerMinute,
		RefitBurst:      cfg.Server.RefitBurst,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create API handler")
		return
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, buildRouterConfig(&cfg.Server)),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), buildTreeConfig(&cfg.Supervisor))
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return
	}
	tree.AddDataService(services.NewRefitService(refitter, buildRefitServiceConfig(&cfg.Refit), logger))
	if cfg.Recommend.CacheEnabled {
		sweeper, err := services.NewCacheSweepService(engine, cfg.Recommend.CacheTTL, logger)
		if err != nil {
			logging.Error().Err(err).Msg("Failed to create cache sweep service")
			return
		}
		tree.AddDataService(sweeper)
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Supervisor.ShutdownTimeout, logger))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	reportUnstopped(tree)

	logging.Info().Msg("Cadence stopped")
}
