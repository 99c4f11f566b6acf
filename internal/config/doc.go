// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package config provides configuration loading and validation for Cadence.

Configuration is layered with Koanf v2: built-in defaults, then the YAML file
named on the command line, then a fixed allow-list of environment variables.
The config file path is always explicit; nothing is looked up relative to the
working directory.

# Sections

  - database: DuckDB catalog (path, max_memory, threads)
  - model_store: BadgerDB snapshot store (path, keep_versions)
  - server: HTTP listener, timeouts, rate limits, CORS origins
  - logging: level, format, caller
  - recommend: ranking limits, result cache, scorer circuit breaker
  - refit: background ALS refit schedule and hyper-parameters
  - supervisor: suture failure handling and shutdown timeout

# Environment Variables

Storage:
  - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS
  - MODEL_STORE_PATH, MODEL_KEEP_VERSIONS

Server:
  - HTTP_HOST, HTTP_PORT
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - CORS_ORIGINS (comma-separated)

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Ranking and refit:
  - RECOMMEND_DEFAULT_K, RECOMMEND_MAX_K, RECOMMEND_MAX_CANDIDATES
  - RECOMMEND_SCORE_TIMEOUT, RECOMMEND_CACHE_ENABLED, RECOMMEND_BREAKER_ENABLED
  - REFIT_ENABLED, REFIT_ON_STARTUP, REFIT_INTERVAL, REFIT_MIN_INTERACTIONS
  - REFIT_ALS_FACTORS, REFIT_ALS_ITERATIONS, REFIT_ALS_WORKERS

Any other environment variable is ignored.

# Example

	cfg, err := config.Load("/etc/cadence/config.yaml")
	if err != nil {
	    return err
	}
	db, err := database.New(&cfg.Database)
*/
package config
