// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ErrNoConfigPath is returned when Load is called without a config file path.
var ErrNoConfigPath = errors.New("config file path is required")

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by the config file and env vars.
// Storage paths are deliberately left empty.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		ModelStore: ModelStoreConfig{
			Path:         "",
			KeepVersions: 3,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			RefitsPerMinute:   2,
			RefitBurst:        1,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			DefaultK:        10,
			MaxK:            50,
			MaxCandidates:   5000,
			ScoreTimeout:    250 * time.Millisecond,
			MaxConcurrency:  16,
			CacheEnabled:    false,
			CacheTTL:        30 * time.Second,
			CacheMaxEntries: 10000,
			Breaker: BreakerConfig{
				Enabled:      true,
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				MinRequests:  20,
				FailureRatio: 0.5,
			},
		},
		Refit: RefitConfig{
			Enabled:         true,
			OnStartup:       true,
			Interval:        6 * time.Hour,
			MinInteractions: 10,
			Timeout:         10 * time.Minute,
			ALS: ALSConfig{
				Factors:        32,
				Iterations:     15,
				Regularization: 0.01,
				Alpha:          10,
				MinConfidence:  0.1,
				NumWorkers:     0,
			},
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: the YAML file at path
//  3. Environment Variables: mapped overrides only
//
// path is required. There is no search of the working directory.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoConfigPath
	}
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings is the allow-list of environment overrides.
var envMappings = map[string]string{
	// Storage
	"duckdb_path":         "database.path",
	"duckdb_max_memory":   "database.max_memory",
	"duckdb_threads":      "database.threads",
	"model_store_path":    "model_store.path",
	"model_keep_versions": "model_store.keep_versions",

	// Server
	"http_host":           "server.host",
	"http_port":           "server.port",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",
	"cors_origins":        "server.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Ranking
	"recommend_default_k":       "recommend.default_k",
	"recommend_max_k":           "recommend.max_k",
	"recommend_max_candidates":  "recommend.max_candidates",
	"recommend_score_timeout":   "recommend.score_timeout",
	"recommend_cache_enabled":   "recommend.cache_enabled",
	"recommend_breaker_enabled": "recommend.breaker.enabled",

	// Refit
	"refit_enabled":          "refit.enabled",
	"refit_on_startup":       "refit.on_startup",
	"refit_interval":         "refit.interval",
	"refit_min_interactions": "refit.min_interactions",
	"refit_als_factors":      "refit.als.factors",
	"refit_als_iterations":   "refit.als.iterations",
	"refit_als_workers":      "refit.als.num_workers",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - REFIT_INTERVAL -> refit.interval
func envTransformFunc(key string) string {
	// Unmapped keys return "" and are skipped, so unrelated environment
	// variables never reach the config.
	return envMappings[strings.ToLower(key)]
}
