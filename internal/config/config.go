// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for all optional settings
//  2. Config File: The YAML file passed to Load
//  3. Environment Variables: A fixed allow-list of overrides
//
// database.path and model_store.path have no defaults. They must be set in
// the config file or through DUCKDB_PATH / MODEL_STORE_PATH.
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	ModelStore ModelStoreConfig `koanf:"model_store"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Refit      RefitConfig      `koanf:"refit"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// DatabaseConfig holds DuckDB catalog settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // Number of DuckDB threads (0 = use NumCPU)
}

// ModelStoreConfig holds the BadgerDB model snapshot store settings.
type ModelStoreConfig struct {
	Path string `koanf:"path"`

	// KeepVersions is how many snapshots survive pruning after a refit.
	KeepVersions int `koanf:"keep_versions"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// Per-IP request limit applied by httprate.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// RefitsPerMinute and RefitBurst throttle POST /model/refit.
	RefitsPerMinute float64 `koanf:"refits_per_minute"`
	RefitBurst      int     `koanf:"refit_burst"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds ranking engine settings.
type RecommendConfig struct {
	DefaultK       int           `koanf:"default_k"`
	MaxK           int           `koanf:"max_k"`
	MaxCandidates  int           `koanf:"max_candidates"`
	ScoreTimeout   time.Duration `koanf:"score_timeout"`
	MaxConcurrency int           `koanf:"max_concurrency"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig holds the scorer circuit breaker settings.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// RefitConfig holds background model refit settings.
type RefitConfig struct {
	Enabled         bool          `koanf:"enabled"`
	OnStartup       bool          `koanf:"on_startup"`
	Interval        time.Duration `koanf:"interval"`
	MinInteractions int           `koanf:"min_interactions"`
	Timeout         time.Duration `koanf:"timeout"`

	ALS ALSConfig `koanf:"als"`
}

// ALSConfig holds ALS hyper-parameters.
type ALSConfig struct {
	Factors        int     `koanf:"factors"`
	Iterations     int     `koanf:"iterations"`
	Regularization float64 `koanf:"regularization"`
	Alpha          float64 `koanf:"alpha"`
	MinConfidence  float64 `koanf:"min_confidence"`
	NumWorkers     int     `koanf:"num_workers"` // 0 = use runtime.NumCPU()
}

// SupervisorConfig holds suture tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
