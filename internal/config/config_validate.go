// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateModelStore(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateRefit(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path (DUCKDB_PATH) is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database.threads must not be negative")
	}
	return nil
}

func (c *Config) validateModelStore() error {
	if strings.TrimSpace(c.ModelStore.Path) == "" {
		return fmt.Errorf("model_store.path (MODEL_STORE_PATH) is required")
	}
	if c.ModelStore.Path == c.Database.Path {
		return fmt.Errorf("model_store.path must differ from database.path")
	}
	if c.ModelStore.KeepVersions < 1 {
		return fmt.Errorf("model_store.keep_versions must be at least 1")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 {
			return fmt.Errorf("server.rate_limit_reqs must be positive")
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive")
		}
	}
	if c.Server.RefitsPerMinute <= 0 || c.Server.RefitBurst < 1 {
		return fmt.Errorf("server.refits_per_minute and server.refit_burst must be positive")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := &c.Recommend
	if r.DefaultK < 1 {
		return fmt.Errorf("recommend.default_k must be positive")
	}
	if r.MaxK < r.DefaultK {
		return fmt.Errorf("recommend.max_k (%d) must be >= recommend.default_k (%d)", r.MaxK, r.DefaultK)
	}
	if r.MaxCandidates < 1 || r.MaxConcurrency < 1 {
		return fmt.Errorf("recommend.max_candidates and recommend.max_concurrency must be positive")
	}
	if r.ScoreTimeout <= 0 {
		return fmt.Errorf("recommend.score_timeout must be positive")
	}
	if r.CacheEnabled && (r.CacheTTL <= 0 || r.CacheMaxEntries < 1) {
		return fmt.Errorf("recommend.cache_ttl and recommend.cache_max_entries must be positive when the cache is enabled")
	}
	if r.Breaker.Enabled && (r.Breaker.FailureRatio <= 0 || r.Breaker.FailureRatio > 1) {
		return fmt.Errorf("recommend.breaker.failure_ratio must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateRefit() error {
	if !c.Refit.Enabled {
		return nil
	}
	if c.Refit.Interval <= 0 {
		return fmt.Errorf("refit.interval must be positive when refit is enabled")
	}
	if c.Refit.Timeout <= 0 {
		return fmt.Errorf("refit.timeout must be positive")
	}
	if c.Refit.MinInteractions < 0 {
		return fmt.Errorf("refit.min_interactions must not be negative")
	}
	als := c.Refit.ALS
	if als.Factors < 1 || als.Iterations < 1 {
		return fmt.Errorf("refit.als.factors and refit.als.iterations must be positive")
	}
	if als.Regularization < 0 || als.Alpha <= 0 {
		return fmt.Errorf("refit.als.regularization must not be negative and refit.als.alpha must be positive")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
