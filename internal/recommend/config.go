// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"fmt"
	"time"
)

// Config contains engine configuration.
type Config struct {
	// Limits contains request bounds.
	Limits LimitsConfig `json:"limits"`

	// Cache controls the ranking result cache.
	Cache CacheConfig `json:"cache"`
}

// LimitsConfig contains request bounds.
type LimitsConfig struct {
	// DefaultK is used when a request leaves K unset.
	// Default: 10.
	DefaultK int `json:"default_k"`

	// MaxK is the largest K a request may ask for.
	// Default: 50.
	MaxK int `json:"max_k"`

	// MaxCandidates caps how many eligible items are sent to the scorer.
	// The fallback stream is not capped.
	// Default: 5000.
	MaxCandidates int `json:"max_candidates"`

	// ScoreTimeout bounds each individual scoring call.
	// Default: 250ms.
	ScoreTimeout time.Duration `json:"score_timeout"`

	// MaxConcurrency bounds concurrent scoring calls per request.
	// Default: 16.
	MaxConcurrency int `json:"max_concurrency"`
}

// CacheConfig controls the ranking result cache.
type CacheConfig struct {
	// Enabled turns the cache on.
	Enabled bool `json:"enabled"`

	// TTL bounds how stale a cached ranking may be.
	TTL time.Duration `json:"ttl"`

	// MaxEntries bounds the cache size.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			DefaultK:       10,
			MaxK:           50,
			MaxCandidates:  5000,
			ScoreTimeout:   250 * time.Millisecond,
			MaxConcurrency: 16,
		},
		Cache: CacheConfig{
			Enabled:    false,
			TTL:        30 * time.Second,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k (%d) must be >= limits.default_k (%d)", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Limits.MaxCandidates < 1 {
		return fmt.Errorf("limits.max_candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Limits.ScoreTimeout <= 0 {
		return fmt.Errorf("limits.score_timeout must be positive, got %v", c.Limits.ScoreTimeout)
	}
	if c.Limits.MaxConcurrency < 1 {
		return fmt.Errorf("limits.max_concurrency must be positive, got %d", c.Limits.MaxConcurrency)
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive when cache is enabled, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive when cache is enabled, got %d", c.Cache.MaxEntries)
		}
	}
	return nil
}
