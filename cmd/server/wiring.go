// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cadence/internal/api"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/recommend/algorithms"
	"github.com/tomtom215/cadence/internal/recommend/snapshot"
	"github.com/tomtom215/cadence/internal/supervisor"
	"github.com/tomtom215/cadence/internal/supervisor/services"
)

const modelName = "als"

func buildEngineConfig(cfg *config.RecommendConfig) *recommend.Config {
	return &recommend.Config{
		Limits: recommend.LimitsConfig{
			DefaultK:       cfg.DefaultK,
			MaxK:           cfg.MaxK,
			MaxCandidates:  cfg.MaxCandidates,
			ScoreTimeout:   cfg.ScoreTimeout,
			MaxConcurrency: cfg.MaxConcurrency,
		},
		Cache: recommend.CacheConfig{
			Enabled:    cfg.CacheEnabled,
			TTL:        cfg.CacheTTL,
			MaxEntries: cfg.CacheMaxEntries,
		},
	}
}

func buildBreakerConfig(cfg *config.BreakerConfig) snapshot.BreakerConfig {
	return snapshot.BreakerConfig{
		Enabled:      cfg.Enabled,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		MinRequests:  cfg.MinRequests,
		FailureRatio: cfg.FailureRatio,
	}
}

func buildALSConfig(cfg *config.ALSConfig) algorithms.ALSConfig {
	return algorithms.ALSConfig{
		NumFactors:     cfg.Factors,
		NumIterations:  cfg.Iterations,
		Regularization: cfg.Regularization,
		Alpha:          cfg.Alpha,
		MinConfidence:  cfg.MinConfidence,
		NumWorkers:     cfg.NumWorkers,
	}
}

func buildRefitConfig(cfg *config.Config) snapshot.RefitConfig {
	return snapshot.RefitConfig{
		ModelName:       modelName,
		MinInteractions: cfg.Refit.MinInteractions,
		KeepVersions:    cfg.ModelStore.KeepVersions,
		Timeout:         cfg.Refit.Timeout,
	}
}

// buildRefitServiceConfig maps refit.enabled=false to a service that only
// answers manual triggers.
func buildRefitServiceConfig(cfg *config.RefitConfig) services.RefitServiceConfig {
	if !cfg.Enabled {
		return services.RefitServiceConfig{}
	}
	return services.RefitServiceConfig{
		OnStartup: cfg.OnStartup,
		Interval:  cfg.Interval,
	}
}

func buildTreeConfig(cfg *config.SupervisorConfig) supervisor.TreeConfig {
	return supervisor.TreeConfig{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		ShutdownTimeout:  cfg.ShutdownTimeout,
	}
}

func buildRouterConfig(cfg *config.ServerConfig) *api.RouterConfig {
	rc := api.DefaultRouterConfig()
	rc.CORSAllowedOrigins = cfg.CORSOrigins
	rc.RateLimitRequests = cfg.RateLimitReqs
	rc.RateLimitWindow = cfg.RateLimitWindow
	rc.RateLimitDisabled = cfg.RateLimitDisabled
	return rc
}

type unstoppedReporter interface {
	UnstoppedServiceReport() ([]suture.UnstoppedService, error)
}

// reportUnstopped logs services that outlived the shutdown timeout and
// returns how many there were.
func reportUnstopped(r unstoppedReporter) int {
	unstopped, err := r.UnstoppedServiceReport()
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to collect unstopped service report")
	}
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return len(unstopped)
}
