// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// CacheSweeper drops expired cache entries. Satisfied by *recommend.Engine.
type CacheSweeper interface {
	SweepCache() int
}

// CacheSweepService periodically removes expired rankings so they stop
// occupying cache capacity.
type CacheSweepService struct {
	sweeper  CacheSweeper
	interval time.Duration
	logger   zerolog.Logger
}

// NewCacheSweepService creates a sweep service. interval must be positive.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCacheSweepService(sweeper CacheSweeper, interval time.Duration, logger zerolog.Logger) (*CacheSweepService, error) {
	if sweeper == nil {
		return nil, errors.New("cache sweeper is required")
	}
	if interval <= 0 {
		return nil, errors.New("sweep interval must be positive")
	}
	return &CacheSweepService{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger.With().Str("service", "cache-sweep").Logger(),
	}, nil
}

// Serve implements suture.Service.
func (s *CacheSweepService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := s.sweeper.SweepCache(); removed > 0 {
				s.logger.Debug().Int("removed", removed).Msg("expired rankings swept")
			}
		}
	}
}

// String returns the service name for logging.
func (s *CacheSweepService) String() string {
	return "cache-sweep-service"
}
