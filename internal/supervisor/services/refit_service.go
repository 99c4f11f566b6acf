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

	"github.com/tomtom215/cadence/internal/recommend/algorithms"
	"github.com/tomtom215/cadence/internal/recommend/snapshot"
)

// ModelRefitter fits and publishes model snapshots. Satisfied by
// *snapshot.Refitter.
type ModelRefitter interface {
	Refit(ctx context.Context) (*algorithms.ALSModel, error)
	Triggers() <-chan struct{}
}

// RefitServiceConfig holds configuration for the refit service.
type RefitServiceConfig struct {
	// OnStartup refits once when the service starts.
	OnStartup bool

	// Interval is the scheduled refit period. Zero disables scheduled
	// refits; manual triggers are still served.
	Interval time.Duration
}

// RefitService runs scheduled and manually triggered model refits under
// suture supervision. Refit failures are logged by the refitter and do not
// stop the service; requests keep using the last published snapshot.
type RefitService struct {
	refitter ModelRefitter
	config   RefitServiceConfig
	logger   zerolog.Logger
	name     string
}

// NewRefitService creates a new refit service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRefitService(refitter ModelRefitter, cfg RefitServiceConfig, logger zerolog.Logger) *RefitService {
	return &RefitService{
		refitter: refitter,
		config:   cfg,
		logger:   logger.With().Str("service", "refit").Logger(),
		name:     "refit-service",
	}
}

// Serve implements suture.Service.
func (s *RefitService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Msg("refit service starting")

	if s.config.OnStartup {
		s.refit(ctx, "startup")
	}

	var tick <-chan time.Time
	if s.config.Interval > 0 {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("refit service shutting down")
			return ctx.Err()

		case <-tick:
			s.refit(ctx, "scheduled")

		case <-s.refitter.Triggers():
			s.refit(ctx, "manual")
		}
	}
}

func (s *RefitService) refit(ctx context.Context, reason string) {
	s.logger.Debug().Str("reason", reason).Msg("refit triggered")
	_, err := s.refitter.Refit(ctx)
	if errors.Is(err, snapshot.ErrRefitInProgress) {
		s.logger.Debug().Str("reason", reason).Msg("refit already running")
	}
}

// String returns the service name for logging.
func (s *RefitService) String() string {
	return s.name
}
