// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/recommend/algorithms"
)

// BreakerConfig configures the scorer circuit breaker.
type BreakerConfig struct {
	// Enabled turns the breaker on. When off every call reaches the model.
	Enabled bool

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval resets the closed-state counts. Zero never resets.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// MinRequests is the number of calls needed before the breaker may trip.
	MinRequests uint32

	// FailureRatio trips the breaker once reached.
	FailureRatio float64
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:      true,
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  20,
		FailureRatio: 0.5,
	}
}

// Scorer scores against the snapshot in a Holder.
type Scorer struct {
	holder *Holder
	cb     *gobreaker.CircuitBreaker[float64]
	logger zerolog.Logger
}

// NewScorer creates a scorer reading from holder.
//
//nolint:gocritic // hugeParam: zerolog.Logger is designed to be passed by value
func NewScorer(holder *Holder, cfg BreakerConfig, logger zerolog.Logger) *Scorer {
	s := &Scorer{
		holder: holder,
		logger: logger.With().Str("component", "scorer").Logger(),
	}
	if !cfg.Enabled {
		return s
	}

	metrics.ScorerBreakerState.Set(0)
	s.cb = gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        "preference-scorer",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(_ string, from, to gobreaker.State) {
			s.logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("scorer circuit breaker state change")
			metrics.RecordBreakerTransition(from.String(), to.String(), int(to))
		},
	})
	return s
}

// isSuccessful reports whether err reflects a healthy scorer. Unknown users
// and tracks are answers, not faults, and a caller giving up is not the
// scorer's fault either.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, algorithms.ErrUnknownUser) ||
		errors.Is(err, algorithms.ErrUnknownItem) ||
		errors.Is(err, context.Canceled)
}

// Score scores against whichever snapshot is current at call time.
func (s *Scorer) Score(ctx context.Context, user recommend.UserID, item recommend.ItemID) (float64, error) {
	return s.score(ctx, s.holder.Load(), user, item)
}

// Pin fixes the current snapshot for one request. It returns a nil scorer
// when no snapshot has been published.
func (s *Scorer) Pin() (recommend.PreferenceScorer, recommend.ModelInfo, bool) {
	m := s.holder.Load()
	if m == nil {
		return nil, recommend.ModelInfo{}, false
	}
	return &pinnedScorer{parent: s, model: m}, m.Info(), true
}

// State returns the breaker state name, or "disabled".
func (s *Scorer) State() string {
	if s.cb == nil {
		return "disabled"
	}
	return s.cb.State().String()
}

func (s *Scorer) score(ctx context.Context, m *algorithms.ALSModel, user recommend.UserID, item recommend.ItemID) (float64, error) {
	if m == nil {
		return 0, fmt.Errorf("%w: no model loaded", recommend.ErrScoringUnavailable)
	}

	call := func() (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		v, err := m.Score(user, item)
		if err != nil {
			return 0, err
		}
		// A result produced after the deadline is discarded by the caller.
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return v, nil
	}

	var v float64
	var err error
	if s.cb == nil {
		v, err = call()
	} else {
		v, err = s.cb.Execute(call)
	}
	if err == nil {
		return v, nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, err
	}
	// Covers unknown users/items and gobreaker.ErrOpenState alike.
	return 0, fmt.Errorf("%w: %w", recommend.ErrScoringUnavailable, err)
}

// pinnedScorer scores against one fixed snapshot.
type pinnedScorer struct {
	parent *Scorer
	model  *algorithms.ALSModel
}

func (p *pinnedScorer) Score(ctx context.Context, user recommend.UserID, item recommend.ItemID) (float64, error) {
	return p.parent.score(ctx, p.model, user, item)
}

var (
	_ recommend.SnapshotScorer   = (*Scorer)(nil)
	_ recommend.PreferenceScorer = (*pinnedScorer)(nil)
)
