// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/recommend/algorithms"
	"github.com/tomtom215/cadence/internal/recommend/storage"
)

var (
	// ErrRefitInProgress is returned when a refit is already running or queued.
	ErrRefitInProgress = errors.New("refit already in progress")

	// ErrNotEnoughData is returned when the interaction history is below the
	// configured minimum.
	ErrNotEnoughData = errors.New("not enough interactions to fit")
)

// Refit results recorded in metrics and status.
const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultError   = "error"
)

// InteractionSource supplies the full interaction history for fitting.
type InteractionSource interface {
	Interactions(ctx context.Context) ([]recommend.Interaction, error)
}

// RefitConfig configures the refitter.
type RefitConfig struct {
	// ModelName keys snapshots in the model store. Default: "als".
	ModelName string

	// MinInteractions is the history size below which a refit is skipped.
	MinInteractions int

	// KeepVersions is how many snapshots survive pruning. Default: 3.
	KeepVersions int

	// Timeout bounds a single refit. Default: 10m.
	Timeout time.Duration
}

// ModelStatus describes the published snapshot.
type ModelStatus struct {
	Version      int64     `json:"version"`
	FittedAt     time.Time `json:"fitted_at"`
	Users        int       `json:"users"`
	Items        int       `json:"items"`
	Interactions int       `json:"interactions"`
}

// Status describes refit activity.
type Status struct {
	Running        bool         `json:"running"`
	LastAttempt    time.Time    `json:"last_attempt"`
	LastSuccess    time.Time    `json:"last_success"`
	LastResult     string       `json:"last_result,omitempty"`
	LastError      string       `json:"last_error,omitempty"`
	LastDurationMS int64        `json:"last_duration_ms"`
	Model          *ModelStatus `json:"model,omitempty"`
}

// Refitter fits, persists and publishes model snapshots.
type Refitter struct {
	cfg    RefitConfig
	fitter algorithms.Fitter
	source InteractionSource
	store  *storage.Store
	holder *Holder
	logger zerolog.Logger
	now    func() time.Time

	running  sync.Mutex
	busy     atomic.Bool
	triggers chan struct{}

	mu           sync.Mutex
	lastAttempt  time.Time
	lastSuccess  time.Time
	lastResult   string
	lastErr      string
	lastDuration time.Duration
}

// NewRefitter creates a refitter.
//
//nolint:gocritic // hugeParam: zerolog.Logger is designed to be passed by value
func NewRefitter(cfg RefitConfig, fitter algorithms.Fitter, source InteractionSource, store *storage.Store, holder *Holder, logger zerolog.Logger) (*Refitter, error) {
	if fitter == nil || source == nil || store == nil || holder == nil {
		return nil, errors.New("fitter, interaction source, model store and holder are required")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = fitter.Name()
	}
	if cfg.KeepVersions < 1 {
		cfg.KeepVersions = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}

	return &Refitter{
		cfg:      cfg,
		fitter:   fitter,
		source:   source,
		store:    store,
		holder:   holder,
		logger:   logger.With().Str("component", "refitter").Str("model", cfg.ModelName).Logger(),
		now:      time.Now,
		triggers: make(chan struct{}, 1),
	}, nil
}

// LoadLatest publishes the newest readable snapshot from the model store.
// Versions that fail their checksum or shape check are skipped. It reports
// whether a snapshot was published.
func (r *Refitter) LoadLatest(ctx context.Context) (bool, error) {
	stored, err := r.store.List(ctx, r.cfg.ModelName)
	if err != nil {
		return false, fmt.Errorf("list stored models: %w", err)
	}
	if len(stored) == 0 {
		r.logger.Info().Msg("no stored model snapshot, waiting for first refit")
		return false, nil
	}

	for i := len(stored) - 1; i >= 0; i-- {
		version := stored[i].Version
		var m algorithms.ALSModel
		if _, err := r.store.Load(ctx, r.cfg.ModelName, version, &m); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			r.logger.Warn().Err(err).Int64("version", version).Msg("skipping unreadable model snapshot")
			continue
		}
		if err := m.Validate(); err != nil {
			r.logger.Warn().Err(err).Int64("version", version).Msg("skipping invalid model snapshot")
			continue
		}

		r.holder.Publish(&m)
		r.logger.Info().
			Int64("version", m.Version).
			Time("fitted_at", m.FittedAt).
			Int("users", m.NumUsers()).
			Int("items", m.NumItems()).
			Msg("model snapshot loaded from store")
		return true, nil
	}
	return false, nil
}

// Trigger queues a refit for the refit service. It returns
// ErrRefitInProgress if one is already running or queued.
func (r *Refitter) Trigger() error {
	if r.busy.Load() {
		return ErrRefitInProgress
	}
	select {
	case r.triggers <- struct{}{}:
		return nil
	default:
		return ErrRefitInProgress
	}
}

// Triggers delivers queued manual refit requests.
func (r *Refitter) Triggers() <-chan struct{} {
	return r.triggers
}

// Running reports whether a refit is in progress.
func (r *Refitter) Running() bool {
	return r.busy.Load()
}

// Refit fits a new model from the full interaction history, persists it
// and publishes it. Only one refit runs at a time.
func (r *Refitter) Refit(ctx context.Context) (*algorithms.ALSModel, error) {
	if !r.running.TryLock() {
		return nil, ErrRefitInProgress
	}
	defer r.running.Unlock()
	r.busy.Store(true)
	defer r.busy.Store(false)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := r.now()
	m, err := r.refit(ctx)
	dur := r.now().Sub(start)

	switch {
	case errors.Is(err, ErrNotEnoughData):
		r.record(start, dur, ResultSkipped, err)
		metrics.RecordRefit(ResultSkipped, dur, 0, time.Time{})
		r.logger.Info().Err(err).Int("min_interactions", r.cfg.MinInteractions).Msg("model refit skipped")
	case err != nil:
		r.record(start, dur, ResultError, err)
		metrics.RecordRefit(ResultError, dur, 0, time.Time{})
		r.logger.Error().Err(err).Dur("duration", dur).Msg("model refit failed")
	default:
		r.record(start, dur, ResultOK, nil)
		metrics.RecordRefit(ResultOK, dur, m.Version, m.FittedAt)
		r.logger.Info().
			Int64("version", m.Version).
			Int("users", m.NumUsers()).
			Int("items", m.NumItems()).
			Int("interactions", m.InteractionCount).
			Dur("duration", dur).
			Msg("model refit complete")
	}
	return m, err
}

func (r *Refitter) refit(ctx context.Context) (*algorithms.ALSModel, error) {
	interactions, err := r.source.Interactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	if len(interactions) < r.cfg.MinInteractions {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughData, len(interactions), r.cfg.MinInteractions)
	}

	version, err := r.nextVersion(ctx)
	if err != nil {
		return nil, err
	}

	fitStart := r.now()
	m, err := r.fitter.Fit(ctx, interactions, version)
	if errors.Is(err, algorithms.ErrNoInteractions) {
		return nil, fmt.Errorf("%w: %w", ErrNotEnoughData, err)
	}
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	if _, err := r.store.Save(ctx, r.cfg.ModelName, m.Version, m, storage.ModelMetadata{
		FittedAt:           m.FittedAt,
		InteractionCount:   m.InteractionCount,
		UserCount:          m.NumUsers(),
		ItemCount:          m.NumItems(),
		TrainingDurationMS: r.now().Sub(fitStart).Milliseconds(),
	}); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	if !r.holder.Publish(m) {
		r.logger.Warn().Int64("version", m.Version).Msg("newer snapshot already published, keeping it")
	}

	if removed, err := r.store.Prune(ctx, r.cfg.ModelName, r.cfg.KeepVersions); err != nil {
		r.logger.Warn().Err(err).Msg("pruning old model snapshots failed")
	} else if removed > 0 {
		r.logger.Debug().Int("removed", removed).Msg("pruned old model snapshots")
	}
	return m, nil
}

// nextVersion is one past the highest version published or stored.
func (r *Refitter) nextVersion(ctx context.Context) (int64, error) {
	stored, _, err := r.store.LatestVersion(ctx, r.cfg.ModelName)
	if err != nil {
		return 0, fmt.Errorf("read latest model version: %w", err)
	}
	return slices.Max([]int64{stored, r.holder.Version()}) + 1, nil
}

func (r *Refitter) record(start time.Time, dur time.Duration, result string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastAttempt = start
	r.lastResult = result
	r.lastDuration = dur
	r.lastErr = ""
	if err != nil {
		r.lastErr = err.Error()
	}
	if result == ResultOK {
		r.lastSuccess = start
	}
}

// Status returns the refit state and the published snapshot.
func (r *Refitter) Status() Status {
	r.mu.Lock()
	st := Status{
		Running:        r.busy.Load(),
		LastAttempt:    r.lastAttempt,
		LastSuccess:    r.lastSuccess,
		LastResult:     r.lastResult,
		LastError:      r.lastErr,
		LastDurationMS: r.lastDuration.Milliseconds(),
	}
	r.mu.Unlock()

	if m := r.holder.Load(); m != nil {
		st.Model = &ModelStatus{
			Version:      m.Version,
			FittedAt:     m.FittedAt,
			Users:        m.NumUsers(),
			Items:        m.NumItems(),
			Interactions: m.InteractionCount,
		}
	}
	return st
}
