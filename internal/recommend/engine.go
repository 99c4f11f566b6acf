// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/metrics"
)

// Ranking outcomes recorded in metrics.
const (
	outcomeOK          = "ok"
	outcomeDegraded    = "degraded"
	outcomeInvalid     = "invalid"
	outcomeNotFound    = "not_found"
	outcomeUnavailable = "store_unavailable"
	outcomeCanceled    = "canceled"
)

// Stores groups the read-only collaborators the engine queries.
type Stores struct {
	Catalog      CatalogStore
	Profiles     ProfileStore
	Interactions InteractionStore
}

// Engine runs the ranking pipeline.
type Engine struct {
	config *Config
	logger zerolog.Logger

	catalog      CatalogStore
	profiles     ProfileStore
	interactions InteractionStore
	scorer       PreferenceScorer

	// results is nil when caching is disabled.
	results *cache.LRUCache[*Response]

	// cacheMu orders result writes against invalidation. generation is
	// bumped on every invalidation; a ranking computed under an older
	// generation may hold consumed items and is not stored.
	cacheMu    sync.Mutex
	generation uint64

	requests atomic.Int64
	degraded atomic.Int64
	failures atomic.Int64
}

// NewEngine creates a ranking engine. cfg may be nil for defaults; scorer
// may be nil, in which case every request is served from the fallback stream.
//
//nolint:gocritic // hugeParam: zerolog.Logger is designed to be passed by value
func NewEngine(cfg *Config, stores Stores, scorer PreferenceScorer, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if stores.Catalog == nil || stores.Profiles == nil || stores.Interactions == nil {
		return nil, errors.New("catalog, profile and interaction stores are required")
	}

	e := &Engine{
		config:       cfg,
		logger:       logger.With().Str("component", "recommend").Logger(),
		catalog:      stores.Catalog,
		profiles:     stores.Profiles,
		interactions: stores.Interactions,
		scorer:       scorer,
	}
	if cfg.Cache.Enabled {
		e.results = cache.NewLRUCache[*Response](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	return e, nil
}

// Rank produces the ranking for req.UserID.
//
// Validation failures are returned before any store is touched, and an
// unknown user is rejected after the preference lookup alone.
//
//nolint:gocritic // hugeParam: Request is passed by value for immutability
func (e *Engine) Rank(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requests.Add(1)

	k, err := e.prepareRequest(&req)
	if err != nil {
		e.finish(outcomeInvalid, start, 0)
		return nil, err
	}

	log := e.logger.With().
		Str("request_id", req.RequestID).
		Int64("user_id", int64(req.UserID)).
		Int("k", k).
		Logger()

	tags, err := e.profiles.PreferenceTags(ctx, req.UserID)
	if err != nil {
		return nil, e.fail(log, start, storeFailure("preference tags", err))
	}

	scorer, model, hasModel := e.pinScorer()
	generation := e.cacheGeneration()

	key := cacheKey(req.UserID, k, model.Version)
	if cached, ok := e.cachedResponse(key); ok {
		resp := *cached
		resp.Metadata.RequestID = req.RequestID
		resp.Metadata.CacheHit = true
		resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
		resp.Metadata.Timestamp = time.Now()
		e.finish(outcomeOK, start, len(resp.Items))
		return &resp, nil
	}

	consumed, err := e.interactions.ConsumedItems(ctx, req.UserID)
	if err != nil {
		return nil, e.fail(log, start, storeFailure("consumed items", err))
	}

	eligible, err := e.catalog.EligibleItems(ctx, consumed)
	if err != nil {
		return nil, e.fail(log, start, storeFailure("eligible items", err))
	}
	eligible = withoutConsumed(eligible, consumed)
	metrics.RankingCandidates.Observe(float64(len(eligible)))

	candidates := eligible
	if len(candidates) > e.config.Limits.MaxCandidates {
		log.Debug().
			Int("eligible", len(candidates)).
			Int("max_candidates", e.config.Limits.MaxCandidates).
			Msg("candidate list truncated for scoring")
		candidates = candidates[:e.config.Limits.MaxCandidates]
	}

	outcome := scoreCandidates(ctx, scorer, req.UserID, candidates,
		e.config.Limits.MaxConcurrency, e.config.Limits.ScoreTimeout)

	if err := ctx.Err(); err != nil {
		e.failures.Add(1)
		e.finish(outcomeCanceled, start, 0)
		return nil, fmt.Errorf("rank: %w", err)
	}

	if outcome.unavailable+outcome.timeouts+outcome.invalid > 0 {
		log.Debug().
			Int("unavailable", outcome.unavailable).
			Int("timeouts", outcome.timeouts).
			Int("invalid", outcome.invalid).
			Msg("some candidates could not be scored")
	}

	fallback := SelectFallback(tags, eligible)
	items := Merge(outcome.scored, fallback, k)

	resp := &Response{
		Items: items,
		Metadata: ResponseMetadata{
			RequestID:       req.RequestID,
			UserID:          req.UserID,
			K:               k,
			Degraded:        outcome.allFailed(),
			TotalCandidates: len(eligible),
			LatencyMS:       time.Since(start).Milliseconds(),
			Timestamp:       time.Now(),
		},
	}
	if hasModel {
		resp.Metadata.ModelVersion = model.Version
		resp.Metadata.FittedAt = model.FittedAt
	}
	for i := range items {
		if items[i].Provenance == ProvenanceScored {
			resp.Metadata.ScoredCount++
		} else {
			resp.Metadata.FallbackCount++
		}
	}

	result := outcomeOK
	if resp.Metadata.Degraded {
		e.degraded.Add(1)
		result = outcomeDegraded
		log.Warn().
			Int("candidates", len(candidates)).
			Int("fallback", len(fallback)).
			Msg("scoring unavailable, serving fallback ranking")
	}

	if !resp.Metadata.Degraded {
		e.storeResponse(key, generation, resp)
	}
	e.finish(result, start, len(items))

	log.Debug().
		Int("results", len(items)).
		Int("scored", resp.Metadata.ScoredCount).
		Int("fallback", resp.Metadata.FallbackCount).
		Int64("model_version", resp.Metadata.ModelVersion).
		Dur("latency", time.Since(start)).
		Msg("ranking complete")

	return resp, nil
}

// prepareRequest validates req and resolves K.
func (e *Engine) prepareRequest(req *Request) (int, error) {
	if req.UserID <= 0 {
		return 0, validationError("user id must be positive, got %d", req.UserID)
	}
	if req.K < 0 || req.K > e.config.Limits.MaxK {
		return 0, validationError("k must be between 0 and %d, got %d", e.config.Limits.MaxK, req.K)
	}
	if req.K == 0 {
		return e.config.Limits.DefaultK, nil
	}
	return req.K, nil
}

// pinScorer fixes the model snapshot for the duration of one request.
func (e *Engine) pinScorer() (PreferenceScorer, ModelInfo, bool) {
	if ss, ok := e.scorer.(SnapshotScorer); ok {
		return ss.Pin()
	}
	return e.scorer, ModelInfo{}, e.scorer != nil
}

//nolint:gocritic // hugeParam: zerolog.Logger is designed to be passed by value
func (e *Engine) fail(log zerolog.Logger, start time.Time, err error) error {
	e.failures.Add(1)
	switch {
	case errors.Is(err, ErrUserNotFound):
		e.finish(outcomeNotFound, start, 0)
		log.Debug().Msg("ranking rejected: unknown user")
	default:
		e.finish(outcomeUnavailable, start, 0)
		log.Error().Err(err).Msg("ranking failed")
	}
	return err
}

func (e *Engine) finish(outcome string, start time.Time, size int) {
	metrics.RecordRanking(outcome, time.Since(start), size)
}

func (e *Engine) cachedResponse(key string) (*Response, bool) {
	if e.results == nil {
		return nil, false
	}
	resp, ok := e.results.Get(key)
	if ok {
		metrics.RankingCacheHits.Inc()
	}
	return resp, ok
}

func (e *Engine) cacheGeneration() uint64 {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	return e.generation
}

// storeResponse caches resp unless an invalidation happened after
// generation was read.
func (e *Engine) storeResponse(key string, generation uint64, resp *Response) {
	if e.results == nil {
		return
	}
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if e.generation != generation {
		return
	}
	e.results.Add(key, resp)
}

// InvalidateUser drops cached rankings for user. Rankings for any user
// still in flight are not cached.
func (e *Engine) InvalidateUser(user UserID) {
	if e.results == nil {
		return
	}
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.generation++
	e.results.RemovePrefix(userKeyPrefix(user))
}

// InvalidateAll drops every cached ranking. It is registered as the
// snapshot publish hook.
func (e *Engine) InvalidateAll() {
	if e.results == nil {
		return
	}
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.generation++
	e.results.Clear()
}

// SweepCache removes expired rankings and returns how many were dropped.
func (e *Engine) SweepCache() int {
	if e.results == nil {
		return 0
	}
	return e.results.CleanupExpired()
}

// Stats returns engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Requests: e.requests.Load(),
		Degraded: e.degraded.Load(),
		Failures: e.failures.Load(),
	}
	if e.results != nil {
		s.CacheHits, s.CacheMisses, s.CacheEntries = e.results.Stats()
	}
	return s
}

// withoutConsumed drops any item in consumed, preserving order. Stores are
// expected to apply the exclusion themselves.
func withoutConsumed(items []Item, consumed map[ItemID]struct{}) []Item {
	if len(consumed) == 0 {
		return items
	}
	out := items[:0:0]
	for i := range items {
		if _, ok := consumed[items[i].ID]; !ok {
			out = append(out, items[i])
		}
	}
	return out
}

func userKeyPrefix(user UserID) string {
	return strconv.FormatInt(int64(user), 10) + ":"
}

func cacheKey(user UserID, k int, modelVersion int64) string {
	return userKeyPrefix(user) + strconv.Itoa(k) + ":" + strconv.FormatInt(modelVersion, 10)
}
