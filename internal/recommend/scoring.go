// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cadence/internal/metrics"
)

// scoreResult values recorded in metrics.
const (
	scoreOK          = "ok"
	scoreUnavailable = "unavailable"
	scoreTimeout     = "timeout"
	scoreInvalid     = "invalid"
)

// scoringOutcome summarises one fan-out.
type scoringOutcome struct {
	scored      []ScoredCandidate
	attempted   int
	unavailable int
	timeouts    int
	invalid     int
}

// allFailed reports whether candidates existed but none could be scored.
func (o *scoringOutcome) allFailed() bool {
	return o.attempted > 0 && len(o.scored) == 0
}

// scoreCandidates scores every item with at most limit calls in flight.
// Every call runs under its own timeout; the function returns only after
// all calls have finished or timed out.
func scoreCandidates(ctx context.Context, scorer PreferenceScorer, user UserID, items []Item, limit int, timeout time.Duration) scoringOutcome {
	outcome := scoringOutcome{attempted: len(items)}
	if scorer == nil {
		outcome.unavailable = len(items)
		return outcome
	}

	type slot struct {
		score  float64
		result string
	}
	slots := make([]slot, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range items {
		g.Go(func() error {
			start := time.Now()
			score, err := scoreWithTimeout(gctx, scorer, user, items[i].ID, timeout)
			result := classifyScore(score, err)
			metrics.RecordScoringCall(result, time.Since(start))
			slots[i] = slot{score: score, result: result}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	for i, s := range slots {
		switch s.result {
		case scoreOK:
			outcome.scored = append(outcome.scored, ScoredCandidate{
				Item:       items[i],
				Score:      s.score,
				Provenance: ProvenanceScored,
			})
		case scoreTimeout:
			outcome.timeouts++
		case scoreInvalid:
			outcome.invalid++
		default:
			outcome.unavailable++
		}
	}
	return outcome
}

// scoreWithTimeout bounds a single Score call. A scorer that ignores its
// context is abandoned when the deadline passes; its result is discarded
// and the still-running call is counted in scoring_abandoned_in_flight.
func scoreWithTimeout(ctx context.Context, scorer PreferenceScorer, user UserID, item ItemID, timeout time.Duration) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		score float64
		err   error
	}
	ch := make(chan reply, 1)
	// Set by whichever side finishes first. If the timeout wins, the
	// goroutine is abandoned and reports its own return.
	var settled atomic.Bool
	go func() {
		score, err := scorer.Score(callCtx, user, item)
		if !settled.CompareAndSwap(false, true) {
			metrics.RecordAbandonedReturn()
		}
		ch <- reply{score: score, err: err}
	}()

	select {
	case r := <-ch:
		return r.score, r.err
	case <-callCtx.Done():
		if settled.CompareAndSwap(false, true) {
			metrics.RecordScoringAbandoned()
		}
		return 0, callCtx.Err()
	}
}

func classifyScore(score float64, err error) string {
	switch {
	case err == nil:
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return scoreInvalid
		}
		return scoreOK
	case errors.Is(err, context.DeadlineExceeded):
		return scoreTimeout
	default:
		return scoreUnavailable
	}
}
