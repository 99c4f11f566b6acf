// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"math"
	"sort"
)

// Merge combines the scored and fallback streams into a bounded ranking.
//
// Scored entries are inserted first, later duplicates overwriting earlier
// ones. Fallback entries only fill IDs the scored stream did not cover, so a
// scored entry is never replaced by a fallback entry. The result is sorted by
// score descending, then item ID ascending, and truncated to k. A k <= 0
// falls back to 10.
//
// Scored entries with a non-finite score are skipped; they have no
// defined position in the ordering.
func Merge(scored, fallback []ScoredCandidate, k int) []ScoredCandidate {
	if k <= 0 {
		k = 10
	}

	byID := make(map[ItemID]ScoredCandidate, len(scored)+len(fallback))
	for i := range scored {
		if math.IsNaN(scored[i].Score) || math.IsInf(scored[i].Score, 0) {
			continue
		}
		byID[scored[i].Item.ID] = scored[i]
	}
	for i := range fallback {
		if _, ok := byID[fallback[i].Item.ID]; !ok {
			byID[fallback[i].Item.ID] = fallback[i]
		}
	}

	out := make([]ScoredCandidate, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item.ID < out[j].Item.ID
	})

	if len(out) > k {
		out = out[:k]
	}
	return out
}
