// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

// SelectFallback returns every item whose tags intersect tags, in the order
// given, wrapped with score 0 and fallback provenance.
//
// items must already be exclusion-filtered. An empty tag set selects nothing.
func SelectFallback(tags map[string]struct{}, items []Item) []ScoredCandidate {
	if len(tags) == 0 {
		return nil
	}

	var out []ScoredCandidate
	for i := range items {
		if items[i].HasAnyTag(tags) {
			out = append(out, ScoredCandidate{
				Item:       items[i],
				Score:      0,
				Provenance: ProvenanceFallback,
			})
		}
	}
	return out
}
