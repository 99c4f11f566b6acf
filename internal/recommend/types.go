// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import "time"

// UserID identifies a listener.
type UserID int64

// ItemID identifies a catalog track.
type ItemID int64

// Provenance records which stream a candidate came from.
type Provenance string

const (
	// ProvenanceScored marks candidates scored by the preference model.
	ProvenanceScored Provenance = "scored"

	// ProvenanceFallback marks candidates selected by preference tag.
	ProvenanceFallback Provenance = "fallback"
)

// Item is a catalog track. Items are treated as immutable during a request.
type Item struct {
	// ID is the unique track identifier.
	ID ItemID `json:"id"`

	// Title is the track title.
	Title string `json:"title"`

	// Attribution is the artist, with the album appended when known.
	Attribution string `json:"attribution"`

	// Tags are the track's genres.
	Tags []string `json:"tags"`

	// Duration is the track length.
	Duration time.Duration `json:"duration"`
}

// HasAnyTag reports whether the item carries at least one of tags.
func (i *Item) HasAnyTag(tags map[string]struct{}) bool {
	if len(tags) == 0 {
		return false
	}
	for _, t := range i.Tags {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}

// Interaction is an append-only record of a user consuming a track.
type Interaction struct {
	// UserID is the listener.
	UserID UserID `json:"user_id"`

	// ItemID is the track.
	ItemID ItemID `json:"item_id"`

	// Strength is the explicit rating, or 1 for a plain listen.
	Strength float64 `json:"strength"`

	// Timestamp is when the interaction happened.
	Timestamp time.Time `json:"timestamp"`
}

// ScoredCandidate is a per-request ranking entry.
type ScoredCandidate struct {
	Item       Item       `json:"item"`
	Score      float64    `json:"score"`
	Provenance Provenance `json:"provenance"`
}

// ModelInfo describes the fitted model snapshot a request was scored against.
type ModelInfo struct {
	// Version increases by one with every published snapshot.
	Version int64 `json:"version"`

	// FittedAt is when the snapshot finished fitting.
	FittedAt time.Time `json:"fitted_at"`
}

// Request is a ranking request.
type Request struct {
	// UserID is the user to rank for. Required.
	UserID UserID

	// K bounds the result size. Zero selects the configured default.
	K int

	// RequestID is propagated into logs and response metadata.
	RequestID string
}

// Response is the result of a ranking request.
type Response struct {
	// Items is the ranked result, at most K long.
	Items []ScoredCandidate `json:"items"`

	// Metadata describes how the result was produced.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries request observability data.
type ResponseMetadata struct {
	RequestID string `json:"request_id,omitempty"`
	UserID    UserID `json:"user_id"`
	K         int    `json:"k"`

	// ModelVersion is zero when no snapshot was available.
	ModelVersion int64     `json:"model_version"`
	FittedAt     time.Time `json:"fitted_at,omitempty"`

	// Degraded is set when no eligible item could be scored.
	Degraded bool `json:"degraded"`

	ScoredCount     int  `json:"scored_count"`
	FallbackCount   int  `json:"fallback_count"`
	TotalCandidates int  `json:"total_candidates"`
	CacheHit        bool `json:"cache_hit"`

	LatencyMS int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats holds engine counters since start.
type Stats struct {
	Requests     int64 `json:"requests"`
	Degraded     int64 `json:"degraded"`
	Failures     int64 `json:"failures"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	CacheEntries int   `json:"cache_entries"`
}
