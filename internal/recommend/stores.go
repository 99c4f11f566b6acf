// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import "context"

// CatalogStore is a read-only view over the track catalog.
type CatalogStore interface {
	// EligibleItems returns every catalog item whose ID is not in exclude,
	// in catalog order (ascending ID). Fails with ErrStoreUnavailable.
	EligibleItems(ctx context.Context, exclude map[ItemID]struct{}) ([]Item, error)
}

// ProfileStore is a read-only view over declared user preferences.
type ProfileStore interface {
	// PreferenceTags returns the user's favorite genres. Fails with
	// ErrUserNotFound if the user does not exist.
	PreferenceTags(ctx context.Context, user UserID) (map[string]struct{}, error)
}

// InteractionStore is a read-only view over listening history.
type InteractionStore interface {
	// ConsumedItems returns the IDs the user has interacted with. A user
	// without history gets an empty set, not an error.
	ConsumedItems(ctx context.Context, user UserID) (map[ItemID]struct{}, error)
}

// PreferenceScorer scores a (user, item) pair against a fitted model.
//
// Score must be deterministic for a fixed fitted state and safe for
// concurrent use. It fails with ErrScoringUnavailable when no fitted state
// exists or when the user or item is unknown to the model.
//
// Score must return promptly once ctx is done. Rank gives up on a call at
// the per-call timeout but cannot stop it; a Score that ignores ctx keeps
// its goroutine alive until it returns, and such calls show up in the
// scoring_abandoned_total and scoring_abandoned_in_flight metrics.
type PreferenceScorer interface {
	Score(ctx context.Context, user UserID, item ItemID) (float64, error)
}

// SnapshotScorer is implemented by scorers backed by a replaceable model.
// Pin returns a scorer bound to the snapshot current at the time of the
// call, so that one request never mixes two model versions. ok is false when
// no snapshot has been published.
type SnapshotScorer interface {
	PreferenceScorer
	Pin() (scorer PreferenceScorer, info ModelInfo, ok bool)
}
