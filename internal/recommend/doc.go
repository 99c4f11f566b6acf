// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package recommend ranks catalog tracks for a single user.
//
// A ranking request runs a fixed pipeline:
//
//  1. The user's preference tags are read. This doubles as the identity
//     check, so an unknown user never reaches the catalog.
//  2. Consumed items are excluded from the eligible catalog.
//  3. Each eligible item is scored by the PreferenceScorer with bounded
//     fan-out and a per-call timeout. Items the scorer cannot score are
//     dropped from the scored stream.
//  4. Items whose tags intersect the preference tags form the fallback
//     stream with score 0.
//  5. Merge deduplicates both streams (a scored entry always beats a
//     fallback entry), orders by score descending then item ID ascending,
//     and truncates to K.
//
// The pipeline depends only on the store interfaces and PreferenceScorer in
// stores.go. The fitted model behind the scorer lives in
// internal/recommend/snapshot and is refreshed in the background.
//
// # Errors
//
// ErrValidation, ErrUserNotFound and ErrStoreUnavailable are returned to
// the caller. ErrScoringUnavailable never is: a request whose scorer fails
// completely is served from the fallback stream and flagged as degraded in
// its metadata.
package recommend
