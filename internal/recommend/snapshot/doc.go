// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package snapshot serves fitted preference models to the ranking engine.
//
// A Holder publishes immutable *algorithms.ALSModel values through an
// atomic pointer. Requests pin one snapshot via Scorer.Pin, so a refit that
// completes mid-request never changes the scores that request sees.
//
// The Refitter fits a new model from the interaction store, persists it in
// the badger-backed model store, publishes it and prunes old versions. It
// runs from the supervised refit service and from manual triggers, never
// on the request path.
//
// Scoring goes through a gobreaker circuit breaker. A user or track the
// model has never seen counts as a successful call; only failures of the
// scoring machinery itself trip the breaker.
package snapshot
