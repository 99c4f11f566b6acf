// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package algorithms fits preference models from listening history.
//
// The only model shipped today is implicit-feedback ALS (Hu, Koren and
// Volinsky, 2008). A fit produces an immutable *ALSModel that scores a
// (user, track) pair as the dot product of their latent factors:
//
//	als := algorithms.NewALS(algorithms.DefaultALSConfig())
//	model, err := als.Fit(ctx, interactions, version)
//	if err != nil {
//	    return err
//	}
//	score, err := model.Score(userID, trackID)
//
// # Determinism
//
// Users and items are indexed in ascending id order and factors start from
// a fixed pattern, so the same interactions always produce the same model.
// Parallel workers each own a disjoint block of rows.
//
// # Thread Safety
//
// ALS holds only configuration. ALSModel is never mutated after Fit
// returns and is safe for concurrent Score calls.
//
// # Persistence
//
// Every ALSModel field that matters is exported so the model can be written
// with encoding/gob by internal/recommend/storage.
package algorithms
