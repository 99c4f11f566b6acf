// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package storage persists fitted preference models in BadgerDB.
//
// Snapshots survive restarts so scoring is available before the first
// background refit finishes, and old versions stay around for rollback.
//
// # Storage Format
//
// Each version is two keys written in one transaction:
//
//	model:{name}:v{version:010d}   gob-encoded, gzip-compressed model state
//	meta:{name}:v{version:010d}    JSON ModelMetadata
//
// Versions are zero padded so that key order equals version order.
//
// # Usage Example
//
//	store, err := storage.Open("/var/lib/cadence/models")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	meta, err := store.Save(ctx, "als", model.Version, model, storage.ModelMetadata{
//	    FittedAt:         model.FittedAt,
//	    InteractionCount: model.InteractionCount,
//	    UserCount:        model.NumUsers(),
//	    ItemCount:        model.NumItems(),
//	})
//
//	var loaded algorithms.ALSModel
//	meta, err = store.Load(ctx, "als", 0, &loaded) // 0 = latest version
//
// # Data Integrity
//
// Models are validated on load using SHA-256 checksums:
//
//  1. Decompress gzip data
//  2. Compute SHA-256 of decompressed data
//  3. Compare with stored checksum
//  4. Return ErrChecksumMismatch if they differ
//
// # Cleanup
//
//	removed, err := store.Prune(ctx, "als", 3) // keep the newest 3
//
// # Thread Safety
//
// All operations run inside BadgerDB transactions and are safe for
// concurrent use.
package storage
