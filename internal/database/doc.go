// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package database provides the DuckDB-backed music catalog for Cadence.
//
// # Overview
//
// DB implements the ranking engine's read-only store contracts
// (recommend.CatalogStore, recommend.ProfileStore and
// recommend.InteractionStore) and the write and lookup operations the HTTP
// API needs:
//   - database.go: connection lifecycle, pool configuration, Ping
//   - schema.go: idempotent table and index creation
//   - catalog.go: EligibleItems, PreferenceTags, ConsumedItems,
//     Interactions, RecordInteraction
//   - users.go: UserByName, SearchArtists
//   - errors.go: StoreError and close helpers
//
// # Query Safety
//
// Every value reaches DuckDB as a bound parameter. User-supplied search
// text is additionally LIKE-escaped so that '%' and '_' match literally.
//
// # Errors
//
// Driver failures are returned as *StoreError, which matches
// recommend.ErrStoreUnavailable under errors.Is. Unknown users yield
// recommend.ErrUserNotFound.
//
// # Observability
//
// Each operation records its latency and errors through
// metrics.RecordDBQuery.
package database
