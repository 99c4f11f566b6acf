// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package api provides the HTTP API for Cadence.

Routes (chi v5):

	GET  /api/v1/recommendations?user_id=&k=   ranked tracks for a user
	GET  /api/v1/artists?name=&genre=&limit=   artist search
	GET  /api/v1/users/{username}              username to user id
	POST /api/v1/interactions                  record a listen or rating
	GET  /api/v1/model/status                  snapshot and refit state
	POST /api/v1/model/refit                   queue a background refit
	GET  /health/live, /health/ready           liveness and readiness
	GET  /metrics                              Prometheus

Every JSON response uses the APIResponse envelope. Errors from the ranking
engine map onto status codes in respondDomainError:

	recommend.ErrValidation        400 VALIDATION_ERROR
	recommend.ErrUserNotFound      404 USER_NOT_FOUND
	database.ErrTrackNotFound      404 TRACK_NOT_FOUND
	recommend.ErrStoreUnavailable  503 STORE_UNAVAILABLE (Retry-After)

Scoring failures never reach the client; they surface as
metadata.ranking.degraded.

Handlers depend on the small Ranker, Catalog, RefitController and
BreakerState interfaces so they can be tested with fakes.
*/
package api
