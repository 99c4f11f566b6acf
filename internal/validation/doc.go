// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance, the API's request types, and user-friendly error
// messages that map onto the API's VALIDATION_ERROR response.
//
// # Request Types
//
//   - RecommendationRequest: user_id (required, positive) and k (0 = default)
//   - InteractionRequest: user_id, track_id and an optional 0 < rating <= 5
//   - ArtistSearchRequest: name/genre substrings and a result limit
//   - UserLookupRequest: a printable username of at most 64 characters
//
// # Error Handling
//
// ValidateStruct returns nil or a *RequestValidationError. Field names in
// messages are the json or query names the client sent. ToAPIError lists
// every rejected field under details.fields:
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    respondAPIError(w, r, http.StatusBadRequest, err.ToAPIError())
//	    return
//	}
//
// # Thread Safety
//
// The validator is created once and caches struct metadata; it is safe for
// concurrent use.
package validation
