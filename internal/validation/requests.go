// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package validation

import "time"

// RecommendationRequest is the validated form of
// GET /api/v1/recommendations. The configured maximum K is enforced by the
// ranking engine; max here only rejects absurd values early.
type RecommendationRequest struct {
	UserID int64 `query:"user_id" validate:"required,gt=0"`
	K      int   `query:"k" validate:"min=0,max=1000"`
}

// InteractionRequest is the body of POST /api/v1/interactions. A missing
// rating records a plain listen.
type InteractionRequest struct {
	UserID   int64      `json:"user_id" validate:"required,gt=0"`
	TrackID  int64      `json:"track_id" validate:"required,gt=0"`
	Rating   *float64   `json:"rating,omitempty" validate:"omitempty,gt=0,lte=5"`
	PlayedAt *time.Time `json:"played_at,omitempty"`
}

// UserLookupRequest is the validated form of GET /api/v1/users/{username}.
type UserLookupRequest struct {
	Username string `json:"username" validate:"required,max=64,printable_text"`
}

// ArtistSearchRequest is the validated form of GET /api/v1/artists.
type ArtistSearchRequest struct {
	Name  string `query:"name" validate:"omitempty,max=100,printable_text"`
	Genre string `query:"genre" validate:"omitempty,max=50,printable_text"`
	Limit int    `query:"limit" validate:"min=0,max=200"`
}
