// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/database"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/validation"
)

// maxInteractionBody bounds POST /api/v1/interactions bodies.
const maxInteractionBody = 4 << 10

// SearchArtists handles GET /api/v1/artists?name=&genre=&limit=
func (h *Handler) SearchArtists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseIntParam(q, "limit", 0)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	req := validation.ArtistSearchRequest{
		Name:  q.Get("name"),
		Genre: q.Get("genre"),
		Limit: limit,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	start := time.Now()
	artists, err := h.catalog.SearchArtists(r.Context(), database.ArtistFilter{
		Name:  req.Name,
		Genre: req.Genre,
		Limit: req.Limit,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := success(r, artists)
	out.Metadata.QueryTimeMS = time.Since(start).Milliseconds()
	respondJSON(w, http.StatusOK, out)
}

// UserView is the public form of a user account. The password hash never
// leaves the store layer.
type UserView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// GetUser handles GET /api/v1/users/{username}, resolving a username to
// the user id the ranking endpoints take.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	req := validation.UserLookupRequest{Username: chi.URLParam(r, "username")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	user, err := h.catalog.UserByName(r.Context(), req.Username)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, success(r, UserView{ID: int64(user.ID), Username: user.Username}))
}

// RecordInteraction handles POST /api/v1/interactions. A successful write
// drops the user's cached rankings.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req validation.InteractionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInteractionBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Request body must be a JSON interaction", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	in := recommend.Interaction{
		UserID: recommend.UserID(req.UserID),
		ItemID: recommend.ItemID(req.TrackID),
	}
	if req.Rating != nil {
		in.Strength = *req.Rating
	}
	if req.PlayedAt != nil {
		in.Timestamp = *req.PlayedAt
	}

	if err := h.catalog.RecordInteraction(r.Context(), in); err != nil {
		respondDomainError(w, r, err)
		return
	}
	h.ranker.InvalidateUser(in.UserID)

	logging.Ctx(r.Context()).Debug().
		Int64("user_id", req.UserID).
		Int64("track_id", req.TrackID).
		Msg("interaction recorded")

	respondJSON(w, http.StatusCreated, success(r, req))
}
