// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/recommend/snapshot"
)

// ModelStatusView is the body of GET /api/v1/model/status.
type ModelStatusView struct {
	snapshot.Status
	Breaker string          `json:"breaker_state,omitempty"`
	Ranking recommend.Stats `json:"ranking"`
}

// TriggerRefit handles POST /api/v1/model/refit.
// The refit runs in the background; 202 means it was queued.
func (h *Handler) TriggerRefit(w http.ResponseWriter, r *http.Request) {
	if !h.refitLimiter.Allow() {
		respondError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Refit requested too often", nil)
		return
	}

	if err := h.refits.Trigger(); err != nil {
		if errors.Is(err, snapshot.ErrRefitInProgress) {
			respondError(w, r, http.StatusConflict, ErrCodeRefitInProgress, "A refit is already in progress", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to queue refit", err)
		return
	}

	logging.Ctx(r.Context()).Info().Msg("model refit queued")
	respondJSON(w, http.StatusAccepted, success(r, map[string]string{
		"message": "Refit queued",
	}))
}

// GetModelStatus handles GET /api/v1/model/status.
func (h *Handler) GetModelStatus(w http.ResponseWriter, r *http.Request) {
	view := ModelStatusView{
		Status:  h.refits.Status(),
		Ranking: h.ranker.Stats(),
	}
	if h.breaker != nil {
		view.Breaker = h.breaker.State()
	}
	respondJSON(w, http.StatusOK, success(r, view))
}
