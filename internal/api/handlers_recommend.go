// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/validation"
)

// TrackView is the client-facing representation of a ranked track.
type TrackView struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Attribution string   `json:"attribution"`
	Tags        []string `json:"tags"`
	// Duration is in seconds.
	Duration   float64 `json:"duration"`
	Score      float64 `json:"score"`
	Provenance string  `json:"provenance"`
}

// RankingMetadata describes how a ranking was produced.
type RankingMetadata struct {
	UserID          int64      `json:"user_id"`
	K               int        `json:"k"`
	ModelVersion    int64      `json:"model_version"`
	FittedAt        *time.Time `json:"fitted_at,omitempty"`
	Degraded        bool       `json:"degraded"`
	ScoredCount     int        `json:"scored_count"`
	FallbackCount   int        `json:"fallback_count"`
	TotalCandidates int        `json:"total_candidates"`
}

// presentTracks maps ranked candidates to their JSON form. Order and
// membership are preserved.
func presentTracks(items []recommend.ScoredCandidate) []TrackView {
	views := make([]TrackView, len(items))
	for i := range items {
		c := &items[i]
		tags := c.Item.Tags
		if tags == nil {
			tags = []string{}
		}
		views[i] = TrackView{
			ID:          int64(c.Item.ID),
			Title:       c.Item.Title,
			Attribution: c.Item.Attribution,
			Tags:        tags,
			Duration:    c.Item.Duration.Seconds(),
			Score:       c.Score,
			Provenance:  string(c.Provenance),
		}
	}
	return views
}

func presentMetadata(md *recommend.ResponseMetadata) *RankingMetadata {
	out := &RankingMetadata{
		UserID:          int64(md.UserID),
		K:               md.K,
		ModelVersion:    md.ModelVersion,
		Degraded:        md.Degraded,
		ScoredCount:     md.ScoredCount,
		FallbackCount:   md.FallbackCount,
		TotalCandidates: md.TotalCandidates,
	}
	if !md.FittedAt.IsZero() {
		fitted := md.FittedAt.UTC()
		out.FittedAt = &fitted
	}
	return out
}

// GetRecommendations handles GET /api/v1/recommendations?user_id=&k=
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID, err := parseInt64Param(q, "user_id", 0)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	k, err := parseIntParam(q, "k", 0)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	req := validation.RecommendationRequest{UserID: userID, K: k}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	resp, err := h.ranker.Rank(r.Context(), recommend.Request{
		UserID:    recommend.UserID(req.UserID),
		K:         req.K,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := success(r, presentTracks(resp.Items))
	out.Metadata.QueryTimeMS = resp.Metadata.LatencyMS
	out.Metadata.Cached = resp.Metadata.CacheHit
	out.Metadata.Ranking = presentMetadata(&resp.Metadata)
	respondJSON(w, http.StatusOK, out)
}
