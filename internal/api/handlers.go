// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/cadence/internal/database"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/recommend/snapshot"
	"github.com/tomtom215/cadence/internal/validation"
)

// Ranker produces rankings and owns the ranking cache.
type Ranker interface {
	Rank(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	InvalidateUser(user recommend.UserID)
	Stats() recommend.Stats
}

// Catalog is the subset of the catalog store the handlers call directly.
type Catalog interface {
	Ping(ctx context.Context) error
	SearchArtists(ctx context.Context, filter database.ArtistFilter) ([]database.Artist, error)
	UserByName(ctx context.Context, username string) (*database.User, error)
	RecordInteraction(ctx context.Context, in recommend.Interaction) error
}

// RefitController queues refits and reports their state.
type RefitController interface {
	Trigger() error
	Status() snapshot.Status
}

// BreakerState reports the scorer's circuit breaker state.
type BreakerState interface {
	State() string
}

// HandlerConfig holds handler tunables.
type HandlerConfig struct {
	// RefitsPerMinute throttles POST /api/v1/model/refit. Zero disables
	// the throttle.
	RefitsPerMinute float64
	RefitBurst      int
}

// Handler serves the HTTP API.
type Handler struct {
	ranker       Ranker
	catalog      Catalog
	refits       RefitController
	breaker      BreakerState
	refitLimiter *rate.Limiter
	startTime    time.Time
}

// NewHandler creates the API handler. breaker may be nil.
func NewHandler(ranker Ranker, catalog Catalog, refits RefitController, breaker BreakerState, cfg HandlerConfig) (*Handler, error) {
	if ranker == nil || catalog == nil || refits == nil {
		return nil, errors.New("api: ranker, catalog and refit controller are required")
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RefitsPerMinute > 0 {
		burst := cfg.RefitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RefitsPerMinute/60), burst)
	}

	return &Handler{
		ranker:       ranker,
		catalog:      catalog,
		refits:       refits,
		breaker:      breaker,
		refitLimiter: limiter,
		startTime:    time.Now(),
	}, nil
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes.
func validateRequest(v any) *APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}
	apiErr := validationErr.ToAPIError()
	return &APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// respondDomainError maps the ranking error taxonomy onto HTTP.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrValidation):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
	case errors.Is(err, recommend.ErrUserNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeUserNotFound, "User not found", nil)
	case errors.Is(err, database.ErrTrackNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeTrackNotFound, "Track not found", nil)
	case errors.Is(err, recommend.ErrStoreUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "Catalog temporarily unavailable", err)
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		logCanceled(r, err)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", err)
	}
}

func logCanceled(r *http.Request, err error) {
	logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("request canceled by client")
}
