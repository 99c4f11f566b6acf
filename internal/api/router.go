// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cadence/internal/middleware"
)

// RouterConfig holds configuration for the router's middleware.
type RouterConfig struct {
	// CORS configuration
	CORSAllowedOrigins []string
	CORSMaxAge         int // seconds

	// Rate limiting configuration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// SlowRequest is the access-log warn threshold.
	SlowRequest time.Duration
}

// DefaultRouterConfig returns the router defaults. CORS origins are empty,
// requiring explicit configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		CORSAllowedOrigins: []string{},
		CORSMaxAge:         86400,
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
		SlowRequest:        time.Second,
	}
}

// rateLimit returns the per-IP limiter, or a no-op when disabled.
func (c *RouterConfig) rateLimit() func(http.Handler) http.Handler {
	if c.RateLimitDisabled || c.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		c.RateLimitRequests,
		c.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded", nil)
		}),
	)
}

func (c *RouterConfig) cors() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   c.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           c.CORSMaxAge,
	})
}

// NewRouter builds the chi router for the API.
func NewRouter(h *Handler, cfg *RouterConfig) http.Handler {
	if cfg == nil {
		cfg = DefaultRouterConfig()
	}

	r := chi.NewRouter()

	// Global middleware, applied in order. RealIP must precede the rate
	// limiter so limits key on the client, not the proxy.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(cfg.SlowRequest))
	r.Use(chimiddleware.Recoverer)
	r.Use(cfg.cors())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(cfg.rateLimit())
		r.Use(middleware.Compression)

		r.Get("/recommendations", h.GetRecommendations)
		r.Get("/artists", h.SearchArtists)
		r.Get("/users/{username}", h.GetUser)
		r.Post("/interactions", h.RecordInteraction)

		r.Route("/model", func(r chi.Router) {
			r.Get("/status", h.GetModelStatus)
			r.Post("/refit", h.TriggerRefit)
		})
	})

	return r
}
