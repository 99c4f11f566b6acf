// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout bounds the database ping behind /health/ready.
const readinessTimeout = 2 * time.Second

// HealthLive handles liveness check requests (Kubernetes-style).
// Returns 200 whenever the process can serve HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, success(r, map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}))
}

// HealthReady handles readiness check requests (Kubernetes-style).
// Returns 200 only if the catalog database answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	dbConnected := h.catalog.Ping(ctx) == nil
	model := h.refits.Status().Model

	statusCode := http.StatusOK
	status := "ready"
	if !dbConnected {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	out := success(r, map[string]any{
		"database_connected": dbConnected,
		"model_loaded":       model != nil,
		"ready_to_serve":     dbConnected,
		"uptime":             time.Since(h.startTime).Seconds(),
	})
	out.Status = status
	respondJSON(w, statusCode, out)
}
