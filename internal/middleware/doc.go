// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package middleware provides HTTP middleware components for the API server.

All middleware uses the func(http.Handler) http.Handler shape so it can be
mounted with chi's Router.Use.

Key Components:

  - RequestID: reuses or generates X-Request-ID and stores it for logging.Ctx
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern
  - AccessLog: one structured log line per request, warn level when slow
  - Compression: pooled gzip writers for clients that accept gzip

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(time.Second))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Compression)

RequestID must run first so every later log line carries the id.
*/
package middleware
