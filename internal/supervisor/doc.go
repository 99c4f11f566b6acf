// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package supervisor provides process supervision for Cadence using suture v4.

The tree separates background model maintenance from request serving:

	RootSupervisor ("cadence")
	├── DataSupervisor ("data-layer")
	│   └── RefitService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A refit that panics is restarted by the data layer; the API keeps serving
rankings from the last published snapshot.

# Event Logging

Supervisor events (restarts, backoff, stop timeouts) go through sutureslog
into the slog adapter from internal/logging, so they share the zerolog
output:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    FailureThreshold: cfg.Supervisor.FailureThreshold,
	    FailureDecay:     cfg.Supervisor.FailureDecay,
	    FailureBackoff:   cfg.Supervisor.FailureBackoff,
	    ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})

# Restart Policy

FailureThreshold failures (decaying at FailureDecay per second) put a
supervisor into FailureBackoff. ShutdownTimeout bounds how long Serve waits
for services to return after cancellation; stragglers are listed by
UnstoppedServiceReport.
*/
package supervisor
