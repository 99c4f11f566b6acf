// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package services provides suture.Service wrappers for Cadence components.

Each wrapper implements suture's Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

and fmt.Stringer, which suture uses to name the service in its event log.

# Available Services

RefitService (data layer):
  - Refits the preference model on startup, on a ticker, and whenever
    snapshot.Refitter.Trigger queues a manual request
  - Refit failures are logged and swallowed; ranking continues on the
    previously published snapshot

HTTPServerService (api layer):
  - Wraps *http.Server with graceful shutdown
  - Listen failures are returned so the supervisor restarts with backoff

# Usage

	tree.AddDataService(services.NewRefitService(refitter, services.RefitServiceConfig{
	    OnStartup: cfg.Refit.OnStartup,
	    Interval:  cfg.Refit.Interval,
	}, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, addr, cfg.Supervisor.ShutdownTimeout, logger))
*/
package services
