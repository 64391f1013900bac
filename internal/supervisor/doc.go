// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

/*
Package supervisor runs knockwatch's long-lived components under suture v4.

The tree has three layers so failures stay local:

	knockwatch
	├── capture-layer
	│   └── HoneypotService (SSH accept loop)
	├── messaging-layer
	│   └── WebSocketHubService (live attempt feed)
	└── api-layer
	    └── HTTPServerService (dashboard and JSON API)

A crashed service is restarted by its layer. Past FailureThreshold the
layer backs off for FailureBackoff while the other layers keep running.
A service that returns an error wrapping suture.ErrDoNotRestart is left
stopped; the honeypot does this when it lacks permission to bind its port.

Supervisor events are written through sutureslog to the slog logger passed
to NewSupervisorTree, which main builds from the zerolog logger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Supervisor.ShutdownTimeout,
	})
	tree.AddCaptureService(services.NewHoneypotService(listener))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, addr, timeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("supervisor stopped")
	}

Adapters for concrete components live in the services subpackage.
*/
package supervisor
