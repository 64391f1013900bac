// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

/*
Package api serves the dashboard's read-only query surface over chi.

Routes:

	GET /api/v1/health/live   liveness
	GET /api/v1/health        attempt count, geo entries, live clients, uptime
	GET /api/v1/stats         StatsSnapshot for ?range=all|24h
	GET /api/v1/map           []MapPoint for ?range=all|24h
	GET /api/v1/attempts      newest attempts, ?limit=1..1000&since=RFC3339
	GET /api/v1/ws            live attempt feed (websocket)
	GET /api/map_data         bare []MapPoint over all attempts
	GET /metrics              Prometheus exposition

Everything under /api/v1 is wrapped in the APIResponse envelope. Invalid
query parameters produce 400 with code VALIDATION_FAILED.

The handler depends on small interfaces (AttemptReader, StatsProvider,
GeoCounter) rather than concrete stores so tests can substitute fakes.
*/
package api
