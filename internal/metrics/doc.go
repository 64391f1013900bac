// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

/*
Package metrics provides the Prometheus collectors exported by Knockwatch.

All collectors are registered on the default registry through promauto and
served by the API layer at /metrics:

	curl http://localhost:5000/metrics

# Available Metrics

Honeypot:
  - honeypot_connections_total{result}: accepted, rejected_pool_full, not_ssh,
    handshake_error, closed
  - honeypot_active_connections: handlers currently running
  - honeypot_auth_attempts_total{recorded}: password callbacks, split by
    whether an attempt was written to the log
  - honeypot_accept_errors_total, honeypot_housekeeping_runs_total

Geolocation:
  - geo_lookups_total{source,result}: source is static, durable, remote,
    ipapi or memo
  - geo_cache_entries, geo_invalid_entries_total

Stats:
  - stats_snapshot_duration_seconds{range}
  - stats_cache_hits_total, stats_cache_misses_total

API and live feed:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests, websocket_connections, websocket_messages_sent_total

Circuit breakers (ip-api, bing-maps):
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}
*/
package metrics
