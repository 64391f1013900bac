// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

/*
Package main is the knockwatch server.

Knockwatch runs a decoy SSH service that rejects every password, records
who tried which credentials from where, and serves a dashboard of the
attack traffic on a map.

# Process Layout

	knockwatch
	├── capture-layer
	│   └── honeypot-listener   SSH accept loop, one session per connection
	├── messaging-layer
	│   └── websocket-hub       pushes every recorded attempt to the dashboard
	└── api-layer
	    └── http-server         JSON API, map data, /metrics

Startup order:

 1. Configuration: koanf v2 (defaults, then CONFIG_PATH file, then environment)
 2. Logging: zerolog
 3. Geolocation: ip-api.com for addresses, Bing Maps for cities, both
    behind circuit breakers, plus the static city table and geo cache file
 4. Attempt store: attempt log and IP to city memo
 5. Stats aggregator: cached snapshots invalidated on every new attempt
 6. Host key: loaded from HONEYPOT_HOST_KEY_PATH or generated on first run
 7. Supervisor tree: suture v4

# Configuration

	HONEYPOT_PORT=22              # decoy SSH port
	HONEYPOT_MAX_CONNECTIONS=256  # concurrent sessions
	HONEYPOT_AUTH_DELAY=3s        # delay before each rejection
	HONEYPOT_RECORD_UNRESOLVED=false

	ATTEMPTS_FILE=ssh_attempts.json
	IP_CACHE_FILE=city_data.json
	GEO_CACHE_FILE=geo_data.json

	BING_MAPS_KEY=                # empty disables remote city geocoding
	HTTP_PORT=5000
	CORS_ORIGINS=                 # comma separated; * allows all
	LOG_LEVEL=info
	LOG_FORMAT=json

When CONFIG_PATH names a YAML file, edits to its logging.level are applied
without a restart.

# Privileges

Binding port 22 needs root or CAP_NET_BIND_SERVICE. Without it the
honeypot listener stops and is not restarted; the dashboard keeps serving
the recorded history.

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
SUPERVISOR_SHUTDOWN_TIMEOUT; open honeypot sessions are cut off when the
process exits.
*/
package main
