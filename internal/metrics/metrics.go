// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Connection results for HoneypotConnections.
const (
	ConnAccepted       = "accepted"
	ConnRejectedFull   = "rejected_pool_full"
	ConnNotSSH         = "not_ssh"
	ConnHandshakeError = "handshake_error"
	ConnClosed         = "closed"
)

// Lookup sources for GeoLookups.
const (
	SourceStatic  = "static"
	SourceDurable = "durable"
	SourceRemote  = "remote"
	SourceIPAPI   = "ipapi"
	SourceMemo    = "memo"
)

var (
	// Honeypot Metrics
	HoneypotConnections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "honeypot_connections_total",
			Help: "Total honeypot connections by outcome",
		},
		[]string{"result"},
	)

	HoneypotActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "honeypot_active_connections",
			Help: "Current number of running connection handlers",
		},
	)

	HoneypotAuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "honeypot_auth_attempts_total",
			Help: "Total password attempts received",
		},
		[]string{"recorded"}, // "true" when the attempt reached the log
	)

	HoneypotAcceptErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "honeypot_accept_errors_total",
			Help: "Total non-transient accept errors",
		},
	)

	HoneypotHousekeepingRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "honeypot_housekeeping_runs_total",
			Help: "Total housekeeping passes executed",
		},
	)

	// Geolocation Metrics
	GeoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geo_lookups_total",
			Help: "Total geolocation lookups by tier and result",
		},
		[]string{"source", "result"}, // result: "hit", "miss", "error"
	)

	GeoCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geo_cache_entries",
			Help: "Current number of verified entries in the durable geo cache",
		},
	)

	GeoInvalidEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geo_invalid_entries_total",
			Help: "Total geo entries discarded by verification",
		},
	)

	// Stats Metrics
	StatsSnapshotDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stats_snapshot_duration_seconds",
			Help:    "Time spent computing a stats snapshot",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"range"},
	)

	StatsCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stats_cache_hits_total",
			Help: "Total stats snapshots served from cache",
		},
	)

	StatsCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stats_cache_misses_total",
			Help: "Total stats snapshots recomputed",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordConnection counts one honeypot connection outcome.
func RecordConnection(result string) {
	HoneypotConnections.WithLabelValues(result).Inc()
}

// TrackActiveConnection moves the active handler gauge.
func TrackActiveConnection(inc bool) {
	if inc {
		HoneypotActiveConnections.Inc()
	} else {
		HoneypotActiveConnections.Dec()
	}
}

// RecordAuthAttempt counts one password callback.
func RecordAuthAttempt(recorded bool) {
	HoneypotAuthAttempts.WithLabelValues(strconv.FormatBool(recorded)).Inc()
}

// RecordGeoLookup counts one lookup against a geolocation tier.
func RecordGeoLookup(source, result string) {
	GeoLookups.WithLabelValues(source, result).Inc()
}

// RecordStatsSnapshot records the time spent computing a snapshot.
func RecordStatsSnapshot(timeRange string, duration time.Duration) {
	StatsSnapshotDuration.WithLabelValues(timeRange).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
