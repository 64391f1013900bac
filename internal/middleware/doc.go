// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

/*
Package middleware provides the HTTP middleware shared by the dashboard API.

All middleware has the chi signature func(http.Handler) http.Handler:

  - RequestID: request and correlation IDs in the logging context
  - RequestLogger: one access log line per request
  - PrometheusMetrics: request count, latency and in-flight gauge labeled by route pattern
  - Compression: pooled gzip for clients that accept it

The router in internal/api composes these with chi's RealIP and Recoverer,
go-chi/cors and go-chi/httprate.
*/
package middleware
