// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the payload of GET /api/v1/health.
type HealthStatus struct {
	Status        string  `json:"status"`
	Attempts      int     `json:"attempts"`
	GeoEntries    int     `json:"geo_entries"`
	LiveClients   int     `json:"live_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// HealthLive reports that the process is serving HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// Health reports store sizes and uptime. The honeypot keeps no external
// dependencies that could make it unhealthy, so status is always "healthy".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:        "healthy",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	if h.attempts != nil {
		status.Attempts = h.attempts.Len()
	}
	if h.geo != nil {
		status.GeoEntries = h.geo.Len()
	}
	if h.wsHub != nil {
		status.LiveClients = h.wsHub.GetClientCount()
	}

	NewResponseWriter(w, r).Success(status)
}
