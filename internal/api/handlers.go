// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/knockwatch/internal/logging"
	"github.com/tomtom215/knockwatch/internal/models"
	ws "github.com/tomtom215/knockwatch/internal/websocket"
)

// AttemptReader is the read side of the attempt store.
type AttemptReader interface {
	Len() int
	Recent(limit int, since time.Time) []models.Attempt
}

// StatsProvider computes dashboard aggregates.
type StatsProvider interface {
	Snapshot(ctx context.Context, r models.TimeRange) models.StatsSnapshot
	MapPoints(ctx context.Context, r models.TimeRange) []models.MapPoint
}

// GeoCounter reports how many cities the geo cache holds.
type GeoCounter interface {
	Len() int
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, websocket upgrader
//   - handlers_health.go: liveness and health
//   - handlers_core.go: stats, map, attempts, live feed
type Handler struct {
	attempts    AttemptReader
	stats       StatsProvider
	geo         GeoCounter
	wsHub       *ws.Hub
	corsOrigins []string
	startTime   time.Time
}

// HandlerDeps groups the collaborators of NewHandler. Geo and Hub are
// optional; without a hub /api/v1/ws answers 503.
type HandlerDeps struct {
	Attempts    AttemptReader
	Stats       StatsProvider
	Geo         GeoCounter
	Hub         *ws.Hub
	CORSOrigins []string
}

// NewHandler creates the API handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		attempts:    deps.Attempts,
		stats:       deps.Stats,
		geo:         deps.Geo,
		wsHub:       deps.Hub,
		corsOrigins: deps.CORSOrigins,
		startTime:   time.Now(),
	}
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin admits browsers from a configured CORS origin. A
// missing Origin header is rejected: browsers always send one.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// sanitizeLogValue strips control characters and bounds length so request
// data cannot forge log lines.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
