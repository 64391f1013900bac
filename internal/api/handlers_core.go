// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/knockwatch/internal/logging"
	"github.com/tomtom215/knockwatch/internal/models"
	"github.com/tomtom215/knockwatch/internal/validation"
	ws "github.com/tomtom215/knockwatch/internal/websocket"
)

// parseRange validates ?range= and writes a 400 on failure.
func parseRange(rw *ResponseWriter, r *http.Request) (models.TimeRange, bool) {
	req := RangeRequest{Range: r.URL.Query().Get("range")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return "", false
	}
	tr, err := models.ParseTimeRange(req.Range)
	if err != nil {
		rw.ValidationError(err.Error(), nil)
		return "", false
	}
	return tr, true
}

// Stats returns the aggregated snapshot for ?range=all|24h.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tr, ok := parseRange(rw, r)
	if !ok {
		return
	}
	rw.Success(h.stats.Snapshot(r.Context(), tr))
}

// Map returns per-city markers for ?range=all|24h.
func (h *Handler) Map(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tr, ok := parseRange(rw, r)
	if !ok {
		return
	}
	points := h.stats.MapPoints(r.Context(), tr)
	rw.SuccessWithCount(points, len(points))
}

// MapData serves the legacy map shape: a bare JSON array over all attempts.
func (h *Handler) MapData(w http.ResponseWriter, r *http.Request) {
	points := h.stats.MapPoints(r.Context(), models.RangeAll)
	if points == nil {
		points = []models.MapPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

// Attempts returns the newest attempts, newest first.
func (h *Handler) Attempts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	req := AttemptsRequest{Limit: DefaultAttemptsLimit, Since: q.Get("since")}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			rw.ValidationError("Limit must be an integer", map[string]interface{}{"field": "Limit", "value": raw})
			return
		}
		req.Limit = limit
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	var since time.Time
	if req.Since != "" {
		// Already checked by the datetime rule.
		since, _ = time.Parse(time.RFC3339, req.Since)
	}

	recent := h.attempts.Recent(req.Limit, since)
	if recent == nil {
		recent = []models.Attempt{}
	}
	rw.SuccessWithCount(recent, len(recent))
}

// WebSocket upgrades the connection and joins it to the live attempt feed.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	select {
	case h.wsHub.Register <- client:
		client.Start()
	case <-r.Context().Done():
		_ = conn.Close()
	}
}
