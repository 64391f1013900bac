// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/knockwatch/internal/models"
	ws "github.com/tomtom215/knockwatch/internal/websocket"
)

func TestRouter_SecurityHeaders(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, path := range []string{"/api/v1/stats", "/api/v1/health", "/api/map_data"} {
		rec := env.get(t, path)
		for header, want := range map[string]string{
			"X-Content-Type-Options": "nosniff",
			"X-Frame-Options":        "DENY",
			"Cache-Control":          "no-store",
		} {
			if got := rec.Header().Get(header); got != want {
				t.Errorf("%s %s = %q, want %q", path, header, got, want)
			}
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: missing X-Request-ID", path)
		}
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get(t, "/wp-admin/setup.php")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/stats", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	env := newTestEnv(t, nil)
	env.get(t, "/api/v1/stats")

	rec := env.get(t, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("metrics output missing api_requests_total")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	env := newTestEnv(t, &ChiMiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	for i := 0; i < 2; i++ {
		if rec := env.get(t, "/api/v1/stats"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := env.get(t, "/api/v1/stats")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Error == nil || resp.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("body %s", rec.Body.String())
	}

	disabled := newTestEnv(t, &ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute, RateLimitDisabled: true})
	for i := 0; i < 3; i++ {
		if rec := disabled.get(t, "/api/v1/stats"); rec.Code != http.StatusOK {
			t.Errorf("disabled limiter: request %d status = %d", i, rec.Code)
		}
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t, &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"https://dash.example.com"},
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/stats", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

// startLiveServer serves a router backed by a running hub.
func startLiveServer(t *testing.T, origins []string) (*httptest.Server, *ws.Hub) {
	t.Helper()
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()

	h := NewHandler(HandlerDeps{
		Attempts:    &fakeAttempts{},
		Stats:       &fakeStats{},
		Hub:         hub,
		CORSOrigins: origins,
	})
	server := httptest.NewServer(NewRouter(h, nil).SetupChi())
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-done
	})
	return server, hub
}

func dialFeed(server *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/api/v1/ws", header)
}

func TestWebSocket_LiveFeed(t *testing.T) {
	server, hub := startLiveServer(t, []string{"*"})

	conn, resp, err := dialFeed(server, "https://dash.example.com")
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.BroadcastAttempt(models.NewAttempt(time.Now(), "203.0.113.9", "root", "letmein", "Hanoi"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string         `json:"type"`
		Data models.Attempt `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != ws.MessageTypeAttempt || msg.Data.IP != "203.0.113.9" || msg.Data.Password != "letmein" {
		t.Errorf("message = %+v", msg)
	}
}

func TestWebSocket_OriginCheck(t *testing.T) {
	server, _ := startLiveServer(t, []string{"https://dash.example.com"})

	for _, origin := range []string{"", "https://evil.example.com"} {
		conn, resp, err := dialFeed(server, origin)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err == nil {
			conn.Close()
			t.Errorf("origin %q: expected handshake failure", origin)
			continue
		}
		if resp == nil || resp.StatusCode != http.StatusForbidden {
			t.Errorf("origin %q: expected 403, got %v", origin, resp)
		}
	}
}
