// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/knockwatch/internal/logging"
)

func serveRequestID(t *testing.T, incoming string) (header, fromCtx, correlation string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetRequestID(r.Context())
		correlation = logging.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	if incoming != "" {
		req.Header.Set(RequestIDHeader, incoming)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header().Get(RequestIDHeader), fromCtx, correlation
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	header, fromCtx, correlation := serveRequestID(t, "")

	if _, err := uuid.Parse(header); err != nil {
		t.Errorf("response ID %q is not a UUID: %v", header, err)
	}
	if fromCtx != header {
		t.Errorf("context ID %q != header ID %q", fromCtx, header)
	}
	if correlation == "" {
		t.Error("expected correlation ID in context")
	}
}

func TestRequestID_Upstream(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"well formed", "proxy-1234", true},
		{"control characters", "abc\x1b[31m", false},
		{"spaces", "abc def", false},
		{"too long", strings.Repeat("a", maxRequestIDLength+1), false},
		{"max length", strings.Repeat("a", maxRequestIDLength), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, fromCtx, _ := serveRequestID(t, tt.incoming)
			if got := header == tt.incoming; got != tt.keep {
				t.Errorf("kept = %v, want %v (header %q)", got, tt.keep, header)
			}
			if fromCtx != header {
				t.Errorf("context ID %q != header ID %q", fromCtx, header)
			}
		})
	}
}
