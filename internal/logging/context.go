// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	remoteIPKey      contextKey = "remote_ip"
)

// GenerateCorrelationID returns the first 8 characters of a random UUID.
// One is assigned to every accepted honeypot connection.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID returns a full UUID for HTTP requests.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithCorrelationID returns ctx carrying id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID returns ctx carrying a freshly generated correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns "" when absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID returns ctx carrying an HTTP request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRemoteIP tags ctx with the peer address of a honeypot connection.
func ContextWithRemoteIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, remoteIPKey, ip)
}

// RemoteIPFromContext returns "" when absent.
func RemoteIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(remoteIPKey).(string); ok {
		return ip
	}
	return ""
}

// Ctx returns the global logger enriched with correlation_id, request_id and
// remote_ip when ctx carries them.
//
//	logging.Ctx(ctx).Info().Msg("credential captured")
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := Logger().With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	if ip := RemoteIPFromContext(ctx); ip != "" {
		logCtx = logCtx.Str("remote_ip", ip)
	}
	l := logCtx.Logger()
	return &l
}

// WithComponent returns a child logger tagged with component.
//
//	geoLog := logging.WithComponent("geo")
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
