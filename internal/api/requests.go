// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package api

// Query parameter structs validated with go-playground/validator through
// internal/validation. The custom "timerange" rule accepts "all" and "24h".

// RangeRequest is the query of /stats and /map.
type RangeRequest struct {
	Range string `validate:"omitempty,timerange"`
}

// AttemptsRequest is the query of /attempts.
//
// Fields:
//   - Limit: newest N attempts (1-1000, default 100)
//   - Since: only attempts at or after this RFC 3339 instant
type AttemptsRequest struct {
	Limit int    `validate:"min=1,max=1000"`
	Since string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// DefaultAttemptsLimit applies when /attempts has no limit parameter.
const DefaultAttemptsLimit = 100
