// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package models

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// TimestampLayout is the on-disk form: local wall clock, microseconds, no zone.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Timestamp is a point in time that serializes in the durable file format.
//
// Reading accepts RFC 3339 as well as naive ISO-8601 with or without
// fractional seconds (naive values are local time). A value that cannot be
// parsed is kept verbatim so the record survives a load/save cycle; Valid
// reports false for it.
type Timestamp struct {
	time.Time
	raw []byte
}

// NewTimestamp returns t truncated to the precision the file format keeps.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Microsecond).Local()}
}

// Valid reports whether the timestamp holds a parsed instant.
func (ts Timestamp) Valid() bool {
	return !ts.Time.IsZero()
}

// ParseTimestamp parses the formats accepted in durable files.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	// Fractional seconds are accepted after a seconds field even when the
	// layout omits them.
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Time.IsZero() {
		if len(ts.raw) > 0 {
			return ts.raw, nil
		}
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Local().Format(TimestampLayout))
}

// UnmarshalJSON implements json.Unmarshaler. It never fails on a
// syntactically valid JSON value.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if t, perr := ParseTimestamp(s); perr == nil {
			ts.Time = t
			return nil
		}
	}
	ts.raw = append([]byte(nil), data...)
	return nil
}
