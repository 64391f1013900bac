// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package stats

import (
	"testing"
	"time"
)

func TestHourlyTrend_FallBackKeepsRepeatedHour(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 2024-11-03 02:00 EDT falls back to 01:00 EST; 10:30 UTC is 05:30 EST.
	now := time.Date(2024, 11, 3, 10, 30, 0, 0, time.UTC).In(loc)
	firstOne := time.Date(2024, 11, 3, 5, 30, 0, 0, time.UTC).In(loc)  // 01:30 EDT
	secondOne := time.Date(2024, 11, 3, 6, 30, 0, 0, time.UTC).In(loc) // 01:30 EST

	trend := newHourlyTrend(now)
	trend.add(firstOne)
	trend.add(secondOne)
	buckets := trend.buckets()

	if len(buckets) != 24 {
		t.Fatalf("%d buckets, want 24", len(buckets))
	}
	if buckets[23].Hour != "05:00" {
		t.Errorf("newest bucket = %q, want 05:00", buckets[23].Hour)
	}
	if buckets[18].Hour != "01:00" || buckets[19].Hour != "01:00" {
		t.Errorf("repeated hour labels = %q, %q", buckets[18].Hour, buckets[19].Hour)
	}
	if buckets[18].Count != 1 || buckets[19].Count != 1 {
		t.Errorf("repeated hour counts = %d, %d, want 1 and 1", buckets[18].Count, buckets[19].Count)
	}

	sum := 0
	for _, b := range buckets {
		sum += b.Count
	}
	if sum != 2 {
		t.Errorf("sum = %d, want 2", sum)
	}
}

func TestHourlyTrend_Bucket(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 7, 1, 10, 30, 0, 0, time.UTC)
	trend := newHourlyTrend(now)

	tests := []struct {
		name string
		ts   time.Time
		want int
	}{
		{"current hour", now, 23},
		{"start of current hour", now.Add(-30 * time.Minute), 23},
		{"previous hour boundary", now.Add(-90 * time.Minute), 22},
		{"oldest bucket", now.Add(-23*time.Hour - 30*time.Minute), 0},
		{"sliver before oldest bucket", now.Add(-23*time.Hour - 45*time.Minute), 23},
		{"outside window", now.Add(-25 * time.Hour), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trend.bucket(tt.ts); got != tt.want {
				t.Errorf("bucket(%v) = %d, want %d", tt.ts, got, tt.want)
			}
		})
	}
}
