// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package stats

import (
	"time"

	"github.com/tomtom215/knockwatch/internal/models"
)

// hourlyTrend buckets the last 24 hours by absolute hour, ending with the
// current hour in now's location. Attempts are placed by their distance from the start
// of the current hour, so a repeated wall-clock hour around a DST change
// still gets its own bucket. An attempt just under 24 hours old precedes the
// oldest bucket and is folded into the current hour, which shares its label.
type hourlyTrend struct {
	since   time.Time
	current time.Time
	labels  []string
	counts  []int
}

func newHourlyTrend(now time.Time) *hourlyTrend {
	current := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	t := &hourlyTrend{
		since:   now.Add(-models.Window),
		current: current,
		labels:  make([]string, 24),
		counts:  make([]int, 24),
	}
	for i := 0; i < 24; i++ {
		t.labels[i] = hourLabel(current.Add(time.Duration(i-23) * time.Hour))
	}
	return t
}

func hourLabel(t time.Time) string {
	return t.Format("15") + ":00"
}

// bucket returns the index for ts, or -1 if ts is outside the window.
func (t *hourlyTrend) bucket(ts time.Time) int {
	if ts.Before(t.since) {
		return -1
	}
	if !ts.Before(t.current) {
		return 23
	}
	hoursBack := int((t.current.Sub(ts)-1)/time.Hour) + 1
	if i := 23 - hoursBack; i >= 0 {
		return i
	}
	return 23
}

// add counts ts if it falls inside the window.
func (t *hourlyTrend) add(ts time.Time) {
	if i := t.bucket(ts); i >= 0 {
		t.counts[i]++
	}
}

func (t *hourlyTrend) buckets() []models.HourBucket {
	out := make([]models.HourBucket, len(t.labels))
	for i, label := range t.labels {
		out[i] = models.HourBucket{Hour: label, Count: t.counts[i]}
	}
	return out
}
