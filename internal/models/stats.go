// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package models

import (
	"fmt"
	"time"
)

// TimeRange selects which attempts an aggregation considers.
type TimeRange string

const (
	RangeAll     TimeRange = "all"
	RangeLast24h TimeRange = "24h"
)

// Window is the span covered by RangeLast24h and by the hourly histogram.
const Window = 24 * time.Hour

// ParseTimeRange maps a query value to a TimeRange. Empty means RangeAll.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "", RangeAll:
		return RangeAll, nil
	case RangeLast24h:
		return RangeLast24h, nil
	default:
		return "", fmt.Errorf("unknown time range %q", s)
	}
}

// Since returns the lower bound for the range, or the zero time for RangeAll.
func (r TimeRange) Since(now time.Time) time.Time {
	if r == RangeLast24h {
		return now.Add(-Window)
	}
	return time.Time{}
}

// IPCount is one row of the top source addresses.
type IPCount struct {
	IP    string `json:"ip"`
	City  string `json:"city"`
	Count int    `json:"count"`
}

// CityCount is one row of the top cities.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// CountryCount is one row of the top countries.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// HourBucket is one hour of the 24-hour trend, labelled "HH:00".
type HourBucket struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// StatsSnapshot is the aggregated dashboard view over one TimeRange.
type StatsSnapshot struct {
	Range           TimeRange      `json:"range"`
	TotalAttempts   int            `json:"total_attempts"`
	UniqueIPs       int            `json:"unique_ips"`
	UniqueCities    int            `json:"unique_cities"`
	UniqueCountries int            `json:"unique_countries"`
	TopIPs          []IPCount      `json:"top_ips"`
	TopCities       []CityCount    `json:"top_cities"`
	TopCountries    []CountryCount `json:"top_countries"`
	HourlyTrend     []HourBucket   `json:"hourly_trend"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// MapPoint is a city marker for the attack map.
type MapPoint struct {
	City      string  `json:"city"`
	Count     int     `json:"count"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Country   string  `json:"country,omitempty"`
	AdminArea string  `json:"admin_area,omitempty"`
}
