// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package models

import "time"

// UnknownCity is stored when an attempt is recorded without a resolved city.
// It is never geocoded and never appears on the map.
const UnknownCity = "Unknown"

// Attempt is one captured credential guess. The JSON field names are those of
// the attempt log file and must not change.
type Attempt struct {
	Timestamp Timestamp `json:"timestamp"`
	IP        string    `json:"ip"`
	Password  string    `json:"password"`
	City      string    `json:"city"`
	Username  string    `json:"username,omitempty"`
}

// NewAttempt stamps a new attempt with now.
func NewAttempt(now time.Time, ip, username, password, city string) Attempt {
	return Attempt{
		Timestamp: NewTimestamp(now),
		IP:        ip,
		Password:  password,
		City:      city,
		Username:  username,
	}
}

// CityOrUnknown returns the city, substituting UnknownCity for an empty value.
func (a *Attempt) CityOrUnknown() string {
	if a.City == "" {
		return UnknownCity
	}
	return a.City
}
