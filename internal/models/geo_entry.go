// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package models

// GeoEntry is a resolved city location as stored in the geo cache file,
// which is keyed by city name.
type GeoEntry struct {
	City        string    `json:"-" validate:"knowncity"`
	Lat         float64   `json:"lat" validate:"latitude"`
	Lon         float64   `json:"lon" validate:"longitude"`
	Country     string    `json:"country,omitempty" validate:"omitempty,max=128"`
	AdminArea   string    `json:"admin_area,omitempty" validate:"omitempty,max=128"`
	LastUpdated Timestamp `json:"last_updated"`
}

// IPLocation is what the IP geolocation service reports for one address.
type IPLocation struct {
	IP      string  `json:"ip"`
	City    string  `json:"city"`
	Region  string  `json:"region,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Entry converts the location into a GeoEntry for its city.
func (l *IPLocation) Entry() GeoEntry {
	return GeoEntry{
		City:      l.City,
		Lat:       l.Lat,
		Lon:       l.Lon,
		Country:   l.Country,
		AdminArea: l.Region,
	}
}
