// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package geo

import "github.com/tomtom215/knockwatch/internal/models"

type staticLocation struct {
	lat, lon  float64
	country   string
	adminArea string
}

// knownLocations is authoritative: these cities never hit the cache file or
// the network, and any other source must agree with them.
var knownLocations = map[string]staticLocation{
	"Moscow":    {55.7558, 37.6173, "Russia", "Moscow"},
	"Beijing":   {39.9042, 116.4074, "China", "Beijing"},
	"Shanghai":  {31.2304, 121.4737, "China", "Shanghai"},
	"Hong Kong": {22.3193, 114.1694, "China", "Hong Kong"},
	"Singapore": {1.3521, 103.8198, "Singapore", "Singapore"},
	"Tokyo":     {35.6762, 139.6503, "Japan", "Tokyo"},
	"London":    {51.5074, -0.1278, "United Kingdom", "London"},
	"New York":  {40.7128, -74.0060, "United States", "New York"},
	"Paris":     {48.8566, 2.3522, "France", "Île-de-France"},
	"Guangzhou": {23.1291, 113.2644, "China", "Guangdong"},
	"Shenzhen":  {22.5429, 114.0596, "China", "Guangdong"},
	"Seoul":     {37.5665, 126.9780, "South Korea", "Seoul"},
}

// knownCountries constrains the country of a city and disambiguates remote
// queries. It covers a few cities without static coordinates.
var knownCountries = map[string]string{
	"Moscow":    "Russia",
	"Beijing":   "China",
	"Shanghai":  "China",
	"Guangzhou": "China",
	"Shenzhen":  "China",
	"Hong Kong": "China",
	"Singapore": "Singapore",
	"Tokyo":     "Japan",
	"Seoul":     "South Korea",
	"Hanoi":     "Vietnam",
	"Bangkok":   "Thailand",
	"London":    "United Kingdom",
	"Paris":     "France",
	"New York":  "United States",
}

// StaticEntry returns the built-in location for city.
func StaticEntry(city string) (models.GeoEntry, bool) {
	loc, ok := knownLocations[city]
	if !ok {
		return models.GeoEntry{}, false
	}
	return models.GeoEntry{
		City:      city,
		Lat:       loc.lat,
		Lon:       loc.lon,
		Country:   loc.country,
		AdminArea: loc.adminArea,
	}, true
}

// KnownCountry returns the country a city is known to belong to.
func KnownCountry(city string) (string, bool) {
	c, ok := knownCountries[city]
	return c, ok
}

// StaticCities lists the cities with built-in coordinates.
func StaticCities() []string {
	out := make([]string, 0, len(knownLocations))
	for city := range knownLocations {
		out = append(out, city)
	}
	return out
}
