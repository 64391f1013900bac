// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

/*
Package models defines the data shared by the honeypot, the stores and the
dashboard API.

Persisted records:

  - Attempt: one rejected password, as stored in ssh_attempts.json
  - GeoEntry: a city location, as stored in geo_data.json
  - Timestamp: the naive local time format used by the attempt log

Lookup results:

  - IPLocation: what the IP geolocation service reports for an address

Dashboard views:

  - TimeRange: "all" or "24h"
  - StatsSnapshot with IPCount, CityCount, CountryCount and HourBucket
  - MapPoint: one city marker

JSON field names match the files written by earlier deployments, so
existing attempt logs and caches load unchanged.

# Timestamps

Attempt timestamps are written as 2006-01-02T15:04:05.000000 in local time.
Reading also accepts RFC 3339. A value that parses as neither is kept
verbatim and reports Valid() == false; such attempts still count toward
all-time totals but never fall inside a time window.
*/
package models
