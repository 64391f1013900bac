// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

/*
Package geo resolves where attacks come from.

Two questions are answered here. The IP tier (IPAPIProvider) maps a source
address to a city through ip-api.com. The city tier (Cache) maps a city name
to coordinates and a country, trying in order:

 1. the static table of well-known cities, which is authoritative
 2. the durable cache file, re-verified every time it is loaded
 3. the remote geocoder (Bing Maps), whose candidates must pass Verify

Remote calls run behind gobreaker circuit breakers and remote misses are
remembered for a configurable TTL, so dashboard reads cannot hammer a service
that is down or rate limiting. Every mutation of the durable cache is
serialized and written atomically.
*/
package geo
