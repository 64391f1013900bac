// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/knockwatch/internal/models"
	"github.com/tomtom215/knockwatch/internal/validation"
)

// MaxCoordinateDelta is how far, in degrees of latitude or longitude, an
// entry may sit from the static location of the same city.
const MaxCoordinateDelta = 1.0

// ErrInvalidEntry is wrapped by every Verify failure.
var ErrInvalidEntry = errors.New("geo entry failed verification")

// Verify checks e against what is statically known about city. Coordinates
// must be within MaxCoordinateDelta of the static location and the country
// must match the known country exactly; cities with neither constraint only
// need well-formed coordinates.
func Verify(city string, e *models.GeoEntry) error {
	candidate := *e
	candidate.City = city
	if verr := validation.ValidateStruct(&candidate); verr != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEntry, verr.Error())
	}

	if known, ok := knownLocations[city]; ok {
		if math.Abs(e.Lat-known.lat) > MaxCoordinateDelta || math.Abs(e.Lon-known.lon) > MaxCoordinateDelta {
			return fmt.Errorf("%w: %s at (%.4f, %.4f) is too far from (%.4f, %.4f)",
				ErrInvalidEntry, city, e.Lat, e.Lon, known.lat, known.lon)
		}
	}

	if country, ok := knownCountries[city]; ok && e.Country != country {
		return fmt.Errorf("%w: %s reported in %q, expected %q", ErrInvalidEntry, city, e.Country, country)
	}

	return nil
}
