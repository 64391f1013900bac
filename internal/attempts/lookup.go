// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package attempts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/knockwatch/internal/geo"
	"github.com/tomtom215/knockwatch/internal/jsonfile"
	"github.com/tomtom215/knockwatch/internal/logging"
	"github.com/tomtom215/knockwatch/internal/metrics"
	"github.com/tomtom215/knockwatch/internal/models"
)

// ErrNoCity is returned when a source address cannot be resolved to a city.
var ErrNoCity = errors.New("no city for address")

// IPLocator resolves an address through an external service.
type IPLocator interface {
	Lookup(ctx context.Context, ip string) (*models.IPLocation, error)
}

// GeoRecorder accepts coordinates for a city learned from an IP lookup.
type GeoRecorder interface {
	Remember(city string, e models.GeoEntry) error
}

// memo is the IP to city map persisted as city_data.json.
type memo struct {
	mu        sync.RWMutex
	cities    map[string]string
	persistMu sync.Mutex
	path      string
	group     singleflight.Group
}

func newMemo(path string) *memo {
	return &memo{cities: make(map[string]string), path: path}
}

func (m *memo) load() {
	loaded := make(map[string]string)
	if m.path != "" {
		if err := jsonfile.Load(m.path, &loaded); err != nil {
			if !errors.Is(err, jsonfile.ErrMissing) {
				logging.Warn().Err(err).Str("path", m.path).Msg("IP memo unreadable, starting empty")
			}
			loaded = make(map[string]string)
		}
	}
	for ip, city := range loaded {
		if city == "" {
			delete(loaded, ip)
		}
	}

	m.mu.Lock()
	m.cities = loaded
	m.mu.Unlock()
}

func (m *memo) get(ip string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	city, ok := m.cities[ip]
	return city, ok
}

func (m *memo) set(ip, city string) error {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	m.cities[ip] = city
	snapshot := make(map[string]string, len(m.cities))
	for k, v := range m.cities {
		snapshot[k] = v
	}
	m.mu.Unlock()

	if m.path == "" {
		return nil
	}
	if err := jsonfile.Save(m.path, snapshot); err != nil {
		return fmt.Errorf("save ip memo: %w", err)
	}
	return nil
}

func (m *memo) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cities)
}

func (m *memo) keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.cities))
	for ip := range m.cities {
		out = append(out, ip)
	}
	return out
}

// LookupCity returns the city of ip, from the memo when possible. A fresh
// lookup is memoized and its coordinates are offered to the geo cache.
// Failures return ErrNoCity and leave the memo unchanged.
func (s *Store) LookupCity(ctx context.Context, ip string) (string, error) {
	ip = geo.NormalizeIP(ip)
	if city, ok := s.memo.get(ip); ok {
		metrics.RecordGeoLookup(metrics.SourceMemo, "hit")
		return city, nil
	}
	if s.locator == nil {
		return "", fmt.Errorf("%w: %s: no locator configured", ErrNoCity, ip)
	}

	v, err, _ := s.memo.group.Do(ip, func() (interface{}, error) {
		return s.lookupRemote(ctx, ip)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Store) lookupRemote(ctx context.Context, ip string) (string, error) {
	if city, ok := s.memo.get(ip); ok {
		return city, nil
	}

	log := logging.Ctx(ctx).With().Str("ip", ip).Logger()

	loc, err := s.locator.Lookup(ctx, ip)
	if err != nil {
		switch {
		case errors.Is(err, geo.ErrPrivateAddress), errors.Is(err, geo.ErrNotFound):
			metrics.RecordGeoLookup(metrics.SourceIPAPI, "miss")
			log.Debug().Err(err).Msg("IP has no city")
		default:
			metrics.RecordGeoLookup(metrics.SourceIPAPI, "error")
			log.Warn().Err(err).Msg("IP lookup failed")
		}
		return "", fmt.Errorf("%w: %s: %w", ErrNoCity, ip, err)
	}
	metrics.RecordGeoLookup(metrics.SourceIPAPI, "hit")

	if err := s.memo.set(ip, loc.City); err != nil {
		log.Error().Err(err).Msg("Failed to persist IP memo")
	}

	if s.geo != nil {
		if err := s.geo.Remember(loc.City, loc.Entry()); err != nil {
			if errors.Is(err, geo.ErrInvalidEntry) {
				log.Warn().Err(err).Str("city", loc.City).Msg("IP lookup coordinates rejected")
			} else {
				log.Error().Err(err).Str("city", loc.City).Msg("Failed to remember city location")
			}
		}
	}

	log.Debug().Str("city", loc.City).Msg("Resolved IP to city")
	return loc.City, nil
}
