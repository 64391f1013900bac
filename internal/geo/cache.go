// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package geo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/knockwatch/internal/cache"
	"github.com/tomtom215/knockwatch/internal/jsonfile"
	"github.com/tomtom215/knockwatch/internal/logging"
	"github.com/tomtom215/knockwatch/internal/metrics"
	"github.com/tomtom215/knockwatch/internal/models"
)

// Geocoder turns a free-text place query into ranked candidates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]models.GeoEntry, error)
}

// CacheConfig configures Cache.
type CacheConfig struct {
	// Path of the durable cache file. Empty keeps entries in memory only.
	Path string

	// Remote is the third lookup tier. Nil disables it.
	Remote Geocoder

	// NegativeTTL is how long a failed remote lookup suppresses new ones.
	NegativeTTL time.Duration

	// Now overrides the clock used for last_updated, for tests.
	Now func() time.Time
}

// Cache resolves city names to locations. One instance is shared by every
// component; all writes to the durable file go through it.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]models.GeoEntry

	// persistMu orders file writes so the file never regresses to an older
	// snapshot than the one in memory.
	persistMu sync.Mutex

	path   string
	remote Geocoder
	misses *cache.Cache[error]
	group  singleflight.Group
	now    func() time.Time
}

// NewCache creates an empty cache. Call Load to read the durable file.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache{
		entries: make(map[string]models.GeoEntry),
		path:    cfg.Path,
		remote:  cfg.Remote,
		misses:  cache.New[error](cfg.NegativeTTL, cache.WithClock(cfg.Now)),
		now:     cfg.Now,
	}
}

// Load replaces the in-memory entries with the durable file, discards every
// entry that fails Verify and rewrites the file. A missing or malformed file
// yields an empty cache; only a failed rewrite is returned as an error.
func (c *Cache) Load() error {
	raw := make(map[string]models.GeoEntry)
	if c.path != "" {
		if err := jsonfile.Load(c.path, &raw); err != nil {
			if !errors.Is(err, jsonfile.ErrMissing) {
				logging.Warn().Err(err).Str("path", c.path).Msg("Geo cache unreadable, starting empty")
			}
			raw = make(map[string]models.GeoEntry)
		}
	}

	verified := make(map[string]models.GeoEntry, len(raw))
	for city, e := range raw {
		e.City = city
		if err := Verify(city, &e); err != nil {
			metrics.GeoInvalidEntries.Inc()
			logging.Warn().Str("city", city).Err(err).Msg("Removing invalid geo cache entry")
			continue
		}
		verified[city] = e
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	c.entries = verified
	c.mu.Unlock()
	metrics.GeoCacheEntries.Set(float64(len(verified)))

	logging.Info().Int("entries", len(verified)).Int("discarded", len(raw)-len(verified)).Msg("Geo cache loaded")
	return c.saveLocked(verified)
}

// Resolve returns the location of city from the first tier that has it.
// Remote failures are not retried within one call; they yield ErrNotFound.
func (c *Cache) Resolve(ctx context.Context, city string) (models.GeoEntry, error) {
	if e, ok := StaticEntry(city); ok {
		metrics.RecordGeoLookup(metrics.SourceStatic, "hit")
		return e, nil
	}
	if e, ok := c.durable(city); ok {
		metrics.RecordGeoLookup(metrics.SourceDurable, "hit")
		return e, nil
	}
	if city == "" || city == models.UnknownCity || c.remote == nil {
		return models.GeoEntry{}, ErrNotFound
	}
	if _, ok := c.misses.Get(city); ok {
		metrics.RecordGeoLookup(metrics.SourceRemote, "suppressed")
		return models.GeoEntry{}, ErrNotFound
	}

	v, err, _ := c.group.Do(city, func() (interface{}, error) {
		return c.fetchRemote(ctx, city)
	})
	if err != nil {
		return models.GeoEntry{}, err
	}
	return v.(models.GeoEntry), nil
}

// Lookup consults the static table and the durable cache without touching
// the network.
func (c *Cache) Lookup(city string) (models.GeoEntry, bool) {
	if e, ok := StaticEntry(city); ok {
		return e, true
	}
	return c.durable(city)
}

func (c *Cache) durable(city string) (models.GeoEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[city]
	return e, ok
}

func (c *Cache) fetchRemote(ctx context.Context, city string) (models.GeoEntry, error) {
	// A concurrent Remember may have filled the entry since Resolve checked.
	if e, ok := c.durable(city); ok {
		return e, nil
	}

	query := city
	if country, ok := KnownCountry(city); ok {
		query = city + ", " + country
	}

	log := logging.Ctx(ctx).With().Str("component", "geo").Str("city", city).Logger()

	candidates, err := c.remote.Geocode(ctx, query)
	if err != nil {
		c.misses.Set(city, err)
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrRemoteDisabled):
			metrics.RecordGeoLookup(metrics.SourceRemote, "miss")
			log.Debug().Err(err).Msg("Remote geocoding found nothing")
		default:
			metrics.RecordGeoLookup(metrics.SourceRemote, "error")
			log.Warn().Err(err).Msg("Remote geocoding failed")
		}
		return models.GeoEntry{}, fmt.Errorf("%w: %s", ErrNotFound, city)
	}

	country, hasCountry := KnownCountry(city)
	for i := range candidates {
		cand := candidates[i]
		if hasCountry && cand.Country != country {
			continue
		}
		if err := Verify(city, &cand); err != nil {
			log.Debug().Err(err).Msg("Rejected geocoding candidate")
			continue
		}

		cand.City = city
		cand.LastUpdated = models.NewTimestamp(c.now())
		if err := c.store(cand); err != nil {
			// The entry is valid; serve it even if the file write failed.
			log.Error().Err(err).Msg("Failed to persist geo cache")
		}
		metrics.RecordGeoLookup(metrics.SourceRemote, "hit")
		log.Info().Float64("lat", cand.Lat).Float64("lon", cand.Lon).Str("country", cand.Country).
			Msg("Cached remote location")
		return cand, nil
	}

	c.misses.Set(city, ErrNotFound)
	metrics.RecordGeoLookup(metrics.SourceRemote, "miss")
	log.Debug().Int("candidates", len(candidates)).Msg("No geocoding candidate passed verification")
	return models.GeoEntry{}, fmt.Errorf("%w: no valid candidate for %s", ErrNotFound, city)
}

// Remember stores a location learned elsewhere (the IP geolocation service)
// for a city that has no entry yet. Static cities and cities already cached
// are left untouched. The entry must pass Verify.
func (c *Cache) Remember(city string, e models.GeoEntry) error {
	if city == "" || city == models.UnknownCity {
		return nil
	}
	if _, ok := StaticEntry(city); ok {
		return nil
	}
	if _, ok := c.durable(city); ok {
		return nil
	}

	e.City = city
	if err := Verify(city, &e); err != nil {
		metrics.GeoInvalidEntries.Inc()
		return err
	}
	e.LastUpdated = models.NewTimestamp(c.now())

	if err := c.store(e); err != nil {
		return err
	}
	c.misses.Delete(city)
	return nil
}

// store inserts e and persists the whole cache.
func (c *Cache) store(e models.GeoEntry) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	c.entries[e.City] = e
	snapshot := make(map[string]models.GeoEntry, len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.mu.Unlock()

	metrics.GeoCacheEntries.Set(float64(len(snapshot)))
	return c.saveLocked(snapshot)
}

// saveLocked must be called with persistMu held.
func (c *Cache) saveLocked(entries map[string]models.GeoEntry) error {
	if c.path == "" {
		return nil
	}
	if err := jsonfile.Save(c.path, entries); err != nil {
		return fmt.Errorf("save geo cache: %w", err)
	}
	return nil
}

// Len returns the number of durable entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cities returns the durably cached city names, sorted.
func (c *Cache) Cities() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.entries))
	for city := range c.entries {
		out = append(out, city)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Cleanup drops expired negative entries and returns how many were removed.
func (c *Cache) Cleanup() int {
	return c.misses.Sweep()
}

// Close stops background work.
func (c *Cache) Close() {
	c.misses.Close()
}
