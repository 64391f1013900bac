// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

// Package stats turns the attempt log into the dashboard views: ranked top-N
// lists, unique counts, the 24-hour trend and map points.
//
// Results are computed by a single pass over a read-only copy of the log and
// cached briefly per time range. The cache is dropped whenever an attempt is
// recorded.
package stats

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/knockwatch/internal/cache"
	"github.com/tomtom215/knockwatch/internal/logging"
	"github.com/tomtom215/knockwatch/internal/metrics"
	"github.com/tomtom215/knockwatch/internal/models"
)

// DefaultTopN is the length of every ranking.
const DefaultTopN = 10

// Source supplies attempts in recording order.
type Source interface {
	All(since time.Time) []models.Attempt
}

// CityResolver resolves a city to its location.
type CityResolver interface {
	Resolve(ctx context.Context, city string) (models.GeoEntry, error)
}

// Config configures Aggregator.
type Config struct {
	TopN     int           // default DefaultTopN
	CacheTTL time.Duration // 0 disables result caching
	Now      func() time.Time
}

// Aggregator computes snapshots and map points.
type Aggregator struct {
	source Source
	geo    CityResolver
	topN   int
	now    func() time.Time

	snapshots *cache.Cache[models.StatsSnapshot]
	points    *cache.Cache[[]models.MapPoint]

	// generation counts invalidations. A result is cached only if no
	// invalidation happened since its computation read the log; storeMu
	// makes that check and the Set atomic with respect to Invalidate.
	generation atomic.Uint64
	storeMu    sync.Mutex
}

// New creates an Aggregator over source. geo may be nil, in which case no
// country or coordinates are resolved.
func New(source Source, geo CityResolver, cfg Config) *Aggregator {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	a := &Aggregator{
		source: source,
		geo:    geo,
		topN:   cfg.TopN,
		now:    cfg.Now,
	}
	if cfg.CacheTTL > 0 {
		a.snapshots = cache.New[models.StatsSnapshot](cfg.CacheTTL, cache.WithClock(cfg.Now))
		a.points = cache.New[[]models.MapPoint](cfg.CacheTTL, cache.WithClock(cfg.Now))
	}
	return a
}

// Invalidate drops cached results. Call it whenever an attempt is recorded.
func (a *Aggregator) Invalidate() {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	a.generation.Add(1)
	if a.snapshots != nil {
		a.snapshots.Clear()
		a.points.Clear()
	}
}

// storeIfCurrent runs set unless the cache was invalidated after gen was
// read.
func (a *Aggregator) storeIfCurrent(gen uint64, set func()) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if a.generation.Load() == gen {
		set()
	}
}

// Close stops the cache janitors.
func (a *Aggregator) Close() {
	if a.snapshots != nil {
		a.snapshots.Close()
		a.points.Close()
	}
}

// Snapshot aggregates the attempts in r. Cities that cannot be resolved
// contribute to no country but still count everywhere else.
func (a *Aggregator) Snapshot(ctx context.Context, r models.TimeRange) models.StatsSnapshot {
	key := string(r)
	if a.snapshots != nil {
		if s, ok := a.snapshots.Get(key); ok {
			metrics.StatsCacheHits.Inc()
			return s
		}
		metrics.StatsCacheMisses.Inc()
	}

	gen := a.generation.Load()
	start := time.Now()
	s := a.compute(ctx, r)
	metrics.RecordStatsSnapshot(key, time.Since(start))

	logging.Ctx(ctx).Debug().
		Str("range", key).
		Int("total", s.TotalAttempts).
		Dur("duration", time.Since(start)).
		Msg("Computed stats snapshot")

	if a.snapshots != nil {
		a.storeIfCurrent(gen, func() { a.snapshots.Set(key, s) })
	}
	return s
}

func (a *Aggregator) compute(ctx context.Context, r models.TimeRange) models.StatsSnapshot {
	now := a.now()
	attempts := a.source.All(r.Since(now))

	ips := newCounter()
	cities := newCounter()
	countries := newCounter()
	lastCity := make(map[string]string)
	trend := newHourlyTrend(now)
	countryOf := a.countryResolver(ctx)

	for i := range attempts {
		at := &attempts[i]
		city := at.CityOrUnknown()

		ips.add(at.IP)
		lastCity[at.IP] = city
		cities.add(city)
		if country, ok := countryOf(city); ok {
			countries.add(country)
		}
		if at.Timestamp.Valid() {
			trend.add(at.Timestamp.Time)
		}
	}

	s := models.StatsSnapshot{
		Range:           r,
		TotalAttempts:   len(attempts),
		UniqueIPs:       ips.len(),
		UniqueCities:    cities.len(),
		UniqueCountries: countries.len(),
		TopIPs:          make([]models.IPCount, 0, a.topN),
		TopCities:       make([]models.CityCount, 0, a.topN),
		TopCountries:    make([]models.CountryCount, 0, a.topN),
		HourlyTrend:     trend.buckets(),
		GeneratedAt:     now,
	}
	for _, e := range ips.top(a.topN) {
		s.TopIPs = append(s.TopIPs, models.IPCount{IP: e.key, City: lastCity[e.key], Count: e.count})
	}
	for _, e := range cities.top(a.topN) {
		s.TopCities = append(s.TopCities, models.CityCount{City: e.key, Count: e.count})
	}
	for _, e := range countries.top(a.topN) {
		s.TopCountries = append(s.TopCountries, models.CountryCount{Country: e.key, Count: e.count})
	}
	return s
}

// countryResolver resolves each distinct city at most once per computation.
func (a *Aggregator) countryResolver(ctx context.Context) func(city string) (string, bool) {
	type result struct {
		country string
		ok      bool
	}
	seen := make(map[string]result)
	return func(city string) (string, bool) {
		if r, ok := seen[city]; ok {
			return r.country, r.ok
		}
		var r result
		if e, ok := a.resolve(ctx, city); ok && e.Country != "" {
			r = result{country: e.Country, ok: true}
		}
		seen[city] = r
		return r.country, r.ok
	}
}

func (a *Aggregator) resolve(ctx context.Context, city string) (models.GeoEntry, bool) {
	if a.geo == nil || city == models.UnknownCity {
		return models.GeoEntry{}, false
	}
	e, err := a.geo.Resolve(ctx, city)
	if err != nil {
		return models.GeoEntry{}, false
	}
	return e, true
}

// MapPoints returns one point per resolvable city in r, in first-seen order.
func (a *Aggregator) MapPoints(ctx context.Context, r models.TimeRange) []models.MapPoint {
	key := string(r)
	if a.points != nil {
		if p, ok := a.points.Get(key); ok {
			metrics.StatsCacheHits.Inc()
			return p
		}
		metrics.StatsCacheMisses.Inc()
	}

	gen := a.generation.Load()
	cities := newCounter()
	for _, at := range a.source.All(r.Since(a.now())) {
		cities.add(at.CityOrUnknown())
	}

	points := make([]models.MapPoint, 0, cities.len())
	cities.each(func(city string, count int) {
		e, ok := a.resolve(ctx, city)
		if !ok {
			return
		}
		points = append(points, models.MapPoint{
			City:      city,
			Count:     count,
			Lat:       e.Lat,
			Lon:       e.Lon,
			Country:   e.Country,
			AdminArea: e.AdminArea,
		})
	})

	if a.points != nil {
		a.storeIfCurrent(gen, func() { a.points.Set(key, points) })
	}
	return points
}
