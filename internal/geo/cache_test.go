// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package geo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/knockwatch/internal/jsonfile"
	"github.com/tomtom215/knockwatch/internal/models"
)

type fakeGeocoder struct {
	mu         sync.Mutex
	calls      int
	queries    []string
	candidates []models.GeoEntry
	err        error
	delay      time.Duration
}

func (f *fakeGeocoder) Geocode(_ context.Context, query string) ([]models.GeoEntry, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.GeoEntry(nil), f.candidates...), nil
}

func (f *fakeGeocoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var fixedNow = time.Date(2024, 7, 1, 9, 30, 0, 0, time.Local)

func newTestCache(t *testing.T, remote Geocoder) (*Cache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geo_data.json")
	c := NewCache(CacheConfig{Path: path, Remote: remote, Now: func() time.Time { return fixedNow }})
	t.Cleanup(c.Close)
	return c, path
}

func TestCache_ResolveStatic(t *testing.T) {
	t.Parallel()

	remote := &fakeGeocoder{}
	c, _ := newTestCache(t, remote)

	e, err := c.Resolve(context.Background(), "Seoul")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if e.Country != "South Korea" || e.Lat != 37.5665 {
		t.Errorf("unexpected entry %+v", e)
	}
	if remote.callCount() != 0 {
		t.Error("static city must not reach the remote geocoder")
	}
	if c.Len() != 0 {
		t.Error("static city must not be cached durably")
	}
}

func TestCache_BadRemoteCandidateForStaticCity(t *testing.T) {
	t.Parallel()

	moscow, _ := StaticEntry("Moscow")
	bad := models.GeoEntry{Lat: moscow.Lat + 10, Lon: moscow.Lon, Country: "Russia"}
	if err := Verify("Moscow", &bad); err == nil {
		t.Fatal("a candidate 10 degrees off must fail verification")
	}

	remote := &fakeGeocoder{candidates: []models.GeoEntry{bad}}
	c, _ := newTestCache(t, remote)

	e, err := c.Resolve(context.Background(), "Moscow")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if e.Lat != moscow.Lat || e.Lon != moscow.Lon {
		t.Errorf("Resolve(Moscow) = %+v, want static entry", e)
	}
}

func TestCache_ResolveRemote(t *testing.T) {
	t.Parallel()

	remote := &fakeGeocoder{candidates: []models.GeoEntry{
		{Lat: 40.0, Lon: -80.0, Country: "United States", AdminArea: "PA"},
		{Lat: 21.0285, Lon: 105.8542, Country: "Vietnam", AdminArea: "Hà Nội"},
	}}
	c, path := newTestCache(t, remote)

	e, err := c.Resolve(context.Background(), "Hanoi")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if e.Country != "Vietnam" || e.City != "Hanoi" {
		t.Errorf("expected the Vietnam candidate, got %+v", e)
	}
	if !e.LastUpdated.Equal(fixedNow) {
		t.Errorf("LastUpdated = %v", e.LastUpdated.Time)
	}
	if remote.queries[0] != "Hanoi, Vietnam" {
		t.Errorf("query = %q, want country suffix", remote.queries[0])
	}

	var onDisk map[string]models.GeoEntry
	if err := jsonfile.Load(path, &onDisk); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if _, ok := onDisk["Hanoi"]; !ok {
		t.Errorf("remote result not persisted: %v", onDisk)
	}

	// Second resolve is a durable hit.
	if _, err := c.Resolve(context.Background(), "Hanoi"); err != nil {
		t.Fatal(err)
	}
	if remote.callCount() != 1 {
		t.Errorf("remote called %d times, want 1", remote.callCount())
	}
}

func TestCache_ResolveRemoteNoValidCandidate(t *testing.T) {
	t.Parallel()

	remote := &fakeGeocoder{candidates: []models.GeoEntry{
		{Lat: 13.75, Lon: 100.5, Country: "Laos"},
	}}
	c, _ := newTestCache(t, remote)

	_, err := c.Resolve(context.Background(), "Bangkok")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("rejected candidate must not be cached")
	}
}

func TestCache_NegativeCache(t *testing.T) {
	t.Parallel()

	remote := &fakeGeocoder{err: errors.New("connection refused")}
	c, _ := newTestCache(t, remote)

	for i := 0; i < 3; i++ {
		if _, err := c.Resolve(context.Background(), "Atlantis"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("attempt %d: expected ErrNotFound, got %v", i, err)
		}
	}
	if remote.callCount() != 1 {
		t.Errorf("remote called %d times, want 1", remote.callCount())
	}
}

func TestCache_NoRemoteAndUnknown(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, nil)
	if _, err := c.Resolve(context.Background(), "Berlin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound without remote, got %v", err)
	}

	remote := &fakeGeocoder{}
	c2, _ := newTestCache(t, remote)
	if _, err := c2.Resolve(context.Background(), models.UnknownCity); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for Unknown, got %v", err)
	}
	if remote.callCount() != 0 {
		t.Error("Unknown must never be geocoded")
	}
}

func TestCache_SingleflightDedupe(t *testing.T) {
	t.Parallel()

	remote := &fakeGeocoder{
		candidates: []models.GeoEntry{{Lat: 52.52, Lon: 13.405, Country: "Germany"}},
		delay:      50 * time.Millisecond,
	}
	c, _ := newTestCache(t, remote)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Resolve(context.Background(), "Berlin"); err != nil {
				t.Errorf("Resolve error: %v", err)
			}
		}()
	}
	wg.Wait()

	if remote.callCount() != 1 {
		t.Errorf("remote called %d times, want 1", remote.callCount())
	}
}

func TestCache_LoadVerifiesAndRewrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "geo_data.json")
	initial := `{
  "Moscow": {"lat": 45.0, "lon": 37.6, "country": "Russia", "last_updated": "2024-01-01T00:00:00.000000"},
  "Hanoi": {"lat": 21.0, "lon": 105.8, "country": "China", "last_updated": "2024-01-01T00:00:00"},
  "Berlin": {"lat": 52.52, "lon": 13.405, "country": "Germany", "admin_area": "Berlin", "last_updated": "2024-01-01T00:00:00.000000"}
}`
	if err := os.WriteFile(path, []byte(initial), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewCache(CacheConfig{Path: path})
	defer c.Close()
	if err := c.Load(); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if c.Len() != 1 {
		t.Fatalf("expected only Berlin to survive, got %v", c.Cities())
	}
	e, ok := c.Lookup("Berlin")
	if !ok || e.AdminArea != "Berlin" || !e.LastUpdated.Valid() {
		t.Errorf("Lookup(Berlin) = %+v, %v", e, ok)
	}

	var onDisk map[string]models.GeoEntry
	if err := jsonfile.Load(path, &onDisk); err != nil {
		t.Fatal(err)
	}
	if len(onDisk) != 1 {
		t.Errorf("file not rewritten, has %d entries", len(onDisk))
	}
}

func TestCache_LoadMalformedOrMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("[not a map"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{bad, filepath.Join(dir, "missing.json")} {
		c := NewCache(CacheConfig{Path: path})
		if err := c.Load(); err != nil {
			t.Errorf("Load(%s) error: %v", path, err)
		}
		if c.Len() != 0 {
			t.Errorf("Load(%s) should yield an empty cache", path)
		}
		var onDisk map[string]models.GeoEntry
		if err := jsonfile.Load(path, &onDisk); err != nil || len(onDisk) != 0 {
			t.Errorf("expected empty rewritten file, got %v, %v", onDisk, err)
		}
		c.Close()
	}
}

func TestCache_Remember(t *testing.T) {
	t.Parallel()

	c, path := newTestCache(t, nil)

	if err := c.Remember("Berlin", models.GeoEntry{Lat: 52.52, Lon: 13.405, Country: "Germany", AdminArea: "Berlin"}); err != nil {
		t.Fatalf("Remember error: %v", err)
	}
	if err := c.Remember("Tokyo", models.GeoEntry{Lat: 0, Lon: 0, Country: "Japan"}); err != nil {
		t.Errorf("static city should be ignored, got %v", err)
	}
	if err := c.Remember("Hanoi", models.GeoEntry{Lat: 21, Lon: 105.8, Country: "China"}); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("expected ErrInvalidEntry, got %v", err)
	}
	if err := c.Remember("Berlin", models.GeoEntry{Lat: 1, Lon: 1, Country: "Germany"}); err != nil {
		t.Errorf("existing entry should be left alone, got %v", err)
	}

	e, err := c.Resolve(context.Background(), "Berlin")
	if err != nil || e.Lat != 52.52 {
		t.Errorf("Resolve(Berlin) = %+v, %v", e, err)
	}

	reloaded := NewCache(CacheConfig{Path: path})
	defer reloaded.Close()
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Cities(); len(got) != 1 || got[0] != "Berlin" {
		t.Errorf("reloaded cities = %v", got)
	}
}

func TestCache_ConcurrentRememberNoLostUpdates(t *testing.T) {
	t.Parallel()

	c, path := newTestCache(t, nil)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			city := fmt.Sprintf("Town-%02d", i)
			if err := c.Remember(city, models.GeoEntry{Lat: float64(i), Lon: float64(i)}); err != nil {
				t.Errorf("Remember(%s) error: %v", city, err)
			}
		}(i)
	}
	wg.Wait()

	var onDisk map[string]models.GeoEntry
	if err := jsonfile.Load(path, &onDisk); err != nil {
		t.Fatal(err)
	}
	if len(onDisk) != n {
		t.Errorf("file has %d entries, want %d", len(onDisk), n)
	}
}
