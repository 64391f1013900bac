// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package stats

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/knockwatch/internal/geo"
	"github.com/tomtom215/knockwatch/internal/models"
)

type sliceSource struct {
	mu       sync.Mutex
	attempts []models.Attempt
}

func (s *sliceSource) add(ts time.Time, ip, city string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := models.NewAttempt(ts, ip, "root", "pw", city)
	s.attempts = append(s.attempts, a)
}

func (s *sliceSource) addInvalid(ip, city string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, models.Attempt{IP: ip, Password: "pw", City: city})
}

func (s *sliceSource) All(since time.Time) []models.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Attempt, 0, len(s.attempts))
	for _, a := range s.attempts {
		if since.IsZero() || (a.Timestamp.Valid() && !a.Timestamp.Before(since)) {
			out = append(out, a)
		}
	}
	return out
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testNow = time.Date(2024, 7, 1, 10, 30, 0, 0, time.Local)

func newStaticGeo(t *testing.T) *geo.Cache {
	t.Helper()
	c := geo.NewCache(geo.CacheConfig{})
	t.Cleanup(c.Close)
	return c
}

func TestSnapshot_ThreeAttemptScenario(t *testing.T) {
	t.Parallel()

	src := &sliceSource{}
	src.add(testNow.Add(-3*time.Hour), "1.2.3.4", "Moscow")
	src.add(testNow.Add(-2*time.Hour), "1.2.3.4", "Moscow")
	src.add(testNow.Add(-1*time.Hour), "5.6.7.8", "Beijing")

	agg := New(src, newStaticGeo(t), Config{Now: func() time.Time { return testNow }})
	s := agg.Snapshot(context.Background(), models.RangeAll)

	if s.TotalAttempts != 3 || s.UniqueIPs != 2 || s.UniqueCities != 2 || s.UniqueCountries != 2 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	wantIPs := []models.IPCount{
		{IP: "1.2.3.4", City: "Moscow", Count: 2},
		{IP: "5.6.7.8", City: "Beijing", Count: 1},
	}
	if len(s.TopIPs) != len(wantIPs) {
		t.Fatalf("TopIPs = %+v", s.TopIPs)
	}
	for i := range wantIPs {
		if s.TopIPs[i] != wantIPs[i] {
			t.Errorf("TopIPs[%d] = %+v, want %+v", i, s.TopIPs[i], wantIPs[i])
		}
	}
	if s.TopCountries[0] != (models.CountryCount{Country: "Russia", Count: 2}) ||
		s.TopCountries[1] != (models.CountryCount{Country: "China", Count: 1}) {
		t.Errorf("TopCountries = %+v", s.TopCountries)
	}
}

func TestSnapshot_LastCityWinsPerIP(t *testing.T) {
	t.Parallel()

	src := &sliceSource{}
	src.add(testNow.Add(-3*time.Hour), "9.9.9.9", "Moscow")
	src.add(testNow.Add(-2*time.Hour), "9.9.9.9", "Beijing")

	agg := New(src, nil, Config{Now: func() time.Time { return testNow }})
	s := agg.Snapshot(context.Background(), models.RangeAll)

	if len(s.TopIPs) != 1 || s.TopIPs[0].City != "Beijing" || s.TopIPs[0].Count != 2 {
		t.Errorf("TopIPs = %+v", s.TopIPs)
	}
	if s.UniqueCities != 2 || s.UniqueCountries != 0 {
		t.Errorf("unique cities %d, countries %d", s.UniqueCities, s.UniqueCountries)
	}
}

func TestSnapshot_TiesKeepFirstSeenOrder(t *testing.T) {
	t.Parallel()

	src := &sliceSource{}
	for _, ip := range []string{"3.3.3.3", "1.1.1.1", "2.2.2.2", "1.1.1.1", "4.4.4.4"} {
		src.add(testNow.Add(-time.Hour), ip, "Tokyo")
	}

	agg := New(src, nil, Config{TopN: 3, Now: func() time.Time { return testNow }})
	s := agg.Snapshot(context.Background(), models.RangeAll)

	want := []string{"1.1.1.1", "3.3.3.3", "2.2.2.2"}
	if len(s.TopIPs) != len(want) {
		t.Fatalf("TopIPs = %+v", s.TopIPs)
	}
	for i, ip := range want {
		if s.TopIPs[i].IP != ip {
			t.Errorf("TopIPs[%d] = %s, want %s", i, s.TopIPs[i].IP, ip)
		}
	}
}

func TestSnapshot_WindowAndHourlyTrend(t *testing.T) {
	t.Parallel()

	src := &sliceSource{}
	src.add(testNow.Add(-1*time.Hour), "1.1.1.1", "Paris")
	src.add(testNow.Add(-5*time.Hour), "2.2.2.2", "Paris")
	// 10:45 yesterday shares the "10:00" label with the current hour.
	src.add(testNow.Add(-23*time.Hour-45*time.Minute), "3.3.3.3", "London")
	src.add(testNow.Add(-25*time.Hour), "4.4.4.4", "London")
	src.addInvalid("5.5.5.5", "Seoul")

	agg := New(src, newStaticGeo(t), Config{Now: func() time.Time { return testNow }})
	all := agg.Snapshot(context.Background(), models.RangeAll)
	day := agg.Snapshot(context.Background(), models.RangeLast24h)

	if all.TotalAttempts != 5 {
		t.Errorf("all total = %d, want 5", all.TotalAttempts)
	}
	if day.TotalAttempts != 3 {
		t.Errorf("24h total = %d, want 3", day.TotalAttempts)
	}
	if day.TotalAttempts > all.TotalAttempts {
		t.Error("24h total exceeds all-time total")
	}

	for _, s := range []models.StatsSnapshot{all, day} {
		if len(s.HourlyTrend) != 24 {
			t.Fatalf("%s: %d buckets, want 24", s.Range, len(s.HourlyTrend))
		}
		sum := 0
		for i, b := range s.HourlyTrend {
			sum += b.Count
			h, err := strconv.Atoi(b.Hour[:2])
			if err != nil {
				t.Fatalf("bad label %q", b.Hour)
			}
			if i > 0 {
				prev, _ := strconv.Atoi(s.HourlyTrend[i-1].Hour[:2])
				if (prev+1)%24 != h {
					t.Errorf("%s: label %q does not follow %q", s.Range, b.Hour, s.HourlyTrend[i-1].Hour)
				}
			}
		}
		if sum != 3 {
			t.Errorf("%s: hourly sum = %d, want 3", s.Range, sum)
		}
		if s.HourlyTrend[23].Hour != "10:00" || s.HourlyTrend[23].Count != 1 {
			t.Errorf("%s: newest bucket = %+v", s.Range, s.HourlyTrend[23])
		}
		if s.HourlyTrend[22] != (models.HourBucket{Hour: "09:00", Count: 1}) {
			t.Errorf("%s: 09:00 bucket = %+v", s.Range, s.HourlyTrend[22])
		}
		if s.HourlyTrend[0].Hour != "11:00" {
			t.Errorf("%s: oldest bucket = %q", s.Range, s.HourlyTrend[0].Hour)
		}
	}
}

func TestSnapshot_EmptyLog(t *testing.T) {
	t.Parallel()

	agg := New(&sliceSource{}, nil, Config{Now: func() time.Time { return testNow }})
	s := agg.Snapshot(context.Background(), models.RangeLast24h)

	if s.TotalAttempts != 0 || len(s.TopIPs) != 0 || len(s.HourlyTrend) != 24 {
		t.Errorf("unexpected empty snapshot: %+v", s)
	}
	if s.TopIPs == nil || s.TopCities == nil || s.TopCountries == nil {
		t.Error("rankings should be empty, not nil")
	}
}

func TestSnapshot_CacheAndInvalidate(t *testing.T) {
	t.Parallel()

	clk := &clock{now: testNow}
	src := &sliceSource{}
	src.add(testNow.Add(-time.Hour), "1.1.1.1", "Tokyo")

	agg := New(src, nil, Config{CacheTTL: 30 * time.Second, Now: clk.Now})
	defer agg.Close()
	ctx := context.Background()

	if got := agg.Snapshot(ctx, models.RangeAll).TotalAttempts; got != 1 {
		t.Fatalf("total = %d", got)
	}

	src.add(testNow, "2.2.2.2", "Tokyo")
	if got := agg.Snapshot(ctx, models.RangeAll).TotalAttempts; got != 1 {
		t.Errorf("cached total = %d, want 1", got)
	}

	agg.Invalidate()
	if got := agg.Snapshot(ctx, models.RangeAll).TotalAttempts; got != 2 {
		t.Errorf("total after invalidate = %d, want 2", got)
	}

	src.add(testNow, "3.3.3.3", "Tokyo")
	clk.Advance(31 * time.Second)
	if got := agg.Snapshot(ctx, models.RangeAll).TotalAttempts; got != 3 {
		t.Errorf("total after expiry = %d, want 3", got)
	}
}

// recordingDuringRead simulates an attempt recorded while an aggregation is
// reading the log: the first All call returns the current log, then appends
// and fires the invalidation the store observer would.
type recordingDuringRead struct {
	*sliceSource
	once     sync.Once
	onRecord func()
}

func (r *recordingDuringRead) All(since time.Time) []models.Attempt {
	out := r.sliceSource.All(since)
	r.once.Do(func() {
		r.add(testNow, "9.9.9.9", "Moscow")
		r.onRecord()
	})
	return out
}

func TestSnapshot_InvalidateDuringCompute(t *testing.T) {
	t.Parallel()

	src := &recordingDuringRead{sliceSource: &sliceSource{}}
	src.add(testNow.Add(-time.Hour), "1.1.1.1", "Tokyo")

	agg := New(src, nil, Config{CacheTTL: 30 * time.Second, Now: func() time.Time { return testNow }})
	defer agg.Close()
	src.onRecord = agg.Invalidate
	ctx := context.Background()

	if got := agg.Snapshot(ctx, models.RangeAll).TotalAttempts; got != 1 {
		t.Fatalf("first total = %d, want 1", got)
	}
	if got := agg.Snapshot(ctx, models.RangeAll).TotalAttempts; got != 2 {
		t.Errorf("total after concurrent record = %d, want 2", got)
	}
}

func TestMapPoints_InvalidateDuringCompute(t *testing.T) {
	t.Parallel()

	src := &recordingDuringRead{sliceSource: &sliceSource{}}
	src.add(testNow, "1.1.1.1", "Beijing")

	agg := New(src, newStaticGeo(t), Config{CacheTTL: 30 * time.Second, Now: func() time.Time { return testNow }})
	defer agg.Close()
	src.onRecord = agg.Invalidate
	ctx := context.Background()

	if got := len(agg.MapPoints(ctx, models.RangeAll)); got != 1 {
		t.Fatalf("first points = %d, want 1", got)
	}
	if got := len(agg.MapPoints(ctx, models.RangeAll)); got != 2 {
		t.Errorf("points after concurrent record = %d, want 2", got)
	}
}

func TestMapPoints(t *testing.T) {
	t.Parallel()

	src := &sliceSource{}
	src.add(testNow, "1.1.1.1", "Beijing")
	src.add(testNow, "2.2.2.2", "Atlantis")
	src.add(testNow, "3.3.3.3", models.UnknownCity)
	src.add(testNow, "4.4.4.4", "Moscow")
	src.add(testNow, "5.5.5.5", "Beijing")

	agg := New(src, newStaticGeo(t), Config{Now: func() time.Time { return testNow }})
	points := agg.MapPoints(context.Background(), models.RangeAll)

	if len(points) != 2 {
		t.Fatalf("points = %+v", points)
	}
	if points[0].City != "Beijing" || points[0].Count != 2 || points[0].Country != "China" {
		t.Errorf("points[0] = %+v", points[0])
	}
	if points[1].City != "Moscow" || points[1].Lat != 55.7558 {
		t.Errorf("points[1] = %+v", points[1])
	}
}

func TestSnapshot_UnknownCityHasNoCountry(t *testing.T) {
	t.Parallel()

	src := &sliceSource{}
	src.add(testNow, "1.1.1.1", models.UnknownCity)
	src.add(testNow, "2.2.2.2", "Singapore")

	agg := New(src, newStaticGeo(t), Config{Now: func() time.Time { return testNow }})
	s := agg.Snapshot(context.Background(), models.RangeAll)

	if s.UniqueCities != 2 || s.UniqueCountries != 1 || s.TopCountries[0].Country != "Singapore" {
		t.Errorf("unexpected snapshot: %+v", s)
	}
}

func BenchmarkSnapshot(b *testing.B) {
	src := &sliceSource{}
	cities := []string{"Moscow", "Beijing", "Tokyo", "Paris", "London", "Seoul"}
	for i := 0; i < 50000; i++ {
		src.add(testNow.Add(-time.Duration(i)*time.Minute), fmt.Sprintf("10.%d.%d.%d", i%7, i%251, i%13), cities[i%len(cities)])
	}
	c := geo.NewCache(geo.CacheConfig{})
	defer c.Close()
	agg := New(src, c, Config{Now: func() time.Time { return testNow }})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.Snapshot(context.Background(), models.RangeAll)
	}
}
