// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

// Package attempts owns the attempt log and the IP to city memo.
//
// Both live in memory and are rewritten to their JSON files on every change.
// Writers are serialized per file; readers get a copy of the slice header
// and never wait on a file write.
package attempts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/knockwatch/internal/jsonfile"
	"github.com/tomtom215/knockwatch/internal/logging"
	"github.com/tomtom215/knockwatch/internal/models"
)

// Observer is called after an attempt has been appended and persisted.
// Observers run on the recording goroutine and must not block.
type Observer func(models.Attempt)

// Config configures Store.
type Config struct {
	AttemptsPath string // attempt log file; empty keeps it in memory
	MemoPath     string // IP to city memo file; empty keeps it in memory

	Locator IPLocator   // nil disables IP lookups
	Geo     GeoRecorder // optional sink for coordinates learned from Locator
	Now     func() time.Time
}

// Store is the attempt log. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	attempts []models.Attempt

	// persistMu orders attempt log writes.
	persistMu sync.Mutex

	memo *memo

	observersMu sync.RWMutex
	observers   []Observer

	path    string
	locator IPLocator
	geo     GeoRecorder
	now     func() time.Time
}

// New creates an empty store. Call Load to read prior state.
func New(cfg Config) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		memo:    newMemo(cfg.MemoPath),
		path:    cfg.AttemptsPath,
		locator: cfg.Locator,
		geo:     cfg.Geo,
		now:     cfg.Now,
	}
}

// Load reads the attempt log and the memo. Missing or malformed files yield
// empty state rather than an error.
func (s *Store) Load() error {
	var loaded []models.Attempt
	if s.path != "" {
		if err := jsonfile.Load(s.path, &loaded); err != nil {
			if !errors.Is(err, jsonfile.ErrMissing) {
				logging.Warn().Err(err).Str("path", s.path).Msg("Attempt log unreadable, starting empty")
			}
			loaded = nil
		}
	}
	for i := range loaded {
		loaded[i].City = loaded[i].CityOrUnknown()
	}

	s.mu.Lock()
	s.attempts = loaded
	s.mu.Unlock()

	s.memo.load()

	logging.Info().Int("attempts", len(loaded)).Int("memoized_ips", s.memo.len()).Msg("Attempt store loaded")
	return nil
}

// Record appends a to the log and writes the log to disk before returning.
// If the write fails the attempt stays in memory and the error is returned.
func (s *Store) Record(ctx context.Context, a models.Attempt) error {
	if !a.Timestamp.Valid() {
		a.Timestamp = models.NewTimestamp(s.now())
	}
	a.City = a.CityOrUnknown()

	s.persistMu.Lock()
	s.mu.Lock()
	s.attempts = append(s.attempts, a)
	snapshot := s.attempts[:len(s.attempts):len(s.attempts)]
	s.mu.Unlock()

	err := s.save(snapshot)
	s.persistMu.Unlock()

	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("ip", a.IP).Msg("Failed to persist attempt log")
	}

	s.observersMu.RLock()
	observers := s.observers
	s.observersMu.RUnlock()
	for _, fn := range observers {
		fn(a)
	}
	return err
}

func (s *Store) save(snapshot []models.Attempt) error {
	if s.path == "" {
		return nil
	}
	if snapshot == nil {
		snapshot = []models.Attempt{}
	}
	if err := jsonfile.Save(s.path, snapshot); err != nil {
		return fmt.Errorf("save attempt log: %w", err)
	}
	return nil
}

// Subscribe registers fn to be called for every recorded attempt.
func (s *Store) Subscribe(fn Observer) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	s.observers = append(s.observers, fn)
}

// All returns the attempts in recording order. A non-zero since keeps only
// attempts at or after it; attempts without a parseable timestamp are then
// left out. The result must not be modified.
func (s *Store) All(since time.Time) []models.Attempt {
	s.mu.RLock()
	all := s.attempts[:len(s.attempts):len(s.attempts)]
	s.mu.RUnlock()

	if since.IsZero() {
		return all
	}
	out := make([]models.Attempt, 0, len(all))
	for i := range all {
		if all[i].Timestamp.Valid() && !all[i].Timestamp.Before(since) {
			out = append(out, all[i])
		}
	}
	return out
}

// Recent returns up to limit attempts, newest first.
func (s *Store) Recent(limit int, since time.Time) []models.Attempt {
	all := s.All(since)
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]models.Attempt, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out
}

// Len returns the number of recorded attempts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}

// MemoizedIPs returns the IPs with a memoized city, sorted.
func (s *Store) MemoizedIPs() []string {
	ips := s.memo.keys()
	sort.Strings(ips)
	return ips
}
