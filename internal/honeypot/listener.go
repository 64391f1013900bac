// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package honeypot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/knockwatch/internal/logging"
	"github.com/tomtom215/knockwatch/internal/metrics"
)

// ErrPoolFull is logged when a connection is refused because every handler
// slot is busy.
var ErrPoolFull = errors.New("connection pool full")

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// ConnHandler serves one accepted connection and closes it.
type ConnHandler interface {
	Serve(ctx context.Context, conn net.Conn) error
}

// ListenerConfig configures Listener.
type ListenerConfig struct {
	Address        string
	MaxConnections int
	KeepAlive      time.Duration

	// Housekeeping runs after every HousekeepingEvery connections once
	// HousekeepingInterval has passed since the previous run. It always
	// returns freed memory to the OS; Cleanup adds extra work.
	HousekeepingEvery    int
	HousekeepingInterval time.Duration
	Cleanup              func()

	Now func() time.Time
}

// Listener accepts honeypot connections.
type Listener struct {
	cfg     ListenerConfig
	handler ConnHandler
	sem     *semaphore.Weighted

	handled atomic.Uint64

	mu            sync.Mutex
	addr          net.Addr
	lastHousekeep time.Time
	ready         chan struct{}
	readyOnce     sync.Once
}

// NewListener creates a Listener that dispatches to handler.
func NewListener(handler ConnHandler, cfg ListenerConfig) *Listener {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 256
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 30 * time.Second
	}
	if cfg.HousekeepingEvery <= 0 {
		cfg.HousekeepingEvery = 1000
	}
	if cfg.HousekeepingInterval <= 0 {
		cfg.HousekeepingInterval = time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Listener{
		cfg:           cfg,
		handler:       handler,
		sem:           semaphore.NewWeighted(int64(cfg.MaxConnections)),
		lastHousekeep: cfg.Now(),
		ready:         make(chan struct{}),
	}
}

// Serve binds cfg.Address and accepts until ctx is canceled. Closing the
// socket ends the loop; sessions already running are not waited for.
func (l *Listener) Serve(ctx context.Context) error {
	lc := net.ListenConfig{KeepAlive: l.cfg.KeepAlive}
	ln, err := lc.Listen(ctx, "tcp", l.cfg.Address)
	if err != nil {
		return fmt.Errorf("honeypot listen on %s: %w", l.cfg.Address, err)
	}
	return l.ServeListener(ctx, ln)
}

// ServeListener accepts on ln until ctx is canceled, then closes it.
func (l *Listener) ServeListener(ctx context.Context, ln net.Listener) error {
	l.mu.Lock()
	l.addr = ln.Addr()
	l.mu.Unlock()
	l.readyOnce.Do(func() { close(l.ready) })

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	defer ln.Close()

	logging.Info().
		Str("address", ln.Addr().String()).
		Int("max_connections", l.cfg.MaxConnections).
		Msg("Honeypot listening")

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("honeypot listener closed: %w", err)
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}

			metrics.HoneypotAcceptErrors.Inc()
			backoff *= 2
			if backoff == 0 {
				backoff = minAcceptBackoff
			}
			if backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			logging.Warn().Err(err).Dur("retry_in", backoff).Msg("Accept failed")

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}
		backoff = 0

		if !l.sem.TryAcquire(1) {
			metrics.RecordConnection(metrics.ConnRejectedFull)
			logging.Debug().Err(ErrPoolFull).Str("remote", conn.RemoteAddr().String()).Msg("Refusing connection")
			conn.Close()
			continue
		}
		metrics.RecordConnection(metrics.ConnAccepted)

		go l.handle(ctx, conn)
		l.maybeHousekeep()
	}
}

func (l *Listener) handle(ctx context.Context, conn net.Conn) {
	defer l.sem.Release(1)
	metrics.TrackActiveConnection(true)
	defer metrics.TrackActiveConnection(false)

	defer func() {
		if r := recover(); r != nil {
			conn.Close()
			logging.Error().
				Interface("panic", r).
				Str("remote", conn.RemoteAddr().String()).
				Msg("Honeypot handler panicked")
		}
	}()

	if err := l.handler.Serve(ctx, conn); err != nil {
		logging.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("Session ended with error")
	}
}

func (l *Listener) maybeHousekeep() {
	n := l.handled.Add(1)
	if n%uint64(l.cfg.HousekeepingEvery) != 0 {
		return
	}

	l.mu.Lock()
	now := l.cfg.Now()
	if now.Sub(l.lastHousekeep) < l.cfg.HousekeepingInterval {
		l.mu.Unlock()
		return
	}
	l.lastHousekeep = now
	l.mu.Unlock()

	start := time.Now()
	debug.FreeOSMemory()
	if l.cfg.Cleanup != nil {
		l.cfg.Cleanup()
	}
	metrics.HoneypotHousekeepingRuns.Inc()
	logging.Info().Uint64("connections", n).Dur("duration", time.Since(start)).Msg("Honeypot housekeeping done")
}

// Ready is closed once the listener is bound.
func (l *Listener) Ready() <-chan struct{} {
	return l.ready
}

// Addr returns the bound address, or nil before Ready.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}

// Handled returns how many connections have been dispatched.
func (l *Listener) Handled() uint64 {
	return l.handled.Load()
}

// String implements fmt.Stringer for the supervisor.
func (l *Listener) String() string {
	return "honeypot-listener"
}
