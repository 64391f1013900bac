// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package honeypot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/tomtom215/knockwatch/internal/geo"
	"github.com/tomtom215/knockwatch/internal/logging"
	"github.com/tomtom215/knockwatch/internal/metrics"
	"github.com/tomtom215/knockwatch/internal/models"
)

// ErrNotSSH is returned when a peer's first bytes are not an SSH version
// string.
var ErrNotSSH = errors.New("not an ssh client")

const defaultServerVersion = "SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.6"

var (
	sshSignature    = []byte("SSH-")
	errAuthRejected = errors.New("permission denied")
)

// Recorder resolves and stores captured attempts. *attempts.Store
// satisfies it.
type Recorder interface {
	LookupCity(ctx context.Context, ip string) (string, error)
	Record(ctx context.Context, a models.Attempt) error
}

// HandlerConfig configures Handler.
type HandlerConfig struct {
	RequireSignature bool
	SignatureTimeout time.Duration
	ReadTimeout      time.Duration // idle timeout per read or write
	SessionTimeout   time.Duration // hard cap on the whole connection
	AuthDelay        time.Duration
	AuthJitter       time.Duration
	MaxAuthTries     int
	ServerVersion    string

	// RecordUnresolved stores attempts whose source has no city as
	// models.UnknownCity instead of dropping them.
	RecordUnresolved bool

	// Sleep replaces time.Sleep for the auth delay, for tests.
	Sleep func(time.Duration)
	Now   func() time.Time
}

// Handler runs one honeypot session per connection.
type Handler struct {
	cfg      HandlerConfig
	signer   ssh.Signer
	recorder Recorder
}

// NewHandler creates a Handler that presents signer as its host key.
func NewHandler(signer ssh.Signer, recorder Recorder, cfg HandlerConfig) *Handler {
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = defaultServerVersion
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.SignatureTimeout <= 0 {
		cfg.SignatureTimeout = cfg.ReadTimeout
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Handler{cfg: cfg, signer: signer, recorder: recorder}
}

// Serve runs the session on conn and closes it. The returned error is
// diagnostic only; a session that ends after rejecting passwords returns nil.
func (h *Handler) Serve(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	ip := geo.NormalizeIP(conn.RemoteAddr().String())
	ctx = logging.ContextWithNewCorrelationID(ctx)
	ctx = logging.ContextWithRemoteIP(ctx, ip)
	log := logging.Ctx(ctx)

	sc := newSessionConn(conn, h.cfg.ReadTimeout, h.cfg.SessionTimeout)

	if h.cfg.RequireSignature {
		head, perr := sc.peek(len(sshSignature), h.cfg.SignatureTimeout)
		if perr != nil || !bytes.Equal(head, sshSignature) {
			metrics.RecordConnection(metrics.ConnNotSSH)
			log.Debug().Err(perr).Msg("Dropping non-SSH connection")
			return fmt.Errorf("%w: %s", ErrNotSSH, ip)
		}
	}

	var captured atomic.Int32
	config := h.serverConfig(ctx, ip, &captured)

	start := h.cfg.Now()
	sshConn, chans, reqs, herr := ssh.NewServerConn(sc, config)
	if herr != nil {
		if captured.Load() > 0 {
			metrics.RecordConnection(metrics.ConnClosed)
			log.Debug().
				Int32("passwords", captured.Load()).
				Dur("duration", h.cfg.Now().Sub(start)).
				Msg("Session ended")
			return nil
		}
		metrics.RecordConnection(metrics.ConnHandshakeError)
		log.Debug().Err(herr).Msg("SSH handshake failed")
		return fmt.Errorf("ssh handshake: %w", herr)
	}

	// Unreachable while the password callback rejects everything.
	go ssh.DiscardRequests(reqs)
	for ch := range chans {
		_ = ch.Reject(ssh.Prohibited, "")
	}
	return sshConn.Close()
}

func (h *Handler) serverConfig(ctx context.Context, ip string, captured *atomic.Int32) *ssh.ServerConfig {
	config := &ssh.ServerConfig{
		MaxAuthTries:  h.cfg.MaxAuthTries,
		ServerVersion: h.cfg.ServerVersion,
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			captured.Add(1)
			h.capture(ctx, ip, meta.User(), string(password))
			return nil, errAuthRejected
		},
	}
	config.AddHostKey(h.signer)
	return config
}

// capture delays, resolves and records one password attempt.
func (h *Handler) capture(ctx context.Context, ip, username, password string) {
	log := logging.Ctx(ctx)

	if d := h.authDelay(); d > 0 {
		h.cfg.Sleep(d)
	}

	city, err := h.recorder.LookupCity(ctx, ip)
	if err != nil {
		if !h.cfg.RecordUnresolved {
			metrics.RecordAuthAttempt(false)
			log.Debug().Err(err).Str("username", username).Msg("Dropping attempt without city")
			return
		}
		city = models.UnknownCity
	}

	attempt := models.NewAttempt(h.cfg.Now(), ip, username, password, city)
	if err := h.recorder.Record(ctx, attempt); err != nil {
		log.Error().Err(err).Msg("Failed to record attempt")
	}
	metrics.RecordAuthAttempt(true)
	log.Info().
		Str("username", username).
		Str("city", city).
		Msg("Captured login attempt")
}

func (h *Handler) authDelay() time.Duration {
	d := h.cfg.AuthDelay
	if h.cfg.AuthJitter > 0 {
		d += rand.N(h.cfg.AuthJitter)
	}
	return d
}
