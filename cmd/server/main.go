// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/knockwatch/internal/api"
	"github.com/tomtom215/knockwatch/internal/config"
	"github.com/tomtom215/knockwatch/internal/honeypot"
	"github.com/tomtom215/knockwatch/internal/logging"
	"github.com/tomtom215/knockwatch/internal/models"
	"github.com/tomtom215/knockwatch/internal/stats"
	"github.com/tomtom215/knockwatch/internal/supervisor"
	"github.com/tomtom215/knockwatch/internal/supervisor/services"
	ws "github.com/tomtom215/knockwatch/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("honeypot_addr", cfg.Honeypot.Address()).
		Str("http_addr", cfg.Server.Address()).
		Bool("remote_geocoding", cfg.Geo.BingKey != "").
		Msg("Starting knockwatch")

	watchLogLevel()

	geoCache := newGeoCache(cfg)
	defer geoCache.Close()

	store := newAttemptStore(cfg, geoCache)

	agg := stats.New(store, geoCache, stats.Config{
		TopN:     cfg.Stats.TopN,
		CacheTTL: cfg.Stats.CacheTTL,
	})
	defer agg.Close()

	hub := ws.NewHub()
	store.Subscribe(func(a models.Attempt) {
		agg.Invalidate()
		hub.BroadcastAttempt(a)
	})

	signer, err := honeypot.LoadOrCreateHostKey(cfg.Honeypot.HostKeyPath)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Honeypot.HostKeyPath).Msg("Failed to load host key")
	}

	handler := honeypot.NewHandler(signer, store, honeypot.HandlerConfig{
		RequireSignature: cfg.Honeypot.RequireSignature,
		SignatureTimeout: cfg.Honeypot.SignatureTimeout,
		ReadTimeout:      cfg.Honeypot.ReadTimeout,
		SessionTimeout:   cfg.Honeypot.SessionTimeout,
		AuthDelay:        cfg.Honeypot.AuthDelay,
		AuthJitter:       cfg.Honeypot.AuthJitter,
		MaxAuthTries:     cfg.Honeypot.MaxAuthTries,
		ServerVersion:    cfg.Honeypot.ServerVersion,
		RecordUnresolved: cfg.Honeypot.RecordUnresolved,
	})
	listener := honeypot.NewListener(handler, honeypot.ListenerConfig{
		Address:              cfg.Honeypot.Address(),
		MaxConnections:       cfg.Honeypot.MaxConnections,
		KeepAlive:            cfg.Honeypot.KeepAlive,
		HousekeepingEvery:    cfg.Honeypot.HousekeepingEvery,
		HousekeepingInterval: cfg.Honeypot.HousekeepingInterval,
		Cleanup: func() {
			if n := geoCache.Cleanup(); n > 0 {
				logging.Debug().Int("expired", n).Msg("Dropped expired negative geo entries")
			}
		},
	})

	apiHandler := api.NewHandler(api.HandlerDeps{
		Attempts:    store,
		Stats:       agg,
		Geo:         geoCache,
		Hub:         hub,
		CORSOrigins: cfg.Security.CORSOrigins,
	})
	router := api.NewRouter(apiHandler, routerConfig(cfg))

	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddCaptureService(services.NewHoneypotService(listener))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Address(), cfg.Supervisor.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Int("attempts", store.Len()).Int("geo_entries", geoCache.Len()).Msg("Supervisor tree starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}
	logging.Info().Uint64("sessions_handled", listener.Handled()).Msg("knockwatch stopped")
}
