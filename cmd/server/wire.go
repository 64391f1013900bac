// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package main

import (
	"os"

	"github.com/tomtom215/knockwatch/internal/api"
	"github.com/tomtom215/knockwatch/internal/attempts"
	"github.com/tomtom215/knockwatch/internal/config"
	"github.com/tomtom215/knockwatch/internal/geo"
	"github.com/tomtom215/knockwatch/internal/logging"
)

// newGeoCache builds the city cache and loads geo_cache.json. Bing Maps is
// only attached when a key is configured.
func newGeoCache(cfg *config.Config) *geo.Cache {
	var remote geo.Geocoder
	if cfg.Geo.BingKey != "" {
		remote = geo.NewBingGeocoder(geo.BingConfig{
			BaseURL: cfg.Geo.BingURL,
			Key:     cfg.Geo.BingKey,
			Culture: cfg.Geo.BingCulture,
			Timeout: cfg.Geo.LookupTimeout,
		})
	}

	c := geo.NewCache(geo.CacheConfig{
		Path:        cfg.Storage.GeoCacheFile,
		Remote:      remote,
		NegativeTTL: cfg.Geo.NegativeTTL,
	})
	if err := c.Load(); err != nil {
		logging.Warn().Err(err).Str("path", cfg.Storage.GeoCacheFile).Msg("Geo cache not loaded; starting empty")
	}
	return c
}

// newAttemptStore builds the attempt log, wired to ip-api.com for address
// lookups and to geoCache for the coordinates those lookups return.
func newAttemptStore(cfg *config.Config, geoCache *geo.Cache) *attempts.Store {
	locator := geo.NewIPAPIProvider(geo.IPAPIConfig{
		BaseURL:           cfg.Geo.IPAPIURL,
		RequestsPerMinute: cfg.Geo.IPAPIRequestsPerMinute,
		Timeout:           cfg.Geo.LookupTimeout,
	})

	s := attempts.New(attempts.Config{
		AttemptsPath: cfg.Storage.AttemptsFile,
		MemoPath:     cfg.Storage.IPCacheFile,
		Locator:      locator,
		Geo:          geoCache,
	})
	if err := s.Load(); err != nil {
		logging.Warn().Err(err).Str("path", cfg.Storage.AttemptsFile).Msg("Attempt log not loaded; starting empty")
	}
	return s
}

func routerConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	rc := api.DefaultChiMiddlewareConfig()
	rc.CORSAllowedOrigins = cfg.Security.CORSOrigins
	if cfg.Security.RateLimitReqs > 0 {
		rc.RateLimitRequests = cfg.Security.RateLimitReqs
	}
	if cfg.Security.RateLimitWindow > 0 {
		rc.RateLimitWindow = cfg.Security.RateLimitWindow
	}
	rc.RateLimitDisabled = cfg.Security.RateLimitDisabled
	return rc
}

// watchLogLevel applies logging.level changes from the CONFIG_PATH file
// while the server runs.
func watchLogLevel() {
	path := os.Getenv(config.ConfigPathEnvVar)
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		cfg, err := config.Load()
		if err != nil {
			logging.Warn().Err(err).Msg("Ignoring invalid configuration change")
			return
		}
		logging.SetLevelString(cfg.Logging.Level)
		logging.Info().Str("level", cfg.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch disabled")
	}
}
