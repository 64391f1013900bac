// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if err := c.validateHoneypot(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if err := c.validateGeo(); err != nil {
		return err
	}

	if err := c.validateStats(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateSupervisor(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateHoneypot() error {
	h := c.Honeypot
	if err := validatePort(h.Port, "HONEYPOT_PORT"); err != nil {
		return err
	}
	if h.MaxConnections < 1 || h.MaxConnections > 65536 {
		return fmt.Errorf("HONEYPOT_MAX_CONNECTIONS must be between 1 and 65536")
	}
	if err := c.validateHoneypotTimeouts(); err != nil {
		return err
	}
	if h.MaxAuthTries < 1 || h.MaxAuthTries > 100 {
		return fmt.Errorf("HONEYPOT_MAX_AUTH_TRIES must be between 1 and 100")
	}
	if !strings.HasPrefix(h.ServerVersion, "SSH-2.0-") || strings.ContainsAny(h.ServerVersion, "\r\n") {
		return fmt.Errorf("HONEYPOT_SERVER_VERSION must start with SSH-2.0- and fit on one line")
	}
	if len(h.ServerVersion) > 253 {
		return fmt.Errorf("HONEYPOT_SERVER_VERSION must be at most 253 characters")
	}
	if h.HousekeepingEvery < 1 {
		return fmt.Errorf("HONEYPOT_HOUSEKEEPING_EVERY must be at least 1")
	}
	return nil
}

// validateHoneypotTimeouts keeps the session timers ordered: the session cap
// must leave room for at least one read and one auth delay.
func (c *Config) validateHoneypotTimeouts() error {
	h := c.Honeypot
	durations := []struct {
		value time.Duration
		name  string
	}{
		{h.ReadTimeout, "HONEYPOT_READ_TIMEOUT"},
		{h.SessionTimeout, "HONEYPOT_SESSION_TIMEOUT"},
		{h.SignatureTimeout, "HONEYPOT_SIGNATURE_TIMEOUT"},
		{h.HousekeepingInterval, "HONEYPOT_HOUSEKEEPING_INTERVAL"},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive", d.name)
		}
	}
	if h.KeepAlive < 0 {
		return fmt.Errorf("HONEYPOT_KEEPALIVE must not be negative")
	}
	if h.AuthDelay < 0 || h.AuthJitter < 0 {
		return fmt.Errorf("HONEYPOT_AUTH_DELAY and HONEYPOT_AUTH_JITTER must not be negative")
	}
	if h.SessionTimeout < h.ReadTimeout {
		return fmt.Errorf("HONEYPOT_SESSION_TIMEOUT (%s) must be at least HONEYPOT_READ_TIMEOUT (%s)",
			h.SessionTimeout, h.ReadTimeout)
	}
	if h.SessionTimeout <= h.AuthDelay+h.AuthJitter {
		return fmt.Errorf("HONEYPOT_SESSION_TIMEOUT must exceed HONEYPOT_AUTH_DELAY + HONEYPOT_AUTH_JITTER")
	}
	return nil
}

func (c *Config) validateStorage() error {
	files := []struct {
		path string
		name string
	}{
		{c.Storage.AttemptsFile, "ATTEMPTS_FILE"},
		{c.Storage.IPCacheFile, "IP_CACHE_FILE"},
		{c.Storage.GeoCacheFile, "GEO_CACHE_FILE"},
	}
	seen := make(map[string]string, len(files))
	for _, f := range files {
		if strings.TrimSpace(f.path) == "" {
			return fmt.Errorf("%s is required", f.name)
		}
		clean := filepath.Clean(f.path)
		if other, dup := seen[clean]; dup {
			return fmt.Errorf("%s and %s must name different files", other, f.name)
		}
		seen[clean] = f.name
	}
	return nil
}

func (c *Config) validateGeo() error {
	g := c.Geo
	if err := validateServiceURL(g.IPAPIURL, "IPAPI_URL"); err != nil {
		return err
	}
	if g.IPAPIRequestsPerMinute < 1 || g.IPAPIRequestsPerMinute > 1000 {
		return fmt.Errorf("IPAPI_REQUESTS_PER_MINUTE must be between 1 and 1000")
	}
	if g.BingKey != "" {
		if err := validateServiceURL(g.BingURL, "BING_MAPS_URL"); err != nil {
			return err
		}
	}
	if g.LookupTimeout <= 0 || g.LookupTimeout > 2*time.Minute {
		return fmt.Errorf("GEO_LOOKUP_TIMEOUT must be between 0 and 2m")
	}
	if g.NegativeTTL <= 0 {
		return fmt.Errorf("GEO_NEGATIVE_TTL must be positive")
	}
	return nil
}

func (c *Config) validateStats() error {
	if c.Stats.CacheTTL < 0 {
		return fmt.Errorf("STATS_CACHE_TTL must not be negative")
	}
	if c.Stats.TopN < 1 || c.Stats.TopN > 100 {
		return fmt.Errorf("STATS_TOP_N must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateServer() error {
	if err := validatePort(c.Server.Port, "HTTP_PORT"); err != nil {
		return err
	}
	if c.Server.Port == c.Honeypot.Port && c.Server.Host == c.Honeypot.BindAddress {
		return fmt.Errorf("HTTP_PORT must differ from HONEYPOT_PORT")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if err := c.validateCORS(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

// validateCORS rejects origins that are neither "*" nor an http(s) origin.
func (c *Config) validateCORS() error {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			continue
		}
		if err := validateHTTPURL(origin, "CORS_ORIGINS"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 || c.Security.RateLimitReqs > 100000 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000")
	}
	if c.Security.RateLimitWindow < time.Second || c.Security.RateLimitWindow > time.Hour {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between 1s and 1h")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	s := c.Supervisor
	if s.FailureThreshold <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_THRESHOLD must be positive")
	}
	if s.FailureDecay <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_DECAY must be positive")
	}
	if s.FailureBackoff <= 0 || s.ShutdownTimeout <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_BACKOFF and SUPERVISOR_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	return c.validateLogFormat()
}

func (c *Config) validateLogLevel() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	return nil
}

func (c *Config) validateLogFormat() error {
	if c.Logging.Format == "" {
		return nil
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func validatePort(port int, name string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535", name)
	}
	return nil
}
