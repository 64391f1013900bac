// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Honeypot   HoneypotConfig   `koanf:"honeypot"`
	Storage    StorageConfig    `koanf:"storage"`
	Geo        GeoConfig        `koanf:"geo"`
	Stats      StatsConfig      `koanf:"stats"`
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// HoneypotConfig holds the decoy SSH listener settings.
//
// Environment Variables:
//   - HONEYPOT_BIND_ADDRESS, HONEYPOT_PORT: listen address (default: 0.0.0.0:22)
//   - HONEYPOT_MAX_CONNECTIONS: concurrent sessions before new ones are refused (default: 256)
//   - HONEYPOT_READ_TIMEOUT: idle timeout per read or write (default: 10s)
//   - HONEYPOT_SESSION_TIMEOUT: hard cap on one connection (default: 30s)
//   - HONEYPOT_AUTH_DELAY, HONEYPOT_AUTH_JITTER: delay before each rejection (default: 3s + up to 1s)
//   - HONEYPOT_RECORD_UNRESOLVED: keep attempts whose source has no city (default: false)
type HoneypotConfig struct {
	BindAddress          string        `koanf:"bind_address"`
	Port                 int           `koanf:"port"`
	MaxConnections       int           `koanf:"max_connections"`
	ReadTimeout          time.Duration `koanf:"read_timeout"`
	SessionTimeout       time.Duration `koanf:"session_timeout"`
	KeepAlive            time.Duration `koanf:"keepalive"`
	RequireSignature     bool          `koanf:"require_signature"`
	SignatureTimeout     time.Duration `koanf:"signature_timeout"`
	AuthDelay            time.Duration `koanf:"auth_delay"`
	AuthJitter           time.Duration `koanf:"auth_jitter"`
	MaxAuthTries         int           `koanf:"max_auth_tries"`
	ServerVersion        string        `koanf:"server_version"`
	HostKeyPath          string        `koanf:"host_key_path"`
	RecordUnresolved     bool          `koanf:"record_unresolved"`
	HousekeepingEvery    int           `koanf:"housekeeping_every"`
	HousekeepingInterval time.Duration `koanf:"housekeeping_interval"`
}

// Address returns the listen address in host:port form.
func (h HoneypotConfig) Address() string {
	return fmt.Sprintf("%s:%d", h.BindAddress, h.Port)
}

// StorageConfig holds the paths of the durable JSON files.
type StorageConfig struct {
	AttemptsFile string `koanf:"attempts_file"`
	IPCacheFile  string `koanf:"ip_cache_file"`
	GeoCacheFile string `koanf:"geo_cache_file"`
}

// GeoConfig holds the remote lookup settings.
//
// Remote city geocoding is disabled while BingKey is empty; the static table
// and the geo cache file still resolve cities.
type GeoConfig struct {
	IPAPIURL               string        `koanf:"ipapi_url"`
	IPAPIRequestsPerMinute int           `koanf:"ipapi_requests_per_minute"`
	BingURL                string        `koanf:"bing_url"`
	BingKey                string        `koanf:"bing_key"`
	BingCulture            string        `koanf:"bing_culture"`
	LookupTimeout          time.Duration `koanf:"lookup_timeout"`
	NegativeTTL            time.Duration `koanf:"negative_ttl"`
}

type StatsConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl"`
	TopN     int           `koanf:"top_n"`
}

// ServerConfig holds the dashboard HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds the dashboard API protections.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// SupervisorConfig holds the suture restart policy.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads and validates the configuration.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
