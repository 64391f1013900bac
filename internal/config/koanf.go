// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/knockwatch/config.yaml",
	"/etc/knockwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Honeypot: HoneypotConfig{
			BindAddress:          "0.0.0.0",
			Port:                 22,
			MaxConnections:       256,
			ReadTimeout:          10 * time.Second,
			SessionTimeout:       30 * time.Second,
			KeepAlive:            30 * time.Second,
			RequireSignature:     true,
			SignatureTimeout:     5 * time.Second,
			AuthDelay:            3 * time.Second,
			AuthJitter:           time.Second,
			MaxAuthTries:         6,
			ServerVersion:        "SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.6",
			HostKeyPath:          "ssh_host_rsa_key",
			RecordUnresolved:     false,
			HousekeepingEvery:    1000,
			HousekeepingInterval: time.Hour,
		},
		Storage: StorageConfig{
			AttemptsFile: "ssh_attempts.json",
			IPCacheFile:  "city_data.json",
			GeoCacheFile: "geo_data.json",
		},
		Geo: GeoConfig{
			IPAPIURL:               "http://ip-api.com/json",
			IPAPIRequestsPerMinute: 45,
			BingURL:                "http://dev.virtualearth.net/REST/v1/Locations",
			BingKey:                "",
			BingCulture:            "en-US",
			LookupTimeout:          10 * time.Second,
			NegativeTTL:            10 * time.Minute,
		},
		Stats: StatsConfig{
			CacheTTL: 30 * time.Second,
			TopN:     10,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    5000,
			Timeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// HONEYPOT_PORT -> honeypot.port, BING_MAPS_KEY -> geo.bing_key
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Honeypot
	"honeypot_bind_address":          "honeypot.bind_address",
	"honeypot_port":                  "honeypot.port",
	"honeypot_max_connections":       "honeypot.max_connections",
	"honeypot_read_timeout":          "honeypot.read_timeout",
	"honeypot_session_timeout":       "honeypot.session_timeout",
	"honeypot_keepalive":             "honeypot.keepalive",
	"honeypot_require_signature":     "honeypot.require_signature",
	"honeypot_signature_timeout":     "honeypot.signature_timeout",
	"honeypot_auth_delay":            "honeypot.auth_delay",
	"honeypot_auth_jitter":           "honeypot.auth_jitter",
	"honeypot_max_auth_tries":        "honeypot.max_auth_tries",
	"honeypot_server_version":        "honeypot.server_version",
	"honeypot_host_key_path":         "honeypot.host_key_path",
	"honeypot_record_unresolved":     "honeypot.record_unresolved",
	"honeypot_housekeeping_every":    "honeypot.housekeeping_every",
	"honeypot_housekeeping_interval": "honeypot.housekeeping_interval",

	// Storage
	"attempts_file":  "storage.attempts_file",
	"ip_cache_file":  "storage.ip_cache_file",
	"geo_cache_file": "storage.geo_cache_file",

	// Geolocation
	"ipapi_url":                 "geo.ipapi_url",
	"ipapi_requests_per_minute": "geo.ipapi_requests_per_minute",
	"bing_maps_url":             "geo.bing_url",
	"bing_maps_key":             "geo.bing_key",
	"bing_maps_culture":         "geo.bing_culture",
	"geo_lookup_timeout":        "geo.lookup_timeout",
	"geo_negative_ttl":          "geo.negative_ttl",

	// Stats
	"stats_cache_ttl": "stats.cache_ttl",
	"stats_top_n":     "stats.top_n",

	// Server
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped, so unrelated environment
// does not leak into the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller must synchronize access to any configuration it reloads.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
