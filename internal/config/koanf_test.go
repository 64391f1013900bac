// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Honeypot.Address() != "0.0.0.0:22" {
		t.Errorf("Honeypot.Address() = %q, want 0.0.0.0:22", cfg.Honeypot.Address())
	}
	if cfg.Honeypot.MaxConnections != 256 {
		t.Errorf("Honeypot.MaxConnections = %d, want 256", cfg.Honeypot.MaxConnections)
	}
	if cfg.Honeypot.ReadTimeout != 10*time.Second {
		t.Errorf("Honeypot.ReadTimeout = %v, want 10s", cfg.Honeypot.ReadTimeout)
	}
	if !cfg.Honeypot.RequireSignature {
		t.Error("Honeypot.RequireSignature should be true by default")
	}
	if cfg.Honeypot.RecordUnresolved {
		t.Error("Honeypot.RecordUnresolved should be false by default")
	}
	if cfg.Storage.AttemptsFile != "ssh_attempts.json" || cfg.Storage.IPCacheFile != "city_data.json" ||
		cfg.Storage.GeoCacheFile != "geo_data.json" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Geo.BingKey != "" {
		t.Error("Geo.BingKey should be empty by default")
	}
	if cfg.Geo.IPAPIRequestsPerMinute != 45 {
		t.Errorf("Geo.IPAPIRequestsPerMinute = %d, want 45", cfg.Geo.IPAPIRequestsPerMinute)
	}
	if cfg.Stats.TopN != 10 || cfg.Stats.CacheTTL != 30*time.Second {
		t.Errorf("Stats = %+v", cfg.Stats)
	}
	if cfg.Server.Address() != "0.0.0.0:5000" {
		t.Errorf("Server.Address() = %q", cfg.Server.Address())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("HONEYPOT_PORT", "2222")
	t.Setenv("HONEYPOT_AUTH_DELAY", "500ms")
	t.Setenv("HONEYPOT_RECORD_UNRESOLVED", "true")
	t.Setenv("BING_MAPS_KEY", "secret-key")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SOME_UNRELATED_VAR", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf error: %v", err)
	}

	if cfg.Honeypot.Port != 2222 {
		t.Errorf("Honeypot.Port = %d, want 2222", cfg.Honeypot.Port)
	}
	if cfg.Honeypot.AuthDelay != 500*time.Millisecond {
		t.Errorf("Honeypot.AuthDelay = %v, want 500ms", cfg.Honeypot.AuthDelay)
	}
	if !cfg.Honeypot.RecordUnresolved {
		t.Error("Honeypot.RecordUnresolved not applied")
	}
	if cfg.Geo.BingKey != "secret-key" {
		t.Errorf("Geo.BingKey = %q", cfg.Geo.BingKey)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadWithKoanf_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
honeypot:
  port: 2200
  max_connections: 64
  session_timeout: 45s
storage:
  attempts_file: /var/lib/knockwatch/attempts.json
server:
  port: 8080
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf error: %v", err)
	}

	if cfg.Honeypot.Port != 2200 || cfg.Honeypot.MaxConnections != 64 {
		t.Errorf("Honeypot = %+v", cfg.Honeypot)
	}
	if cfg.Honeypot.SessionTimeout != 45*time.Second {
		t.Errorf("SessionTimeout = %v", cfg.Honeypot.SessionTimeout)
	}
	if cfg.Storage.AttemptsFile != "/var/lib/knockwatch/attempts.json" {
		t.Errorf("AttemptsFile = %q", cfg.Storage.AttemptsFile)
	}
	if cfg.Storage.IPCacheFile != "city_data.json" {
		t.Errorf("IPCacheFile default lost: %q", cfg.Storage.IPCacheFile)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("env should override file, Server.Port = %d", cfg.Server.Port)
	}
}

func TestLoadWithKoanf_InvalidValue(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("HONEYPOT_MAX_CONNECTIONS", "0")

	_, err := LoadWithKoanf()
	if err == nil || !strings.Contains(err.Error(), "HONEYPOT_MAX_CONNECTIONS") {
		t.Errorf("expected HONEYPOT_MAX_CONNECTIONS error, got %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HONEYPOT_PORT", "honeypot.port"},
		{"BING_MAPS_KEY", "geo.bing_key"},
		{"IP_CACHE_FILE", "storage.ip_cache_file"},
		{"DISABLE_RATE_LIMIT", "security.rate_limit_disabled"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}
