// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

/*
Package config loads Knockwatch configuration.

Values are layered with Koanf v2, later layers winning:

 1. Struct defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, config.yaml, config.yml or
    /etc/knockwatch/config.yaml
 3. Environment variables listed in envMappings; any other variable is
    ignored

Comma-separated environment values are split for slice fields such as
CORS_ORIGINS.

# Sections

  - honeypot: SSH listener address, pool size, timeouts, auth delay, banner,
    host key path and housekeeping cadence
  - storage: paths of the attempt log, IP memo and geo cache files
  - geo: ip-api.com and Bing Maps endpoints, key, pacing and timeouts
  - stats: snapshot cache TTL and ranking length
  - server: dashboard HTTP address and timeout
  - security: CORS origins and per-IP API rate limit
  - supervisor: suture restart policy
  - logging: level, format, caller

Load validates the result; the error names the environment variable to fix.
*/
package config
