// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

/*
Package services adapts long-running components to suture.Service.

  - HoneypotService: the decoy SSH accept loop (capture layer)
  - WebSocketHubService: the live attempt feed hub (messaging layer)
  - HTTPServerService: the dashboard HTTP server (api layer)

Each wrapper depends on a one-method interface rather than the concrete
type so the supervisor package does not import the components it runs.
Every Serve returns ctx.Err() on a normal stop.
*/
package services
