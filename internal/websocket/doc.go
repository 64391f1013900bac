// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

/*
Package websocket pushes captured attempts to dashboards as they happen.

A Hub owns the set of connected clients and a bounded broadcast queue. Each
Client runs two goroutines: readPump answers application pings and notices
disconnects, writePump drains the client's send buffer and sends protocol
pings.

The attempt store calls Hub.BroadcastAttempt from its observer list. That
call never blocks: when the queue is full the message is dropped and logged,
and a client whose own buffer is full is disconnected.

Messages are JSON objects:

	{"type": "attempt", "data": {"timestamp": "...", "ip": "...", "password": "...", "city": "..."}}
	{"type": "pong", "data": null}

RunWithContext is supervised by the messaging layer of the supervisor tree.
*/
package websocket
