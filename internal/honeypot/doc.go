// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

/*
Package honeypot implements the decoy SSH front end.

A Listener accepts TCP connections and hands each one to a Handler on its
own goroutine, up to a fixed number of concurrent sessions. Connections over
that limit are closed immediately.

The Handler:

 1. Peeks at the first bytes and drops anything that does not start with
    "SSH-" before any handshake work is done.
 2. Runs the SSH handshake through golang.org/x/crypto/ssh with a password
    callback that always fails.
 3. For each password, waits a short randomized delay, resolves the source
    address to a city and records the attempt.

Every connection is closed on every exit path. Handler failures are logged and
never reach the accept loop.
*/
package honeypot
