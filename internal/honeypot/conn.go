// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package honeypot

import (
	"bufio"
	"net"
	"time"
)

// sessionConn reads through a buffered reader, so bytes peeked during
// classification are replayed to the SSH handshake. Every Read and Write
// pushes the deadline out by idle, but never past the end of the session.
type sessionConn struct {
	net.Conn
	r    *bufio.Reader
	idle time.Duration
	end  time.Time
}

func newSessionConn(conn net.Conn, idle, session time.Duration) *sessionConn {
	c := &sessionConn{
		Conn: conn,
		r:    bufio.NewReader(conn),
		idle: idle,
	}
	if session > 0 {
		c.end = time.Now().Add(session)
	}
	return c
}

// peek returns the first n bytes without consuming them, waiting at most
// timeout.
func (c *sessionConn) peek(n int, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		if err := c.Conn.SetReadDeadline(c.deadline(timeout)); err != nil {
			return nil, err
		}
	}
	return c.r.Peek(n)
}

func (c *sessionConn) deadline(d time.Duration) time.Time {
	var t time.Time
	if d > 0 {
		t = time.Now().Add(d)
	}
	if !c.end.IsZero() && (t.IsZero() || c.end.Before(t)) {
		t = c.end
	}
	return t
}

func (c *sessionConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(c.deadline(c.idle)); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}

func (c *sessionConn) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(c.deadline(c.idle)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}
