// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package geo

import (
	"net"
	"net/netip"
	"strings"
)

var privateNetworks = mustParseCIDRs(
	"10.0.0.0/8",     // RFC 1918
	"172.16.0.0/12",  // RFC 1918
	"192.168.0.0/16", // RFC 1918
	"127.0.0.0/8",    // loopback
	"169.254.0.0/16", // link-local
	"100.64.0.0/10",  // carrier-grade NAT
	"::1/128",        // IPv6 loopback
	"fc00::/7",       // IPv6 unique local
	"fe80::/10",      // IPv6 link-local
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// IsPrivateIP reports whether ipStr is in a range ip-api cannot locate.
// Unparseable input is not private.
func IsPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ip.IsUnspecified() {
		return true
	}
	for _, n := range privateNetworks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// NormalizeIP strips a port and IPv6 brackets from a peer address and
// unmaps IPv4-mapped IPv6 addresses.
func NormalizeIP(addr string) string {
	host := addr
	switch {
	case strings.HasPrefix(addr, "["):
		if idx := strings.LastIndex(addr, "]:"); idx != -1 {
			host = addr[1:idx]
		} else {
			host = strings.Trim(addr, "[]")
		}
	case strings.Count(addr, ":") == 1:
		// host:port only when there is a single colon
		host = addr[:strings.LastIndex(addr, ":")]
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return ip.Unmap().String()
	}
	return host
}
