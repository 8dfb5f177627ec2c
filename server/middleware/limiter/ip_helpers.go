// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// clientAddr returns the address of the client that sent r.
//
// X-Real-IP and then the last X-Forwarded-For entry are trusted only when the
// connection comes from a private or loopback address, i.e. a local reverse proxy.
func clientAddr(r *http.Request) (netip.Addr, bool) {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	remote, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}

	remote = remote.Unmap()

	if !remote.IsPrivate() && !remote.IsLoopback() {
		return remote, true
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if a, err := netip.ParseAddr(realIP); err == nil {
			return a.Unmap(), true
		}
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if a, err := netip.ParseAddr(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			return a.Unmap(), true
		}
	}

	return remote, true
}

// parseList parses addresses and CIDR prefixes. Invalid entries are returned separately.
func parseList(entries []string) (prefixes []netip.Prefix, invalid []string) {
	for _, e := range entries {
		e = strings.TrimSpace(e)

		if p, err := netip.ParsePrefix(e); err == nil {
			prefixes = append(prefixes, p.Masked())

			continue
		}

		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(a, a.BitLen()))

			continue
		}

		invalid = append(invalid, e)
	}

	return prefixes, invalid
}

func matchesList(addr netip.Addr, list []netip.Prefix) bool {
	for _, p := range list {
		if p.Contains(addr) {
			return true
		}
	}

	return false
}

// network returns the prefix addr is grouped under.
func network(addr netip.Addr, ipv4Prefix, ipv6Prefix int) netip.Prefix {
	bits := ipv6Prefix
	if addr.Is4() {
		bits = ipv4Prefix
	}

	p, err := addr.Prefix(bits)
	if err != nil {
		return netip.PrefixFrom(addr, addr.BitLen())
	}

	return p
}
