// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"crypto/tls"
	"net/http"
	"net/netip"
	"time"
)

const (
	// clientSessionCacheSize defines the size of the TLS session cache.
	clientSessionCacheSize = 20

	// maxIdleConnsPerHost defines maximum idle connections to keep per host.
	maxIdleConnsPerHost = 20

	// bufferSize defines the read and write buffer size in bytes (32KB).
	bufferSize = 32 * 1024
)

// NewTransport returns the transport used for requests forwarded to the backend.
func NewTransport(responseHeaderTimeout time.Duration) *http.Transport {
	return &http.Transport{
		TLSClientConfig: &tls.Config{
			ClientSessionCache: tls.NewLRUClientSessionCache(clientSessionCacheSize),
			MinVersion:         tls.VersionTLS12,
		},
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		WriteBufferSize:       bufferSize,
		ReadBufferSize:        bufferSize,
		ResponseHeaderTimeout: responseHeaderTimeout,
	}
}

// IsConnectionSecure returns whether a connection is secure.
//
// X-Forwarded-Proto is only trusted from private addresses, i.e. a reverse
// proxy on the same network. This returns false when the last proxy in the
// chain has a public address.
func IsConnectionSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}

	addrPort, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		return false
	}

	addr := addrPort.Addr().Unmap()

	return (addr.IsPrivate() || addr.IsLoopback()) && r.Header.Get("X-Forwarded-Proto") == "https"
}
