// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConnectionSecure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		remote string
		proto  string
		tls    bool
		want   bool
	}{
		{name: "direct TLS", remote: "1.2.3.4:5", tls: true, want: true},
		{name: "private proxy with https", remote: "10.0.0.2:5", proto: "https", want: true},
		{name: "loopback proxy with https", remote: "127.0.0.1:5", proto: "https", want: true},
		{name: "public address with header", remote: "1.2.3.4:5", proto: "https", want: false},
		{name: "private proxy with http", remote: "10.0.0.2:5", proto: "http", want: false},
		{name: "unparsable remote", remote: "nonsense", proto: "https", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote

			if tt.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tt.proto)
			}

			if tt.tls {
				r.TLS = &tls.ConnectionState{}
			}

			assert.Equal(t, tt.want, IsConnectionSecure(r))
		})
	}
}
