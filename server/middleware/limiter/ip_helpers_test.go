// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net/http"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		request *http.Request
		want    string
	}{
		{
			name: "X-Real-IP from trusted proxy",
			request: &http.Request{
				RemoteAddr: "127.0.0.1:12345",
				Header:     http.Header{"X-Real-Ip": []string{"2.2.2.2"}},
			},
			want: "2.2.2.2",
		},
		{
			name: "last X-Forwarded-For from trusted proxy",
			request: &http.Request{
				RemoteAddr: "192.168.1.1:12345",
				Header:     http.Header{"X-Forwarded-For": []string{"3.3.3.3, 4.4.4.4"}},
			},
			want: "4.4.4.4",
		},
		{
			name: "headers from untrusted source are ignored",
			request: &http.Request{
				RemoteAddr: "1.1.1.1:12345",
				Header:     http.Header{"X-Real-Ip": []string{"2.2.2.2"}},
			},
			want: "1.1.1.1",
		},
		{
			name:    "RemoteAddr without port",
			request: &http.Request{RemoteAddr: "::ffff:8.8.8.8"},
			want:    "8.8.8.8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			addr, ok := clientAddr(tt.request)
			require.True(t, ok)
			assert.Equal(t, tt.want, addr.String())
		})
	}

	_, ok := clientAddr(&http.Request{RemoteAddr: "garbage"})
	assert.False(t, ok)
}

func TestParseList(t *testing.T) {
	t.Parallel()

	list, invalid := parseList([]string{"192.168.1.1", "10.0.0.0/8", "2001:db8::/32", "nope"})

	assert.Equal(t, []string{"nope"}, invalid)
	require.Len(t, list, 3)

	assert.True(t, matchesList(netip.MustParseAddr("192.168.1.1"), list))
	assert.True(t, matchesList(netip.MustParseAddr("10.20.30.40"), list))
	assert.True(t, matchesList(netip.MustParseAddr("2001:db8::1"), list))
	assert.False(t, matchesList(netip.MustParseAddr("192.168.1.2"), list))
}

func TestNetwork(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "192.168.1.0/24", network(netip.MustParseAddr("192.168.1.1"), 24, 64).String())
	assert.Equal(t, "2001:db8::/64", network(netip.MustParseAddr("2001:db8::1"), 24, 64).String())
}
