// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erikvoorbraak/knvvl-exam/server/middleware"
)

func newHandler(t *testing.T, cfg Config) http.Handler {
	t.Helper()

	l, err := New(cfg, nil)
	require.NoError(t, err)

	return middleware.Wrap(l.Evaluate, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func request(path, remote string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.RemoteAddr = remote

	return r
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	h := newHandler(t, Config{Rate: 0.001, Burst: 2, IPv4Prefix: 24, IPv6Prefix: 48})

	for range 2 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, request("/texts", "8.8.8.8:1"))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "2", rr.Header().Get(HeaderRateLimitLimit))
	}

	// Same /24 shares the bucket.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, request("/texts", "8.8.8.9:1"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get(HeaderRateLimitRemaining))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// Another network has its own bucket.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, request("/texts", "9.9.9.9:1"))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// Static files are never limited.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, request("/css/main.css", "8.8.8.8:1"))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestPassAndBlockLists(t *testing.T) {
	t.Parallel()

	h := newHandler(t, Config{
		Rate:       0.001,
		Burst:      1,
		PassIPs:    []string{"1.1.1.1"},
		BlockIPs:   []string{"6.6.6.0/24"},
		IPv4Prefix: 24,
		IPv6Prefix: 48,
	})

	for range 3 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, request("/texts", "1.1.1.1:1"))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, request("/texts", "6.6.6.6:1"))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRejectFunc(t *testing.T) {
	t.Parallel()

	var gotReason string

	l, err := New(Config{Rate: 1, Burst: 1, BlockIPs: []string{"6.6.6.6"}}, func(w http.ResponseWriter, _ *http.Request, status int, reason string) {
		gotReason = reason
		w.WriteHeader(status)
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	middleware.Wrap(l.Evaluate, http.NotFoundHandler()).ServeHTTP(rr, request("/", "6.6.6.6:1"))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "IP in block-list", gotReason)
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil)
	require.Error(t, err)
}
