// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetResponseHeaders(t *testing.T) {
	t.Parallel()

	handler := Wrap(SetResponseHeaders, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/texts", nil))

	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Equal(t, "private, no-cache", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "HX-Request", rr.Header().Get("Vary"))
	assert.NotEmpty(t, rr.Header().Get("Examadmin-Version"))
}

func TestSetCacheControl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected string
	}{
		{"/texts", "private, no-cache"},
		{"/api/texts", "private, no-cache"},
		{"/css/main.css", "max-age="},
		{"/js/nav.js", "max-age="},
		{"/favicon.ico", "max-age="},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			h := http.Header{}
			setCacheControl(h, tt.path)

			assert.Contains(t, h.Get("Cache-Control"), tt.expected)
		})
	}
}
