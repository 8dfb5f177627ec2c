// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		requestURL       string
		expectedStatus   int
		expectedLocation string
	}{
		{
			name:           "Root path should not redirect",
			requestURL:     "/",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Path without trailing slash should not redirect",
			requestURL:     "/questions/42",
			expectedStatus: http.StatusOK,
		},
		{
			name:             "Path with trailing slash should redirect",
			requestURL:       "/questions/42/",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/questions/42",
		},
		{
			name:             "Query parameters should be preserved in trailing slash redirect",
			requestURL:       "/questions/?topic=2&search=wind",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/questions?topic=2&search=wind",
		},
		{
			name:             "Repeated slashes should collapse",
			requestURL:       "/exam//12",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/exam/12",
		},
		{
			name:             "Leading double slash stays on this host",
			requestURL:       "//evil.example/texts",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/evil.example/texts",
		},
		{
			name:             "Encoded slash stays encoded",
			requestURL:       "/texts/a%2Fb/",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/texts/a%2Fb",
		},
		{
			name:             "Encoded percent stays encoded",
			requestURL:       "/texts//100%25",
			expectedStatus:   http.StatusPermanentRedirect,
			expectedLocation: "/texts/100%25",
		},
		{
			name:           "Debug index keeps its trailing slash",
			requestURL:     "/debug/pprof/",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := Wrap(NormalizeURL, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.requestURL, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedLocation, w.Header().Get("Location"))
		})
	}
}

func TestHasTrailingSlash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected bool
	}{
		{"/", false},
		{"/texts", false},
		{"/texts/", true},
		{"/examQuestions/3/", true},
		{"/examQuestions/3", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, hasTrailingSlash(httptest.NewRequest(http.MethodGet, tt.path, nil)))
		})
	}
}

func TestCollapseSlashes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a/b/", collapseSlashes("//a///b//"))
	assert.Equal(t, "/texts", collapseSlashes("/texts"))
}
