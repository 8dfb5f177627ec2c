// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/erikvoorbraak/knvvl-exam/config"
)

var (
	// baseHeaders defines the default headers to be set in responses.
	//
	// Examadmin-Version and Examadmin-Revision are added dynamically in SetResponseHeaders.
	baseHeaders = http.Header{
		"Referrer-Policy":        {"same-origin"},
		"X-Frame-Options":        {"DENY"},
		"X-Content-Type-Options": {"nosniff"},
		"Permissions-Policy":     {strings.Join(defaultPermissionsPolicy, ", ")},
		"Content-Security-Policy": {strings.Join([]string{
			"base-uri 'self'",
			"default-src 'self'",
			"script-src 'self'",
			"style-src 'self' 'unsafe-inline'",
			"img-src 'self' data:",
			"connect-src 'self'",
			"form-action 'self'",
			"frame-ancestors 'none'",
		}, "; ") + ";"},
	}

	defaultPermissionsPolicy = []string{
		"accelerometer=()",
		"camera=()",
		"display-capture=()",
		"geolocation=()",
		"gyroscope=()",
		"magnetometer=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}
)

// SetResponseHeaders adds default headers to HTTP responses.
func SetResponseHeaders(w http.ResponseWriter, r *http.Request, next http.Handler) {
	headers := w.Header()

	maps.Insert(headers, maps.All(baseHeaders))

	if config.Global.Development.InDevelopment {
		invalidateCacheInDevelopment(headers)
	}

	setCacheControl(headers, r.URL.Path)

	headers.Set("Examadmin-Version", config.BuildVersion)
	headers.Set("Examadmin-Revision", config.Global.Build.Revision())

	// Full pages and fragments differ for the same URL.
	headers.Add("Vary", "HX-Request")

	next.ServeHTTP(w, r)
}

var firstDevResponse atomic.Bool

// invalidateCacheInDevelopment clears the browser cache on the first response after a restart.
func invalidateCacheInDevelopment(headers http.Header) {
	if firstDevResponse.CompareAndSwap(false, true) {
		headers.Set("Clear-Site-Data", `"cache"`)
	}
}

// setCacheControl sets appropriate cache control headers for static assets.
func setCacheControl(headers http.Header, path string) {
	// Pages depend on the session, so they are only stored by the browser and always revalidated.
	cacheControl := "private, no-cache"

	if strings.HasPrefix(path, "/css/") || strings.HasPrefix(path, "/js/") ||
		strings.HasPrefix(path, "/img/") || path == "/favicon.ico" {
		maxAge := int(config.Global.HTTPCache.MaxAge.Seconds())
		cacheControl = "max-age=" + strconv.Itoa(maxAge)
	}

	headers.Set("Cache-Control", cacheControl)
}
