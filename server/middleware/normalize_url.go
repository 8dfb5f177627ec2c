// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// NormalizeURL is a middleware that handles URL normalization by:
// 1. Collapsing repeated slashes.
// 2. Removing trailing slashes from URLs (except root).
//
// Both redirect permanently and keep the query string. They work on the
// escaped path, so an encoded slash inside a segment survives the redirect.
func NormalizeURL(w http.ResponseWriter, r *http.Request, next http.Handler) {
	escaped := r.URL.EscapedPath()

	if hasRepeatedSlashes(r) {
		redirectToPath(w, r, collapseSlashes(escaped))

		return
	}

	if hasTrailingSlash(r) && !strings.HasPrefix(escaped, "/debug/") {
		redirectToPath(w, r, strings.TrimSuffix(escaped, "/"))

		return
	}

	next.ServeHTTP(w, r)
}

// hasTrailingSlash checks if a request path has a trailing slash (except root).
func hasTrailingSlash(r *http.Request) bool {
	p := r.URL.EscapedPath()

	return p != "/" && strings.HasSuffix(p, "/")
}

func hasRepeatedSlashes(r *http.Request) bool {
	return strings.Contains(r.URL.EscapedPath(), "//")
}

func collapseSlashes(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	return path
}

// redirectToPath redirects to the escaped path.
func redirectToPath(w http.ResponseWriter, r *http.Request, escaped string) {
	path, err := url.PathUnescape(escaped)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return
	}

	target := *r.URL
	target.Path = path
	target.RawPath = escaped

	// Only the path of the request is reused, so this cannot redirect off-site.
	http.Redirect(w, r, target.RequestURI(), http.StatusPermanentRedirect)
}
