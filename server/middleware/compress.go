// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// compressMinSize is the smallest response worth compressing.
const compressMinSize = 1024

var gzipWrapper = mustGzipWrapper()

func mustGzipWrapper() func(http.Handler) http.HandlerFunc {
	wrapper, err := gzhttp.NewWrapper(gzhttp.MinSize(compressMinSize))
	if err != nil {
		panic(err)
	}

	return wrapper
}

// Compress gzips responses for clients that accept it.
func Compress(w http.ResponseWriter, r *http.Request, next http.Handler) {
	gzipWrapper(next).ServeHTTP(w, r)
}
