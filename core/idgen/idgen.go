// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package idgen makes short identifiers for requests and asset cache busting.
package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

const entropyBytes = 3

// Make returns a short ID: the wall clock time as hhmmss followed by 3 random
// bytes in unpadded URL-safe base64.
func Make() string {
	return makeAt(time.Now())
}

func makeAt(t time.Time) string {
	var entropy [entropyBytes]byte

	_, _ = rand.Read(entropy[:])

	return t.Format("150405") + base64.RawURLEncoding.EncodeToString(entropy[:])
}
