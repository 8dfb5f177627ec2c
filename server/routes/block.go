// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"encoding/json"
	"net/http"
)

// BlockData is the body of a rejected request.
type BlockData struct {
	Reason string `json:"reason"`
}

// BlockPage writes the rejection of the rate limiter as a JSON response.
func BlockPage(w http.ResponseWriter, _ *http.Request, statusCode int, reason string) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(BlockData{Reason: reason})
}
