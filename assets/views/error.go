// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

import (
	"context"
	"net/http"
	"strconv"

	"github.com/erikvoorbraak/knvvl-exam/i18n"
)

// ErrorData holds the data of the error page.
type ErrorData struct {
	Title      string
	StatusCode int
	Error      error
	// ShowDetails includes the error message, for development.
	ShowDetails bool
	// Home is the URL of the home route.
	Home string
}

func errorHeading(ctx context.Context, data ErrorData) string {
	title := data.Title
	if title == "" {
		title = http.StatusText(data.StatusCode)
	}

	return strconv.Itoa(data.StatusCode) + " " + i18n.Tr(ctx, title)
}

func homeURL(data ErrorData) string {
	if data.Home == "" {
		return "/"
	}

	return data.Home
}
