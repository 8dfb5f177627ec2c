// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/erikvoorbraak/knvvl-exam/assets/views"
	"github.com/erikvoorbraak/knvvl-exam/config"
	"github.com/erikvoorbraak/knvvl-exam/server/request_context"
)

// ErrorPage renders the error stored in the request context.
//
// htmx navigations get the message alone so it lands in the mount target.
// The caller is expected to have written the status code.
func ErrorPage(w http.ResponseWriter, r *http.Request) {
	ctx := request_context.FromRequest(r)

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	data := views.ErrorData{
		Title:       "Error",
		StatusCode:  ctx.StatusCode,
		Error:       ctx.RequestError,
		ShowDetails: config.Global.Development.InDevelopment,
		Home:        config.Global.App.BaseURL + "/home",
	}

	page := views.Error(data)
	if ctx.IsFragment {
		page = views.ErrorFragment(data)
	}

	if err := page.Render(r.Context(), w); err != nil {
		log.Err(err).Msg("Failed to render the error page")
	}
}
