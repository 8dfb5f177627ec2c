// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"encoding/json"
	"net/http"

	"github.com/erikvoorbraak/knvvl-exam/core/app"
	"github.com/erikvoorbraak/knvvl-exam/core/components"
	"github.com/erikvoorbraak/knvvl-exam/i18n"
)

// ViewsReport is the body of the view debug route.
type ViewsReport struct {
	Summary  string   `json:"summary"`
	Loaded   []string `json:"loaded"`
	Pending  []string `json:"pending"`
	Sessions int      `json:"sessions"`
	Mounted  string   `json:"mounted"`
}

// DebugViews reports which views have been loaded so far.
func DebugViews(a *app.App) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		registry := a.Router().Registry()

		report := ViewsReport{
			Loaded:   []string{},
			Pending:  []string{},
			Sessions: a.Router().Sessions(),
			Mounted:  a.Selector(),
		}

		for _, id := range components.All() {
			if registry.Loaded(id) {
				report.Loaded = append(report.Loaded, string(id))
			} else {
				report.Pending = append(report.Pending, string(id))
			}
		}

		n := len(report.Loaded)
		report.Summary = i18n.TrN(r.Context(), "{{.Count}} view loaded", "{{.Count}} views loaded", n, "Count", n)

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		return json.NewEncoder(w).Encode(report)
	}
}
