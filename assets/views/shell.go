// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

import (
	"context"

	"github.com/a-h/templ"

	"github.com/erikvoorbraak/knvvl-exam/i18n"
)

// NavLink is an entry of the navigation bar.
type NavLink struct {
	Label string
	Path  string
	// External links leave the app and are never loaded with htmx.
	External bool
}

// Navigation is the navigation bar of the shell.
var Navigation = []NavLink{
	{Label: "Home", Path: "/home"},
	{Label: "Texts", Path: "/texts"},
	{Label: "Questions", Path: "/questions"},
	{Label: "Topics", Path: "/topics"},
	{Label: "Requirements", Path: "/requirements"},
	{Label: "Exams", Path: "/exams"},
	{Label: "Pictures", Path: "/pictures"},
	{Label: "Users", Path: "/users"},
	{Label: "My account", Path: "/myaccount"},
	{Label: "Log out", Path: "/logout", External: true},
}

// ShellData holds the data of the shell rendered inside the mount target.
type ShellData struct {
	Title string
	// Target is the selector of the mount target htmx swaps content into.
	Target string
	// Href maps a route path to its URL under the base.
	Href func(path string) string
	// Current is the path of the current route.
	Current   string
	Version   string
	StartedAt string
	Content   templ.Component
}

// Shell renders the navigation bar, the content and the footer.
func Shell(data ShellData) templ.Component {
	if data.Href == nil {
		data.Href = func(path string) string { return path }
	}

	if data.Content == nil {
		data.Content = templ.NopComponent
	}

	return shell(data)
}

func footerText(ctx context.Context, data ShellData) string {
	text := data.Title + " " + data.Version

	if data.StartedAt != "" {
		text += " · " + i18n.Tr(ctx, "running since {{.Time}}", "Time", data.StartedAt)
	}

	return text
}
