// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package views renders the admin front end as templ components.

The root document (assets/index.html) is owned by the app package. Components
here render what goes inside its mount target: the navigation shell, the view
instance of the current route and the global data table widget.

Components are written in .templ files. Run `templ generate` after editing
them and commit the generated _templ.go files with the sources.

The YAML files next to this package are the view manifests read by
core/components.
*/
package views
