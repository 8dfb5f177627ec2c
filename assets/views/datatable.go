// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/erikvoorbraak/knvvl-exam/core/components"
)

// DataTableName is the name the data table widget is registered under.
const DataTableName = "EasyDataTable"

// defaultRowsPerPage applies when a list view does not set rowsPerPage.
const defaultRowsPerPage = 25

// WidgetProps are the inputs of a widget embedded in a view.
type WidgetProps struct {
	// Source is the API path the widget reads its rows from.
	Source      string
	Columns     []components.Column
	Search      bool
	RowsPerPage int
}

// Widget is a globally registered component that views embed by name.
type Widget func(props WidgetProps) templ.Component

// Widgets looks up registered widgets by name.
type Widgets interface {
	Widget(name string) (Widget, bool)
}

func rowsPerPage(props WidgetProps) int {
	if props.RowsPerPage <= 0 {
		return defaultRowsPerPage
	}

	return props.RowsPerPage
}

func columnWidth(col components.Column) templ.SafeCSS {
	return templ.SafeCSS("width: " + strconv.Itoa(col.Width) + "px;")
}
