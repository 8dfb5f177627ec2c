// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

import (
	"context"
	"io"
	"slices"

	"github.com/a-h/templ"
	"github.com/cockroachdb/errors"

	"github.com/erikvoorbraak/knvvl-exam/core/components"
	"github.com/erikvoorbraak/knvvl-exam/core/navigation"
)

// ErrMissingWidget is returned when a view embeds a widget nobody registered.
var ErrMissingWidget = errors.New("widget not registered")

// PageData holds the data of one rendered view instance.
type PageData struct {
	Instance *navigation.Instance
	Widgets  Widgets
	// Target is the selector of the mount target htmx swaps content into.
	Target string
	// Href maps a route path to its URL under the base.
	Href func(path string) string
}

// Title returns the untranslated title of the instance.
func (d PageData) Title() string {
	return d.Instance.Mode.Title
}

// Page renders a view instance according to the kind of its component.
func Page(data PageData) templ.Component {
	inst := data.Instance
	if inst == nil || inst.Component == nil {
		return failed(errors.New("views: page without a view instance"))
	}

	if data.Href == nil {
		data.Href = func(path string) string { return path }
	}

	if data.Target == "" {
		data.Target = "#app"
	}

	var body templ.Component = templ.NopComponent

	switch inst.Component.Kind {
	case components.KindList:
		var (
			table Widget
			ok    bool
		)

		if data.Widgets != nil {
			table, ok = data.Widgets.Widget(DataTableName)
		}

		if !ok {
			return failed(errors.Wrapf(ErrMissingWidget, "%s in %s", DataTableName, inst.View))
		}

		body = table(WidgetProps{
			Source:      inst.Source(),
			Columns:     inst.Component.Columns,
			Search:      inst.Component.Search,
			RowsPerPage: inst.Component.RowsPerPage,
		})

	case components.KindEdit, components.KindForm, components.KindAccount:
		body = form(inst)
	}

	return page(data, body)
}

// failed is a component whose rendering fails with err.
func failed(err error) templ.Component {
	return templ.ComponentFunc(func(context.Context, io.Writer) error {
		return err
	})
}

func fieldID(f components.Field) string {
	return "field-" + f.Name
}

func inputType(f components.Field) string {
	if f.Type == "" {
		return "text"
	}

	return f.Type
}

func hasFileField(fields []components.Field) bool {
	return slices.ContainsFunc(fields, func(f components.Field) bool { return f.Type == "file" })
}
