// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"io/fs"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"

	"github.com/erikvoorbraak/knvvl-exam/assets/views"
	"github.com/erikvoorbraak/knvvl-exam/core/components"
)

// extractManifests records the titles and labels of every view manifest in
// fsys. prefix is prepended to the reported file names.
func extractManifests(c catalogue, fsys fs.FS, prefix string) error {
	for _, id := range components.All() {
		name := components.ManifestPath(id)

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return errors.Wrapf(err, "read %s", name)
		}

		// Decoding without validation keeps partial manifests translatable.
		var m components.Component
		if err := yaml.Unmarshal(data, &m); err != nil {
			return errors.Wrapf(err, "parse %s", name)
		}

		at := func(note string) ref {
			return ref{file: path.Join(prefix, name), note: string(id) + " " + note}
		}

		c.add(m.Title, "", at("title"))

		for _, b := range m.Branches {
			c.add(b.Title, "", at("branch title"))
		}

		for _, col := range m.Columns {
			c.add(col.Text, "", at("column"))
		}

		for _, f := range m.Fields {
			c.add(f.Label, "", at("field label"))
		}

		for _, a := range m.Actions {
			c.add(a.Label, "", at("action"))
		}
	}

	return nil
}

// extractNavigation records the labels of the navigation bar.
func extractNavigation(c catalogue) {
	for _, link := range views.Navigation {
		c.add(link.Label, "", ref{file: "assets/views/shell.go", note: "navigation"})
	}
}
