// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package components

import (
	"bytes"
	"context"
	"io/fs"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ManifestDir is the directory of the view manifests inside the assets filesystem.
const ManifestDir = "views"

// ErrInvalidManifest is returned for manifests that parse but describe an unusable view.
var ErrInvalidManifest = errors.New("invalid view manifest")

// Loader produces a component. It is called at most once per successful load.
type Loader func(ctx context.Context) (*Component, error)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	sanitize = bluemonday.UGCPolicy()
)

// ManifestPath returns the path of the manifest of id inside fsys.
func ManifestPath(id ViewID) string {
	return path.Join(ManifestDir, string(id)+".yaml")
}

// ManifestLoader returns a Loader that reads the manifest of id from fsys.
func ManifestLoader(fsys fs.FS, id ViewID) Loader {
	return func(ctx context.Context) (*Component, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := fs.ReadFile(fsys, ManifestPath(id))
		if err != nil {
			return nil, errors.Wrapf(err, "read manifest for %s", id)
		}

		return ParseManifest(id, data)
	}
}

// ParseManifest decodes and validates a manifest for id.
func ParseManifest(id ViewID, data []byte) (*Component, error) {
	var c Component
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parse manifest for %s", id), ErrInvalidManifest)
	}

	if c.ID == "" {
		c.ID = id
	}

	if err := c.validate(id); err != nil {
		return nil, err
	}

	if c.Intro != "" {
		html, err := renderMarkdown(c.Intro)
		if err != nil {
			return nil, errors.Wrapf(err, "render intro of %s", id)
		}

		c.IntroHTML = html
	}

	return &c, nil
}

func (c *Component) validate(id ViewID) error {
	if c.ID != id {
		return errors.Wrapf(ErrInvalidManifest, "manifest declares id %q, expected %q", c.ID, id)
	}

	if c.Title == "" {
		return errors.Wrapf(ErrInvalidManifest, "%s: title is required", id)
	}

	switch c.Kind {
	case KindList:
		if len(c.Columns) == 0 {
			return errors.Wrapf(ErrInvalidManifest, "%s: list views need columns", id)
		}

		if c.Source == "" {
			return errors.Wrapf(ErrInvalidManifest, "%s: list views need a source", id)
		}
	case KindEdit, KindForm, KindAccount:
		if len(c.Fields) == 0 {
			return errors.Wrapf(ErrInvalidManifest, "%s: %s views need fields", id, c.Kind)
		}
	case KindHome:
	default:
		return errors.Wrapf(ErrInvalidManifest, "%s: unknown kind %q", id, c.Kind)
	}

	seen := make(map[string]bool, len(c.Branches))
	for _, b := range c.Branches {
		if seen[b.Param] {
			return errors.Wrapf(ErrInvalidManifest, "%s: duplicate branch for param %q", id, b.Param)
		}

		seen[b.Param] = true
	}

	return nil
}

func renderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}

	return string(sanitize.SanitizeBytes(buf.Bytes())), nil
}
