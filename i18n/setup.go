// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/leonelquinteros/gotext"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// PoDir is the directory of the catalogues inside the assets filesystem.
const PoDir = "po"

var (
	// poDomain is the gettext domain loaded under each locale.
	poDomain = "examadmin"

	// localesByTag maps canonical BCP 47 tags to their loaded locale.
	localesByTag map[string]*gotext.Locale

	// supportedTags lists the base tag followed by every loaded locale.
	supportedTags []language.Tag

	matcher language.Matcher

	strict bool
)

// Setup loads every po/<locale>.po catalogue from fsys and builds the language
// matcher. The locale part of the file name may use hyphens or underscores.
//
// Calling Setup again replaces the loaded locales.
func Setup(fsys fs.FS, strictMissingKeys bool) error {
	Logger = log.With().Str("sys", "i18n").Logger()

	localesByTag = make(map[string]*gotext.Locale)
	supportedTags = nil
	matcher = nil
	strict = strictMissingKeys
	missingKeyOnce = sync.Map{}

	entries, err := fs.ReadDir(fsys, PoDir)
	if err != nil {
		return errors.Wrap(err, "read po directory")
	}

	var loaded []language.Tag

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".po") {
			continue
		}

		t, err := language.Parse(strings.ReplaceAll(strings.TrimSuffix(name, ".po"), "_", "-"))
		if err != nil {
			Logger.Warn().Err(err).Str("file", name).Msg("Skipping invalid locale file")

			continue
		}

		canonical := t.String()

		po := gotext.NewPoFS(fsys)
		po.ParseFile(path.Join(PoDir, name))

		loc := gotext.NewLocale("", canonical)
		loc.AddTranslator(poDomain, po)

		localesByTag[canonical] = loc
		loaded = append(loaded, t)

		Logger.Info().
			Str("locale", canonical).
			Str("domain", poDomain).
			Msg("Loaded locale")
	}

	sort.Slice(loaded, func(i, j int) bool { return loaded[i].String() < loaded[j].String() })

	// baseTag first makes it the fallback of the matcher.
	all := []language.Tag{baseTag}

	for _, t := range loaded {
		if t != baseTag {
			all = append(all, t)
		}
	}

	matcher = language.NewMatcher(all)
	supportedTags = all

	return nil
}
