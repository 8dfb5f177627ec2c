// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"text/template"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// templateCache holds the parsed template of every translated text with placeholders.
var templateCache sync.Map

// Vars are the placeholder values of a translation.
type Vars map[string]any

// Tr translates msgid into the language of ctx and fills its placeholders
// from kv. Without a translation the msgid is used.
func Tr(ctx context.Context, msgid string, kv ...any) string {
	return translate(ctx, msgid, "", 0, false, vars(kv...))
}

// TrN translates the singular or plural form depending on n.
func TrN(ctx context.Context, singular, plural string, n int, kv ...any) string {
	return translate(ctx, singular, plural, n, true, vars(kv...))
}

func translate(ctx context.Context, singular, plural string, n int, pluralMode bool, data Vars) string {
	loc, matched := resolveLocale(TagFrom(ctx))

	base := singular
	if pluralMode && n != 1 {
		base = plural
	}

	text := base
	found := matched == baseTag

	if loc != nil {
		if pluralMode {
			if loc.IsTranslatedND(poDomain, singular, n) {
				text, found = loc.GetND(poDomain, singular, plural, n), true
			}
		} else if loc.IsTranslatedD(poDomain, singular) {
			text, found = loc.GetD(poDomain, singular), true
		}
	}

	if !found && strict {
		logMissingOnce(strippedTagString(matched), singular)

		text = "⟦" + base + "⟧"
	}

	return render(matched, text, data)
}

func render(locale language.Tag, s string, data Vars) string {
	if !strings.Contains(s, "{{") {
		return s
	}

	var tmpl *template.Template
	if t, ok := templateCache.Load(s); ok {
		tmpl = t.(*template.Template)
	} else {
		var err error

		tmpl, err = template.New("msg").Option("missingkey=error").Parse(s)
		if err != nil {
			Logger.Warn().Err(err).Str("locale", locale.String()).Str("text", s).Msg("Invalid translation template")

			return s
		}

		templateCache.Store(s, tmpl)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any(data)); err != nil {
		Logger.Warn().Err(err).Str("locale", locale.String()).Str("text", s).Msg("Failed to fill translation")

		return s
	}

	return buf.String()
}

// resolveLocale returns the loaded locale best matching t and the matched tag.
func resolveLocale(t language.Tag) (*gotext.Locale, language.Tag) {
	if matcher == nil {
		return nil, baseTag
	}

	_, idx, _ := matcher.Match(t)
	matched := supportedTags[idx]

	return localesByTag[matched.String()], matched
}

// vars builds Vars from alternating key, value pairs. It panics on a malformed list.
func vars(kv ...any) Vars {
	if len(kv)%2 != 0 {
		panic("i18n: odd number of arguments, want key, value pairs")
	}

	m := make(Vars, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic("i18n: key must be string")
		}

		m[k] = kv[i+1]
	}

	return m
}
