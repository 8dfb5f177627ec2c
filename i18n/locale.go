// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"sort"

	"golang.org/x/text/language"
)

// BaseLocale is the language of the msgids.
const BaseLocale = "en"

var baseTag = language.Make(BaseLocale)

// Languages returns the supported language tags sorted by tag string.
// It returns only the base locale before Setup.
func Languages() []language.Tag {
	if matcher == nil {
		return []language.Tag{baseTag}
	}

	out := make([]language.Tag, len(supportedTags))
	copy(out, supportedTags)

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })

	return out
}
