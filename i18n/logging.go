// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

var (
	// Logger is the logger used by package i18n.
	Logger zerolog.Logger

	// missingKeyOnce holds locale+"\x00"+msgid for every missing key already logged.
	missingKeyOnce sync.Map
)

func logMissingOnce(locale, key string) {
	if !strict {
		return
	}

	id := locale + "\x00" + key
	if _, loaded := missingKeyOnce.LoadOrStore(id, struct{}{}); !loaded {
		Logger.Warn().
			Str("locale", locale).
			Str("key", key).
			Msg("Missing i18n translation")
	}
}

// strippedTagString drops variants and extensions from tag.
func strippedTagString(tag language.Tag) string {
	b, s, r := tag.Raw()
	stripped, _ := language.Compose(b, s, r)

	return stripped.String()
}
