// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n translates the user interface of the admin front end using GNU
gettext .po catalogues.

The msgid is the English UI text:

	i18n.Tr(ctx, "Questions")
	i18n.TrN(ctx, "{{.Count}} row", "{{.Count}} rows", n, "Count", n)

A catalogue po/<locale>.po in the assets filesystem adds a language. English
is the base locale and needs no catalogue. Placeholders use text/template
syntax and are filled from alternating key, value pairs.

When StrictMissingKeys is enabled, missing lookups are logged once per locale
and key, and the returned text is wrapped as "⟦...⟧".
*/
package i18n
