// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type contextKeyType struct{}

var tagKey = contextKeyType{}

// LangParam is the query parameter and cookie name holding a preferred language.
const LangParam = "lang"

// WithTag returns a copy of ctx carrying t.
func WithTag(ctx context.Context, t language.Tag) context.Context {
	return context.WithValue(ctx, tagKey, t)
}

// TagFrom returns the language tag stored in ctx, or the base tag.
func TagFrom(ctx context.Context) language.Tag {
	if ctx != nil {
		if t, _ := ctx.Value(tagKey).(language.Tag); t != (language.Tag{}) {
			return t
		}
	}

	return baseTag
}

// FromRequest picks the language for r from, in order, the [LangParam] query
// parameter, the [LangParam] cookie and the Accept-Language header.
// A query value of "auto" ignores the cookie.
func FromRequest(r *http.Request) language.Tag {
	if r == nil || matcher == nil {
		return baseTag
	}

	q := r.URL.Query().Get(LangParam)
	auto := strings.EqualFold(q, "auto")

	preferred := make([]string, 0, 3)
	if q != "" && !auto {
		preferred = append(preferred, q)
	}

	if !auto {
		if c, err := r.Cookie(LangParam); err == nil && c.Value != "" {
			preferred = append(preferred, c.Value)
		}
	}

	if al := r.Header.Get("Accept-Language"); al != "" {
		preferred = append(preferred, al)
	}

	_, idx := language.MatchStrings(matcher, preferred...)

	return supportedTags[idx]
}

// WithRequest is WithTag(ctx, FromRequest(r)).
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return WithTag(ctx, FromRequest(r))
}
