// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// MsgKey is a msgid that translates and escapes itself when rendered, so it
// can be used directly as a templ component.
type MsgKey string

var _ templ.Component = MsgKey("")

// Tr translates the msgid into the language of ctx.
func (s MsgKey) Tr(ctx context.Context) string {
	return Tr(ctx, string(s))
}

func (s MsgKey) Render(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, templ.EscapeString(s.Tr(ctx)))

	return err
}
