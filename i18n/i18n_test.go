// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const nlPo = `msgid ""
msgstr ""
"Language: nl\n"
"Content-Type: text/plain; charset=UTF-8\n"
"Plural-Forms: nplurals=2; plural=(n != 1);\n"

msgid "Questions"
msgstr "Vragen"

msgid "Edit {{.Name}}"
msgstr "{{.Name}} bewerken"

msgid "{{.Count}} row"
msgid_plural "{{.Count}} rows"
msgstr[0] "{{.Count}} rij"
msgstr[1] "{{.Count}} rijen"
`

// The tests share the package level catalogue state, so they do not run in parallel.
func setup(t *testing.T, strictKeys bool) {
	t.Helper()

	require.NoError(t, Setup(fstest.MapFS{
		"po/nl.po":      {Data: []byte(nlPo)},
		"po/README.txt": {Data: []byte("not a catalogue")},
	}, strictKeys))
}

func TestTr(t *testing.T) {
	setup(t, false)

	nl := WithTag(context.Background(), language.Dutch)
	en := WithTag(context.Background(), language.English)

	assert.Equal(t, "Vragen", Tr(nl, "Questions"))
	assert.Equal(t, "Questions", Tr(en, "Questions"))
	assert.Equal(t, "Questions", Tr(context.Background(), "Questions"))
	assert.Equal(t, "Toets bewerken", Tr(nl, "Edit {{.Name}}", "Name", "Toets"))
	assert.Equal(t, "Topics", Tr(nl, "Topics"))

	assert.Equal(t, "1 rij", TrN(nl, "{{.Count}} row", "{{.Count}} rows", 1, "Count", 1))
	assert.Equal(t, "3 rijen", TrN(nl, "{{.Count}} row", "{{.Count}} rows", 3, "Count", 3))
	assert.Equal(t, "3 rows", TrN(en, "{{.Count}} row", "{{.Count}} rows", 3, "Count", 3))
}

func TestStrictMissingKeys(t *testing.T) {
	setup(t, true)

	nl := WithTag(context.Background(), language.Dutch)

	assert.Equal(t, "⟦Topics⟧", Tr(nl, "Topics"))
	assert.Equal(t, "Topics", Tr(context.Background(), "Topics"))
}

func TestLanguages(t *testing.T) {
	setup(t, false)

	assert.Equal(t, []language.Tag{language.English, language.Dutch}, Languages())
}

func TestFromRequest(t *testing.T) {
	setup(t, false)

	tests := []struct {
		name   string
		url    string
		cookie string
		accept string
		want   language.Tag
	}{
		{"default", "/", "", "", language.English},
		{"accept language", "/", "", "nl-NL,nl;q=0.9", language.Dutch},
		{"cookie beats header", "/", "en", "nl", language.English},
		{"query beats cookie", "/?lang=nl", "en", "", language.Dutch},
		{"auto ignores cookie", "/?lang=auto", "nl", "en", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: LangParam, Value: tt.cookie})
			}

			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}

			got := FromRequest(r)
			base, _ := got.Base()
			want, _ := tt.want.Base()
			assert.Equal(t, want, base)
		})
	}
}

func TestMsgKeyRender(t *testing.T) {
	setup(t, false)

	var buf bytes.Buffer

	require.NoError(t, MsgKey("Questions").Render(WithTag(context.Background(), language.Dutch), &buf))
	assert.Equal(t, "Vragen", buf.String())

	buf.Reset()
	require.NoError(t, MsgKey("<b>").Render(context.Background(), &buf))
	assert.Equal(t, "&lt;b&gt;", buf.String())
}
