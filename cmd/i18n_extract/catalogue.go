// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/erikvoorbraak/knvvl-exam/config"
)

// key models a gettext entry. For non-plural entries, plural is empty.
type key struct {
	id     string
	plural string
}

// ref is a source position, or a manifest field when line is 0.
type ref struct {
	file string
	line int
	note string
}

func (r ref) String() string {
	if r.line == 0 {
		return r.file
	}

	return fmt.Sprintf("%s:%d", r.file, r.line)
}

type catalogue map[key][]ref

func (c catalogue) add(id, plural string, r ref) {
	if strings.TrimSpace(id) == "" {
		return
	}

	k := key{id: id, plural: plural}

	c[k] = append(c[k], r)
}

// writePOT writes the entries sorted by msgid, each with its deduplicated references.
func (c catalogue) writePOT(w io.Writer) error {
	keys := make([]key, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].id != keys[j].id {
			return keys[i].id < keys[j].id
		}

		return keys[i].plural < keys[j].plural
	})

	var b strings.Builder

	writeHeader(&b)

	for i, k := range keys {
		refs := c[k]
		sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })

		fmt.Fprint(&b, "#:")

		last := ""

		for _, r := range refs {
			if s := r.String(); s != last {
				fmt.Fprintf(&b, " %s", s)

				last = s
			}
		}

		fmt.Fprintln(&b)

		for _, r := range refs {
			if r.note != "" {
				fmt.Fprintf(&b, "#. %s\n", r.note)

				break
			}
		}

		fmt.Fprintf(&b, "msgid %q\n", k.id)

		if k.plural != "" {
			fmt.Fprintf(&b, "msgid_plural %q\n", k.plural)
			fmt.Fprintln(&b, `msgstr[0] ""`)
			fmt.Fprintln(&b, `msgstr[1] ""`)
		} else {
			fmt.Fprintln(&b, `msgstr ""`)
		}

		if i < len(keys)-1 {
			fmt.Fprintln(&b)
		}
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func writeHeader(b *strings.Builder) {
	fmt.Fprintln(b, `msgid ""`)
	fmt.Fprintln(b, `msgstr ""`)
	fmt.Fprintf(b, "\"Project-Id-Version: examadmin %s\\n\"\n", config.BuildVersion)
	fmt.Fprintln(b, `"Language: en\n"`)
	fmt.Fprintln(b, `"MIME-Version: 1.0\n"`)
	fmt.Fprintln(b, `"Content-Type: text/plain; charset=UTF-8\n"`)
	fmt.Fprintln(b, `"Content-Transfer-Encoding: 8bit\n"`)
	fmt.Fprintln(b, `"Plural-Forms: nplurals=2; plural=(n != 1);\n"`)
	fmt.Fprintln(b)
}
