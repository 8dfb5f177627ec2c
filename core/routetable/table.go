// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routetable holds the ordered route table of the admin front end and
resolves request paths against it.

A pattern is a slash separated path in which a segment starting with ':' is a
parameter, e.g. /questions/:questionId. Resolution is by segment count and
static segment equality, ignoring case. Parameter values keep their case. When several patterns match, the most specific one
wins: segments are compared left to right and a static segment beats a
parameter. Equally specific patterns are ranked by their position in the table.
*/
package routetable

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/erikvoorbraak/knvvl-exam/core/components"
)

// Table construction errors.
var (
	ErrInvalidPattern   = errors.New("invalid route pattern")
	ErrDuplicatePattern = errors.New("duplicate route pattern")
	ErrDuplicateParam   = errors.New("duplicate parameter name")
	ErrDuplicateName    = errors.New("duplicate route name")
	ErrMissingParam     = errors.New("missing route parameter")
)

// Target is what an entry resolves to. It is either an InternalView or an
// ExternalRedirect.
type Target interface {
	isTarget()
	String() string
}

// InternalView is a view rendered by this process.
type InternalView struct {
	View components.ViewID
	// Eager views are loaded at startup instead of on first visit.
	Eager bool
}

func (InternalView) isTarget() {}

func (v InternalView) String() string {
	if v.Eager {
		return string(v.View) + " (eager)"
	}

	return string(v.View)
}

// ExternalRedirect hands the browser off to a URL outside the front end.
type ExternalRedirect struct {
	URL string
}

func (ExternalRedirect) isTarget() {}

func (r ExternalRedirect) String() string {
	return "redirect " + r.URL
}

// Entry is one row of the route table.
type Entry struct {
	Path   string
	Name   string
	Target Target

	segments []segment
	index    int
}

type segment struct {
	value string
	param bool
}

// Params returns the parameter names of the entry in path order.
func (e *Entry) Params() []string {
	var names []string

	for _, s := range e.segments {
		if s.param {
			names = append(names, s.value)
		}
	}

	return names
}

// Build renders a concrete path from the pattern. Values are path-escaped.
func (e *Entry) Build(params map[string]string) (string, error) {
	if len(e.segments) == 0 {
		return "/", nil
	}

	var b strings.Builder

	for _, s := range e.segments {
		b.WriteByte('/')

		if !s.param {
			b.WriteString(s.value)

			continue
		}

		v, ok := params[s.value]
		if !ok {
			return "", errors.Wrapf(ErrMissingParam, "%s in %s", s.value, e.Path)
		}

		b.WriteString(url.PathEscape(v))
	}

	return b.String(), nil
}

// Match is the result of a successful resolution.
type Match struct {
	Entry  *Entry
	Params map[string]string
}

// Table is an immutable, ordered list of entries.
type Table struct {
	entries []*Entry
	byName  map[string]*Entry
}

// NewTable validates entries and builds a table that keeps their order.
func NewTable(entries ...Entry) (*Table, error) {
	t := &Table{
		entries: make([]*Entry, 0, len(entries)),
		byName:  make(map[string]*Entry),
	}

	paths := make(map[string]bool, len(entries))

	for i, e := range entries {
		if e.Target == nil {
			return nil, errors.Wrapf(ErrInvalidPattern, "%s: no target", e.Path)
		}

		segs, err := parsePattern(e.Path)
		if err != nil {
			return nil, err
		}

		key := strings.ToLower(e.Path)
		if paths[key] {
			return nil, errors.Wrapf(ErrDuplicatePattern, "%s", e.Path)
		}

		paths[key] = true

		if e.Name != "" {
			if _, ok := t.byName[e.Name]; ok {
				return nil, errors.Wrapf(ErrDuplicateName, "%s", e.Name)
			}
		}

		entry := &Entry{
			Path:     e.Path,
			Name:     e.Name,
			Target:   e.Target,
			segments: segs,
			index:    i,
		}

		t.entries = append(t.entries, entry)

		if e.Name != "" {
			t.byName[e.Name] = entry
		}
	}

	return t, nil
}

// MustNewTable is like NewTable but panics on error.
func MustNewTable(entries ...Entry) *Table {
	t, err := NewTable(entries...)
	if err != nil {
		panic(err)
	}

	return t
}

func parsePattern(pattern string) ([]segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, errors.Wrapf(ErrInvalidPattern, "%q does not start with /", pattern)
	}

	if pattern == "/" {
		return nil, nil
	}

	parts := strings.Split(pattern[1:], "/")
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]bool)

	for _, part := range parts {
		if part == "" {
			return nil, errors.Wrapf(ErrInvalidPattern, "%q has an empty segment", pattern)
		}

		name, isParam := strings.CutPrefix(part, ":")
		if !isParam {
			segs = append(segs, segment{value: part})

			continue
		}

		if name == "" {
			return nil, errors.Wrapf(ErrInvalidPattern, "%q has an unnamed parameter", pattern)
		}

		if seen[name] {
			return nil, errors.Wrapf(ErrDuplicateParam, "%s in %q", name, pattern)
		}

		seen[name] = true

		segs = append(segs, segment{value: name, param: true})
	}

	return segs, nil
}

// Entries returns a copy of the entries in table order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = *e
	}

	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup returns the entry with the given route name.
func (t *Table) Lookup(name string) (*Entry, bool) {
	e, ok := t.byName[name]

	return e, ok
}

// Views returns the distinct internal views of the table in order of first use.
func (t *Table) Views() []InternalView {
	var (
		views []InternalView
		seen  = make(map[components.ViewID]int)
	)

	for _, e := range t.entries {
		v, ok := e.Target.(InternalView)
		if !ok {
			continue
		}

		if i, dup := seen[v.View]; dup {
			views[i].Eager = views[i].Eager || v.Eager

			continue
		}

		seen[v.View] = len(views)
		views = append(views, v)
	}

	return views
}

// Resolve matches path against the table.
//
// path is the escaped request path. Parameter values in the match are
// percent-decoded. A trailing slash is ignored, so /texts/ resolves like /texts.
func (t *Table) Resolve(path string) (Match, bool) {
	parts, ok := splitPath(path)
	if !ok {
		return Match{}, false
	}

	var best *Entry

	for _, e := range t.entries {
		if !e.matches(parts) {
			continue
		}

		if best == nil || moreSpecific(e, best) {
			best = e
		}
	}

	if best == nil {
		return Match{}, false
	}

	params := make(map[string]string)

	for i, s := range best.segments {
		if !s.param {
			continue
		}

		v, err := url.PathUnescape(parts[i])
		if err != nil {
			return Match{}, false
		}

		params[s.value] = v
	}

	return Match{Entry: best, Params: params}, true
}

func splitPath(path string) ([]string, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}

	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, true
	}

	parts := strings.Split(trimmed, "/")
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}

	return parts, true
}

func (e *Entry) matches(parts []string) bool {
	if len(parts) != len(e.segments) {
		return false
	}

	for i, s := range e.segments {
		if !s.param && !strings.EqualFold(s.value, parts[i]) {
			return false
		}
	}

	return true
}

// moreSpecific reports whether a ranks before b. Both must match the same path.
func moreSpecific(a, b *Entry) bool {
	for i := range a.segments {
		if a.segments[i].param != b.segments[i].param {
			return !a.segments[i].param
		}
	}

	return a.index < b.index
}
