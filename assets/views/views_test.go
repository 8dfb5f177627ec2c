// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erikvoorbraak/knvvl-exam/core/components"
	"github.com/erikvoorbraak/knvvl-exam/core/navigation"
)

type widgetMap map[string]Widget

func (m widgetMap) Widget(name string) (Widget, bool) {
	w, ok := m[name]

	return w, ok
}

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	return doc
}

func instance(c *components.Component, params map[string]string) *navigation.Instance {
	return &navigation.Instance{
		ID:        uuid.New(),
		View:      c.ID,
		Component: c,
		Params:    params,
		Mode:      c.Mode(params),
	}
}

func TestDataTable(t *testing.T) {
	t.Parallel()

	doc := render(t, DataTable(WidgetProps{
		Source: "/api/texts",
		Columns: []components.Column{
			{Text: "Key", Value: "key", Sortable: true, Width: 160},
			{Text: "Label", Value: "label"},
		},
		Search: true,
	}))

	table := doc.Find("div.easy-data-table")
	require.Equal(t, 1, table.Length())
	assert.Equal(t, "/api/texts", table.AttrOr("data-source", ""))
	assert.Equal(t, "25", table.AttrOr("data-rows-per-page", ""))
	assert.Equal(t, 1, doc.Find("input.table-search").Length())

	headers := doc.Find("th")
	require.Equal(t, 2, headers.Length())
	assert.Equal(t, "Key", headers.First().Text())
	assert.Equal(t, "true", headers.First().AttrOr("data-sortable", ""))
	assert.Equal(t, "width: 160px;", headers.First().AttrOr("style", ""))
	assert.Equal(t, "2", doc.Find("td").AttrOr("colspan", ""))
}

func TestPageList(t *testing.T) {
	t.Parallel()

	c := &components.Component{
		ID:          components.TableExam,
		Title:       "Exam questions",
		Kind:        components.KindList,
		Source:      "/api/exams/{examId}/questions",
		Columns:     []components.Column{{Text: "#", Value: "questionIndex"}},
		RowsPerPage: 50,
	}

	doc := render(t, Page(PageData{
		Instance: instance(c, map[string]string{"examId": "12"}),
		Widgets:  widgetMap{DataTableName: DataTable},
	}))

	assert.Equal(t, "TableExam", doc.Find("section.view").AttrOr("data-view", ""))
	assert.Equal(t, "Exam questions", doc.Find("h1").Text())
	assert.Equal(t, "/api/exams/12/questions", doc.Find(".easy-data-table").AttrOr("data-source", ""))
	assert.Equal(t, "50", doc.Find(".easy-data-table").AttrOr("data-rows-per-page", ""))
}

func TestPageListWithoutWidget(t *testing.T) {
	t.Parallel()

	c := &components.Component{ID: components.Texts, Title: "Texts", Kind: components.KindList, Source: "/api/texts"}

	err := Page(PageData{Instance: instance(c, nil), Widgets: widgetMap{}}).Render(context.Background(), &bytes.Buffer{})
	require.ErrorIs(t, err, ErrMissingWidget)
}

func TestPageFormModes(t *testing.T) {
	t.Parallel()

	c := &components.Component{
		ID:     components.EditQuestion,
		Title:  "Question",
		Kind:   components.KindEdit,
		Source: "/api/questions",
		Branches: []components.Branch{
			{Param: "questionId", Mode: "edit", Title: "Edit question", Source: "/api/questions/{questionId}"},
			{Param: "translatesId", Mode: "translate", Title: "Translate question", Source: "/api/questions/{translatesId}/translated"},
			{Mode: "new", Title: "New question"},
		},
		Fields: []components.Field{
			{Name: "question", Label: "Question", Type: "textarea", Required: true},
			{Name: "answer", Label: "Correct answer", Type: "select", Options: []string{"A", "B"}},
			{Name: "allowB2", Label: "Allowed for B2", Type: "checkbox"},
		},
	}

	tests := []struct {
		params  map[string]string
		mode    string
		heading string
		source  string
	}{
		{params: map[string]string{"questionId": "42"}, mode: "edit", heading: "Edit question", source: "/api/questions/42"},
		{params: map[string]string{"translatesId": "7"}, mode: "translate", heading: "Translate question", source: "/api/questions/7/translated"},
		{params: nil, mode: "new", heading: "New question", source: ""},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			t.Parallel()

			doc := render(t, Page(PageData{Instance: instance(c, tt.params), Widgets: widgetMap{}}))

			assert.Equal(t, tt.mode, doc.Find("section.view").AttrOr("data-mode", ""))
			assert.Equal(t, tt.heading, doc.Find("h1").Text())
			assert.Equal(t, tt.source, doc.Find("form").AttrOr("data-source", ""))
			assert.Equal(t, 1, doc.Find("textarea[required]").Length())
			assert.Equal(t, 2, doc.Find("select option").Length())
			assert.Equal(t, 1, doc.Find(`input[type="checkbox"]`).Length())
		})
	}
}

func TestPageHome(t *testing.T) {
	t.Parallel()

	c, err := components.ParseManifest(components.HomeView, []byte(`
title: KNVvL examens
kind: home
intro: "Hello **admin**"
actions:
  - {label: Exams, href: /exams}
`))
	require.NoError(t, err)

	doc := render(t, Page(PageData{
		Instance: instance(c, nil),
		Href:     func(path string) string { return "/admin" + path },
	}))

	assert.Equal(t, "admin", doc.Find(".intro strong").Text())
	assert.Equal(t, "/admin/exams", doc.Find(".view-actions a").AttrOr("href", ""))
	assert.Equal(t, "#app", doc.Find(".view-actions a").AttrOr("hx-target", ""))
}

func TestShell(t *testing.T) {
	t.Parallel()

	doc := render(t, Shell(ShellData{
		Title:     "KNVvL examens",
		Target:    "#app",
		Href:      func(path string) string { return "/admin" + path },
		Current:   "/texts",
		Version:   "v1.0.0",
		StartedAt: "2026-10-16 09:00",
		Content:   templ.Raw(`<p id="content">hi</p>`),
	}))

	assert.Equal(t, len(Navigation), doc.Find("nav li").Length())
	assert.Equal(t, "/admin/texts", doc.Find("nav a.active").AttrOr("href", ""))
	assert.Equal(t, "/logout", doc.Find(`nav a[href="/logout"]`).AttrOr("href", ""))
	assert.Empty(t, doc.Find(`nav a[href="/logout"]`).AttrOr("hx-get", ""))
	assert.Equal(t, "hi", doc.Find("main #content").Text())
	assert.Contains(t, doc.Find("footer").Text(), "running since 2026-10-16 09:00")
}

func TestError(t *testing.T) {
	t.Parallel()

	doc := render(t, Error(ErrorData{StatusCode: http.StatusNotFound, Error: errors.New("no route"), Home: "/home"}))

	assert.Equal(t, "404 Not Found", doc.Find("h1").Text())
	assert.Equal(t, "404", doc.Find("section").AttrOr("data-status", ""))
	assert.Equal(t, 0, doc.Find("pre.error-details").Length())
	assert.Equal(t, "/home", doc.Find("section a").AttrOr("href", ""))

	doc = render(t, ErrorFragment(ErrorData{StatusCode: http.StatusInternalServerError, Error: errors.New("boom"), ShowDetails: true}))

	assert.Equal(t, 0, doc.Find("link").Length())
	assert.Equal(t, "boom", doc.Find("pre.error-details").Text())
}
