// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routetable

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erikvoorbraak/knvvl-exam/core/components"
)

func TestDefaultResolve(t *testing.T) {
	t.Parallel()

	table := Default("")

	tests := []struct {
		path   string
		view   components.ViewID
		params map[string]string
	}{
		{"/", components.HomeView, map[string]string{}},
		{"/home", components.HomeView, map[string]string{}},
		{"/texts", components.Texts, map[string]string{}},
		{"/texts/intro", components.EditText, map[string]string{"textKey": "intro"}},
		{"/questions", components.Questions, map[string]string{}},
		{"/newquestion", components.EditQuestion, map[string]string{}},
		{"/questions/42", components.EditQuestion, map[string]string{"questionId": "42"}},
		{"/translates/7", components.EditQuestion, map[string]string{"translatesId": "7"}},
		{"/topics", components.Topics, map[string]string{}},
		{"/requirements", components.Requirements, map[string]string{}},
		{"/newrequirement", components.EditRequirement, map[string]string{}},
		{"/requirements/3", components.EditRequirement, map[string]string{"requirementId": "3"}},
		{"/exams", components.Exams, map[string]string{}},
		{"/examQuestions/5", components.TableExam, map[string]string{"examId": "5"}},
		{"/examQuestion/9", components.EditExamQuestion, map[string]string{"examQuestionId": "9"}},
		{"/exam/5", components.EditExam, map[string]string{"examId": "5"}},
		{"/newexam", components.NewExam, map[string]string{}},
		{"/pictures", components.Pictures, map[string]string{}},
		{"/newpicture", components.UploadPicture, map[string]string{}},
		{"/pictures/12", components.UploadPicture, map[string]string{"pictureId": "12"}},
		{"/users", components.Users, map[string]string{}},
		{"/newuser", components.NewUser, map[string]string{}},
		{"/myaccount", components.MyAccount, map[string]string{}},
		{"/texts/", components.Texts, map[string]string{}},
		{"/texts/a%20b", components.EditText, map[string]string{"textKey": "a b"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			m, ok := table.Resolve(tt.path)
			require.True(t, ok)

			target, isView := m.Entry.Target.(InternalView)
			require.True(t, isView)
			assert.Equal(t, tt.view, target.View)
			assert.Equal(t, tt.params, m.Params)
		})
	}
}

func TestDefaultUnmatched(t *testing.T) {
	t.Parallel()

	table := Default("")

	for _, path := range []string{
		"/nope",
		"/questions/1/2",
		"/exams/x/y",
		"",
		"texts",
		"/texts//x",
		"/texts/%zz",
	} {
		_, ok := table.Resolve(path)
		assert.False(t, ok, path)
	}
}

func TestDefaultIgnoresCase(t *testing.T) {
	t.Parallel()

	table := Default("")

	tests := []struct {
		path   string
		view   components.ViewID
		params map[string]string
	}{
		{"/EXAMS", components.Exams, map[string]string{}},
		{"/Texts", components.Texts, map[string]string{}},
		{"/NewExam", components.NewExam, map[string]string{}},
		{"/QUESTIONS/42", components.EditQuestion, map[string]string{"questionId": "42"}},
		{"/examquestions/5", components.TableExam, map[string]string{"examId": "5"}},
		{"/Texts/WelKom", components.EditText, map[string]string{"textKey": "WelKom"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			m, ok := table.Resolve(tt.path)
			require.True(t, ok)

			target, isView := m.Entry.Target.(InternalView)
			require.True(t, isView)
			assert.Equal(t, tt.view, target.View)
			assert.Equal(t, tt.params, m.Params)
		})
	}
}

func TestDefaultLogin(t *testing.T) {
	t.Parallel()

	m, ok := Default("").Resolve("/login")
	require.True(t, ok)
	assert.Equal(t, ExternalRedirect{URL: "/login"}, m.Entry.Target)

	m, ok = Default("https://auth.example.org/login").Resolve("/login")
	require.True(t, ok)
	assert.Equal(t, ExternalRedirect{URL: "https://auth.example.org/login"}, m.Entry.Target)
}

func TestDefaultShape(t *testing.T) {
	t.Parallel()

	table := Default("")
	entries := table.Entries()

	require.Len(t, entries, 24)
	assert.Equal(t, "/", entries[0].Path)
	assert.Equal(t, "/myaccount", entries[23].Path)

	for _, name := range []string{RouteRoot, RouteHome, RouteLogin} {
		_, ok := table.Lookup(name)
		assert.True(t, ok, name)
	}

	views := table.Views()
	assert.Len(t, views, len(components.All()))
	assert.Equal(t, InternalView{View: components.HomeView, Eager: true}, views[0])

	for _, v := range views[1:] {
		assert.False(t, v.Eager, v.View)
	}
}

func TestSharedViewDifferentParams(t *testing.T) {
	t.Parallel()

	table := Default("")

	q, ok := table.Resolve("/questions/7")
	require.True(t, ok)

	tr, ok := table.Resolve("/translates/7")
	require.True(t, ok)

	assert.Equal(t, q.Entry.Target, tr.Entry.Target)
	assert.Equal(t, map[string]string{"questionId": "7"}, q.Params)
	assert.Equal(t, map[string]string{"translatesId": "7"}, tr.Params)
	assert.NotEqual(t, q.Entry.Path, tr.Entry.Path)
}

func TestStaticBeatsParam(t *testing.T) {
	t.Parallel()

	table := MustNewTable(
		Entry{Path: "/questions/:questionId", Target: view(components.EditQuestion)},
		Entry{Path: "/questions/new", Target: view(components.Questions)},
		Entry{Path: "/:a/:b", Target: view(components.Texts)},
		Entry{Path: "/:c/:d/x", Target: view(components.Topics)},
		Entry{Path: "/:e/:f/:g", Target: view(components.Users)},
	)

	m, ok := table.Resolve("/questions/new")
	require.True(t, ok)
	assert.Equal(t, "/questions/new", m.Entry.Path)

	m, ok = table.Resolve("/questions/1")
	require.True(t, ok)
	assert.Equal(t, "/questions/:questionId", m.Entry.Path)

	m, ok = table.Resolve("/a/b/x")
	require.True(t, ok)
	assert.Equal(t, "/:c/:d/x", m.Entry.Path)
}

func TestFirstListedWinsOnTie(t *testing.T) {
	t.Parallel()

	table := MustNewTable(
		Entry{Path: "/x/:a", Target: view(components.Texts)},
		Entry{Path: "/x/:b", Target: view(components.Topics)},
	)

	m, ok := table.Resolve("/x/1")
	require.True(t, ok)
	assert.Equal(t, "/x/:a", m.Entry.Path)
	assert.Equal(t, map[string]string{"a": "1"}, m.Params)
}

func TestNewTableInvariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []Entry
		want    error
	}{
		{
			name: "duplicate pattern",
			entries: []Entry{
				{Path: "/texts", Target: view(components.Texts)},
				{Path: "/texts", Target: view(components.Topics)},
			},
			want: ErrDuplicatePattern,
		},
		{
			name: "duplicate pattern in other case",
			entries: []Entry{
				{Path: "/examQuestions/:examId", Target: view(components.TableExam)},
				{Path: "/examquestions/:examId", Target: view(components.EditExam)},
			},
			want: ErrDuplicatePattern,
		},
		{
			name:    "duplicate param",
			entries: []Entry{{Path: "/a/:id/:id", Target: view(components.Texts)}},
			want:    ErrDuplicateParam,
		},
		{
			name: "duplicate name",
			entries: []Entry{
				{Path: "/", Name: "home", Target: view(components.HomeView)},
				{Path: "/home", Name: "home", Target: view(components.HomeView)},
			},
			want: ErrDuplicateName,
		},
		{
			name:    "no leading slash",
			entries: []Entry{{Path: "texts", Target: view(components.Texts)}},
			want:    ErrInvalidPattern,
		},
		{
			name:    "empty segment",
			entries: []Entry{{Path: "/texts//x", Target: view(components.Texts)}},
			want:    ErrInvalidPattern,
		},
		{
			name:    "unnamed param",
			entries: []Entry{{Path: "/texts/:", Target: view(components.Texts)}},
			want:    ErrInvalidPattern,
		},
		{
			name:    "no target",
			entries: []Entry{{Path: "/texts"}},
			want:    ErrInvalidPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewTable(tt.entries...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err)
		})
	}
}

func TestEntryBuild(t *testing.T) {
	t.Parallel()

	table := Default("")

	m, ok := table.Resolve("/examQuestion/1")
	require.True(t, ok)

	path, err := m.Entry.Build(map[string]string{"examQuestionId": "a/b"})
	require.NoError(t, err)
	assert.Equal(t, "/examQuestion/a%2Fb", path)

	_, err = m.Entry.Build(nil)
	assert.True(t, errors.Is(err, ErrMissingParam))

	root, _ := table.Lookup(RouteRoot)
	path, err = root.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, "/", path)

	assert.Equal(t, []string{"examQuestionId"}, m.Entry.Params())
}

func TestEntriesIsACopy(t *testing.T) {
	t.Parallel()

	table := Default("")

	entries := table.Entries()
	entries[0].Path = "/changed"

	assert.Equal(t, "/", table.Entries()[0].Path)
}
