// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package components describes the view components of the admin front end and
loads them on demand.

A component is described by a YAML manifest under assets/views/. Only the home
view is loaded at startup; every other manifest is read and parsed the first
time a route that uses it is visited, then kept for the lifetime of the process.
*/
package components

import (
	"net/url"
	"slices"
	"strings"
)

// ViewID identifies a view component. Several routes may share one ViewID.
type ViewID string

// Known views.
const (
	HomeView         ViewID = "HomeView"
	Texts            ViewID = "Texts"
	EditText         ViewID = "EditText"
	Questions        ViewID = "Questions"
	EditQuestion     ViewID = "EditQuestion"
	Topics           ViewID = "Topics"
	Requirements     ViewID = "Requirements"
	EditRequirement  ViewID = "EditRequirement"
	Exams            ViewID = "Exams"
	TableExam        ViewID = "TableExam"
	EditExamQuestion ViewID = "EditExamQuestion"
	EditExam         ViewID = "EditExam"
	NewExam          ViewID = "NewExam"
	Pictures         ViewID = "Pictures"
	UploadPicture    ViewID = "UploadPicture"
	Users            ViewID = "Users"
	NewUser          ViewID = "NewUser"
	MyAccount        ViewID = "MyAccount"
)

// All returns every known view in a stable order.
func All() []ViewID {
	return []ViewID{
		HomeView,
		Texts, EditText,
		Questions, EditQuestion,
		Topics,
		Requirements, EditRequirement,
		Exams, TableExam, EditExamQuestion, EditExam, NewExam,
		Pictures, UploadPicture,
		Users, NewUser, MyAccount,
	}
}

// Known reports whether id is one of the views returned by All.
func Known(id ViewID) bool {
	return slices.Contains(All(), id)
}

// Kind selects how a component is rendered.
type Kind string

const (
	KindHome    Kind = "home"
	KindList    Kind = "list"
	KindEdit    Kind = "edit"
	KindForm    Kind = "form"
	KindAccount Kind = "account"
)

// Column is one column of the data table shown by list views.
type Column struct {
	Text     string `yaml:"text"`
	Value    string `yaml:"value"`
	Sortable bool   `yaml:"sortable"`
	Width    int    `yaml:"width"`
}

// Field is one input of an edit or form view.
type Field struct {
	Name     string   `yaml:"name"`
	Label    string   `yaml:"label"`
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required"`
	Options  []string `yaml:"options"`
}

// Action is a link rendered above the content of a view.
type Action struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// Branch is one way a shared view can be instantiated.
//
// A view that serves several routes (EditQuestion serves /newquestion,
// /questions/:questionId and /translates/:translatesId) picks its branch from
// the route parameters it receives. The router does not disambiguate.
type Branch struct {
	// Param selects this branch when present in the route parameters.
	// The branch with an empty Param is the fallback.
	Param  string `yaml:"param"`
	Mode   string `yaml:"mode"`
	Title  string `yaml:"title"`
	Source string `yaml:"source"`
}

// Component is a loaded view descriptor.
type Component struct {
	ID          ViewID   `yaml:"id"`
	Title       string   `yaml:"title"`
	Kind        Kind     `yaml:"kind"`
	Source      string   `yaml:"source"`
	Columns     []Column `yaml:"columns"`
	Fields      []Field  `yaml:"fields"`
	Actions     []Action `yaml:"actions"`
	Branches    []Branch `yaml:"branches"`
	Search      bool     `yaml:"search"`
	RowsPerPage int      `yaml:"rowsPerPage"`
	Intro       string   `yaml:"intro"`

	// IntroHTML is Intro rendered from markdown and sanitised.
	IntroHTML string `yaml:"-"`
}

// Mode returns the branch a view takes for the given route parameters.
//
// The first branch whose Param is present wins. Without a match the fallback
// branch (empty Param) is returned, and without a fallback a branch in mode
// "view" carrying the component's own title and source.
func (c *Component) Mode(params map[string]string) Branch {
	var fallback *Branch

	for i := range c.Branches {
		b := &c.Branches[i]

		if b.Param == "" {
			if fallback == nil {
				fallback = b
			}

			continue
		}

		if _, ok := params[b.Param]; ok {
			return c.complete(*b)
		}
	}

	if fallback != nil {
		return c.complete(*fallback)
	}

	return c.complete(Branch{Mode: "view"})
}

func (c *Component) complete(b Branch) Branch {
	if b.Title == "" {
		b.Title = c.Title
	}

	if b.Source == "" {
		b.Source = c.Source
	}

	return b
}

// Expand replaces {name} placeholders in source with the escaped values of params.
// Placeholders without a value are left untouched.
func Expand(source string, params map[string]string) string {
	if !strings.Contains(source, "{") {
		return source
	}

	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", url.PathEscape(value))
	}

	return strings.NewReplacer(pairs...).Replace(source)
}
