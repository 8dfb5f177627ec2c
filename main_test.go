// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erikvoorbraak/knvvl-exam/core/routetable"
)

func TestPrintRoutes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, printRoutes(&buf, routetable.Default("https://auth.example.org/login"), "/admin"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, routetable.Default("").Len()+1)

	assert.Equal(t, []string{"PATH", "NAME", "TARGET", "PARAMS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"/admin/", "root", "HomeView", "(eager)", "-"}, strings.Fields(lines[1]))
	assert.Contains(t, buf.String(), "redirect https://auth.example.org/login")
	assert.Equal(t, []string{"/admin/examQuestions/:examId", "-", "TableExam", "examId"}, strings.Fields(lines[15]))
}

func TestRootCommand(t *testing.T) {
	t.Parallel()

	cmd := newRootCommand()

	names := make([]string, 0, 2)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	assert.Subset(t, names, []string{"serve", "routes"})
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}
