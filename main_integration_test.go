// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

//go:build integration

/*
To run these tests, specify `-tags=integration` when running `go test`.
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// Server configuration constants.
	host      = "127.0.0.1:8282"
	authority = "http://127.0.0.1:8282"

	// Polling constants.
	retryCount  = 10
	dialTimeout = 250 * time.Millisecond
)

// httpTestCase defines a test case.
type httpTestCase struct {
	URL                string
	Method             string
	ExpectedStatusCode int
	Fragment           bool
}

// setDefault sets the default values for the test case.
func (c *httpTestCase) setDefault() {
	if c.ExpectedStatusCode == 0 {
		c.ExpectedStatusCode = http.StatusOK
	}

	if c.Method == "" {
		c.Method = http.MethodGet
	}
}

// TestMain is used for global setup and teardown.
//
// It starts the server without a backend and waits for it to be available before running tests.
func TestMain(m *testing.M) {
	os.Setenv("EXAMADMIN_HOST", "127.0.0.1")
	os.Setenv("EXAMADMIN_PORT", "8282")
	os.Setenv("EXAMADMIN_BACKEND_URL", "")

	go func() {
		if err := run(""); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if !waitForServerReady() {
		log.Fatalf("Server did not start in time")
	}

	os.Exit(m.Run())
}

// waitForServerReady polls the server until it's available or the retries are exhausted.
func waitForServerReady() bool {
	for range retryCount {
		conn, err := net.DialTimeout("tcp", host, dialTimeout)
		if err == nil {
			_ = conn.Close()

			return true // Server is up.
		}

		time.Sleep(dialTimeout)
	}

	return false
}

// TestAllRoutes requests every route of the default table.
func TestAllRoutes(t *testing.T) {
	t.Parallel()

	testCases := []httpTestCase{
		{URL: "/"},
		{URL: "/home"},
		{URL: "/texts"},
		{URL: "/texts/exam.intro"},
		{URL: "/questions"},
		{URL: "/newquestion"},
		{URL: "/questions/12"},
		{URL: "/translates/12"},
		{URL: "/topics"},
		{URL: "/requirements"},
		{URL: "/newrequirement"},
		{URL: "/requirements/3"},
		{URL: "/exams"},
		{URL: "/examQuestions/5"},
		{URL: "/examQuestion/9"},
		{URL: "/exam/5"},
		{URL: "/newexam"},
		{URL: "/pictures"},
		{URL: "/newpicture"},
		{URL: "/pictures/4"},
		{URL: "/users"},
		{URL: "/newuser"},
		{URL: "/myaccount"},
		{URL: "/questions/12", Fragment: true},

		// The login entry points at itself without a backend.
		{URL: "/login", ExpectedStatusCode: http.StatusNotFound},
		{URL: "/no/such/route", ExpectedStatusCode: http.StatusNotFound},
		{URL: "/texts", Method: http.MethodPost, ExpectedStatusCode: http.StatusMethodNotAllowed},

		{URL: "/css/main.css"},
		{URL: "/js/nav.js"},
		{URL: "/favicon.ico"},
		{URL: "/metrics"},
	}

	for _, tc := range testCases {
		tc.setDefault()

		t.Run(fmt.Sprintf("%s %s fragment=%t", tc.Method, tc.URL, tc.Fragment), func(t *testing.T) {
			t.Parallel()

			req, err := http.NewRequestWithContext(context.TODO(), tc.Method, authority+tc.URL, nil)
			require.NoError(t, err)

			if tc.Fragment {
				req.Header.Set("HX-Request", "true")
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)

			defer resp.Body.Close()

			assert.Equal(t, tc.ExpectedStatusCode, resp.StatusCode)
		})
	}
}
