// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package set_request_context

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erikvoorbraak/knvvl-exam/server/middleware"
	"github.com/erikvoorbraak/knvvl-exam/server/request_context"
)

func TestWithRequestContext_AttachesContext(t *testing.T) {
	t.Parallel()

	var rc *request_context.RequestContext

	handler := middleware.Wrap(WithRequestContext, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc = request_context.FromRequest(r)

		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/texts", nil))

	require.NotNil(t, rc)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rc.RequestID)
	assert.Equal(t, http.StatusOK, rc.StatusCode)
	assert.NoError(t, rc.RequestError)
	assert.False(t, rc.IsFragment)
}

func TestWithRequestContext_GeneratesUniqueRequestIDs(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)

	handler := middleware.Wrap(WithRequestContext, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen[request_context.FromRequest(r).RequestID] = true
	}))

	for range 3 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/texts", nil))
	}

	assert.Len(t, seen, 3)
}

func TestWithRequestContext_DetectsFragmentRequests(t *testing.T) {
	t.Parallel()

	var isFragment bool

	handler := middleware.Wrap(WithRequestContext, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		isFragment = request_context.FromRequest(r).IsFragment
	}))

	req := httptest.NewRequest(http.MethodGet, "/questions/42", nil)
	req.Header.Set(request_context.HeaderHTMXRequest, "true")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, isFragment)
}

func TestWithRequestContext_PreservesRequestData(t *testing.T) {
	t.Parallel()

	var method, path string

	handler := middleware.Wrap(WithRequestContext, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/texts", nil))

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/texts", path)
}
