// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package request_context

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithRequestContext(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/texts", nil)
	r.Header.Set(HeaderHTMXRequest, "true")

	rc := FromContext(WithRequestContext(r.Context(), r))

	assert.NotEmpty(t, rc.RequestID)
	assert.Equal(t, http.StatusOK, rc.StatusCode)
	assert.True(t, rc.IsFragment)
	assert.Empty(t, rc.SessionID)
}

func TestFromContextWithoutValue(t *testing.T) {
	t.Parallel()

	rc := FromContext(context.Background())

	assert.NotNil(t, rc)
	assert.Empty(t, rc.RequestID)
	assert.False(t, rc.IsFragment)
}
