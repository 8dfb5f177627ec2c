// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erikvoorbraak/knvvl-exam/server/middleware"
	"github.com/erikvoorbraak/knvvl-exam/server/request_context"
)

const cookieName = "examadmin_session"

func serve(t *testing.T, m *Manager, cookies ...*http.Cookie) (sid string, set *http.Cookie) {
	t.Helper()

	handler := middleware.Wrap(m.Evaluate, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		sid = request_context.FromRequest(r).SessionID
	}))

	req := httptest.NewRequest(http.MethodGet, "/texts", nil)
	req = req.WithContext(request_context.WithRequestContext(req.Context(), req))

	for _, c := range cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		if c.Name == cookieName {
			set = c
		}
	}

	require.NotNil(t, set, "session cookie not set")

	return sid, set
}

func TestNewSessionIsIssued(t *testing.T) {
	t.Parallel()

	m := NewManager(paseto.NewV4SymmetricKey(), cookieName, time.Hour)

	sid, c := serve(t, m)

	_, err := uuid.Parse(sid)
	require.NoError(t, err)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 3600, c.MaxAge)

	parsed, err := m.Parse(c.Value)
	require.NoError(t, err)
	assert.Equal(t, sid, parsed)
}

func TestSessionIsKept(t *testing.T) {
	t.Parallel()

	m := NewManager(paseto.NewV4SymmetricKey(), cookieName, time.Hour)

	first, c := serve(t, m)
	second, _ := serve(t, m, c)

	assert.Equal(t, first, second)
}

func TestForeignCookieIsReplaced(t *testing.T) {
	t.Parallel()

	m := NewManager(paseto.NewV4SymmetricKey(), cookieName, time.Hour)
	other := NewManager(paseto.NewV4SymmetricKey(), cookieName, time.Hour)

	_, foreign := serve(t, other)
	sid, _ := serve(t, m, foreign)

	parsed, err := other.Parse(foreign.Value)
	require.NoError(t, err)
	assert.NotEqual(t, parsed, sid)

	_, err = m.Parse("garbage")
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	t.Parallel()

	m := NewManager(paseto.NewV4SymmetricKey(), cookieName, -time.Minute)

	_, err := m.Parse(m.Token(uuid.NewString()))
	assert.Error(t, err)
}
