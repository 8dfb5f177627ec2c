// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package session identifies browser sessions.

A session is a random UUID carried in an encrypted v4.local paseto cookie. The
router keeps the current route of every session, so a browser that navigates
twice to the same page sees the same view instance.
*/
package session

import (
	"net/http"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/erikvoorbraak/knvvl-exam/server/request_context"
	"github.com/erikvoorbraak/knvvl-exam/server/utils"
)

const (
	subject  = "examadmin session"
	claimSID = "sid"
)

// implicit is bound into every token so tokens of other applications sharing the key do not parse.
var implicit = []byte("examadmin")

// Manager issues and reads session cookies.
type Manager struct {
	key        paseto.V4SymmetricKey
	cookieName string
	ttl        time.Duration
	parser     paseto.Parser
	logger     zerolog.Logger
}

// NewManager returns a Manager encrypting cookies with key.
func NewManager(key paseto.V4SymmetricKey, cookieName string, ttl time.Duration) *Manager {
	return &Manager{
		key:        key,
		cookieName: cookieName,
		ttl:        ttl,
		parser: paseto.MakeParser([]paseto.Rule{
			paseto.NotExpired(),
			paseto.Subject(subject),
		}),
		logger: log.With().Str("sys", "session").Logger(),
	}
}

// Evaluate is the session middleware. It stores the session id in the request
// context and issues a new cookie when the request carries none or an invalid one.
//
// The cookie is refreshed on every request, so the TTL counts from the last visit.
func (m *Manager) Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	sid, ok := m.read(r)
	if !ok {
		sid = uuid.NewString()
	}

	http.SetCookie(w, m.cookie(r, sid))

	request_context.FromRequest(r).SessionID = sid

	next.ServeHTTP(w, r)
}

// Token returns an encrypted token carrying sid.
func (m *Manager) Token(sid string) string {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(m.ttl))
	token.SetSubject(subject)
	token.SetString(claimSID, sid)

	return token.V4Encrypt(m.key, implicit)
}

// Parse returns the session id carried by an encrypted token.
func (m *Manager) Parse(encrypted string) (string, error) {
	token, err := m.parser.ParseV4Local(m.key, encrypted, implicit)
	if err != nil {
		return "", err
	}

	sid, err := token.GetString(claimSID)
	if err != nil {
		return "", err
	}

	if _, err := uuid.Parse(sid); err != nil {
		return "", err
	}

	return sid, nil
}

func (m *Manager) read(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}

	sid, err := m.Parse(c.Value)
	if err != nil {
		m.logger.Debug().Err(err).Msg("Discarding invalid session cookie")

		return "", false
	}

	return sid, true
}

func (m *Manager) cookie(r *http.Request, sid string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    m.Token(sid),
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		Secure:   utils.IsConnectionSecure(r),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
