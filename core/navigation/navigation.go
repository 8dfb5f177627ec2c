// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package navigation is the router of the admin front end.

Every request for an app route is a navigation. The router resolves it against
the route table, loads the view through the component registry and keeps the
resulting view instance as the current route of the browser session. A second
navigation to the same entry with the same parameters returns the existing
instance.
*/
package navigation

import (
	"context"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/erikvoorbraak/knvvl-exam/core/audit"
	"github.com/erikvoorbraak/knvvl-exam/core/components"
	"github.com/erikvoorbraak/knvvl-exam/core/lrucache"
	"github.com/erikvoorbraak/knvvl-exam/core/routetable"
	"github.com/erikvoorbraak/knvvl-exam/core/store"
)

// ErrNotFound is returned for paths no route matches.
var ErrNotFound = errors.New("no route matches path")

// StoreID is the id of the store container the router keeps its state in.
const StoreID = "router"

const defaultSessionCapacity = 4096

var tracer = otel.Tracer("github.com/erikvoorbraak/knvvl-exam/core/navigation")

// Kind is the kind of a navigation outcome.
type Kind int

const (
	// Rendered means a view instance is to be shown.
	Rendered Kind = iota
	// Redirected means the browser is to leave the front end for Outcome.URL.
	Redirected
)

func (k Kind) String() string {
	if k == Redirected {
		return "redirect"
	}

	return "rendered"
}

// Instance is a view instantiated for one route match.
type Instance struct {
	ID        uuid.UUID
	Entry     *routetable.Entry
	View      components.ViewID
	Component *components.Component
	Params    map[string]string
	Mode      components.Branch
	CreatedAt time.Time
}

// Source returns the data source of the instance with its parameters filled in.
func (i *Instance) Source() string {
	return components.Expand(i.Mode.Source, i.Params)
}

// Outcome is the result of a successful navigation.
type Outcome struct {
	Kind Kind
	// Path is the navigated path without the base prefix.
	Path  string
	Match routetable.Match

	// Set when Kind is Rendered.
	Instance *Instance
	Reused   bool

	// Set when Kind is Redirected.
	URL string
}

type session struct {
	mu      sync.Mutex
	current *Instance

	// evicted is set once the session leaves the session cache.
	evicted bool
}

// Router resolves navigations for many sessions. It is safe for concurrent use.
type Router struct {
	table    *routetable.Table
	registry *components.Registry
	base     string

	capacity int
	sessions *lrucache.Cache
	store    *store.Store
	state    *store.State

	logger zerolog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithBase sets the URL prefix all routes live under, e.g. "/admin".
func WithBase(base string) Option {
	return func(r *Router) {
		r.base = strings.TrimRight(base, "/")
	}
}

// WithSessionCapacity bounds the number of sessions whose current route is kept.
// The least recently active session is forgotten first.
func WithSessionCapacity(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithStore records the current path of every session in the router container of st.
func WithStore(st *store.Store) Option {
	return func(r *Router) {
		r.store = st
	}
}

// New returns a router over table that loads views from registry.
func New(table *routetable.Table, registry *components.Registry, opts ...Option) (*Router, error) {
	if table == nil || registry == nil {
		return nil, errors.New("navigation: table and registry are required")
	}

	r := &Router{
		table:    table,
		registry: registry,
		capacity: defaultSessionCapacity,
		logger:   log.With().Str("sys", "router").Logger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.store != nil {
		r.state = r.store.Define(StoreID, nil)
	}

	sessions, err := lrucache.New(r.capacity, lrucache.WithEvictCallback(r.forget))
	if err != nil {
		return nil, errors.Wrap(err, "session cache")
	}

	r.sessions = sessions

	return r, nil
}

// Table returns the route table.
func (r *Router) Table() *routetable.Table {
	return r.table
}

// Registry returns the component registry.
func (r *Router) Registry() *components.Registry {
	return r.registry
}

// Base returns the URL prefix of all routes, without a trailing slash.
func (r *Router) Base() string {
	return r.base
}

// Href returns the URL of path under the base.
func (r *Router) Href(path string) string {
	if r.base == "" {
		return path
	}

	if path == "/" {
		return r.base + "/"
	}

	return r.base + path
}

// Navigate resolves rawPath for the session and returns what to show.
//
// Unmatched paths yield ErrNotFound. A redirect entry leaves the session's
// current route untouched. For a view entry, the view is loaded on first use
// and the instance becomes the session's current route.
func (r *Router) Navigate(ctx context.Context, sessionID, rawPath string) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "navigation.navigate")
	span.SetAttributes(attribute.String("path", rawPath))

	defer span.End()

	out, err := r.navigate(ctx, sessionID, rawPath)

	switch {
	case err == nil && out.Kind == Redirected:
		audit.CountNavigation(audit.OutcomeRedirect)
	case err == nil && out.Reused:
		audit.CountNavigation(audit.OutcomeReused)
	case err == nil:
		audit.CountNavigation(audit.OutcomeRendered)
	case errors.Is(err, ErrNotFound):
		audit.CountNavigation(audit.OutcomeNotFound)
	default:
		audit.CountNavigation(audit.OutcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
	}

	return out, err
}

func (r *Router) navigate(ctx context.Context, sessionID, rawPath string) (Outcome, error) {
	path, ok := r.stripBase(rawPath)
	if !ok {
		return Outcome{}, errors.Wrapf(ErrNotFound, "%s is outside %s", rawPath, r.base)
	}

	m, ok := r.table.Resolve(path)
	if !ok {
		return Outcome{}, errors.Wrapf(ErrNotFound, "%s", path)
	}

	switch target := m.Entry.Target.(type) {
	case routetable.ExternalRedirect:
		r.logger.Debug().
			Str("path", path).
			Str("url", target.URL).
			Msg("Navigation leaves the app")

		return Outcome{Kind: Redirected, Path: path, Match: m, URL: target.URL}, nil

	case routetable.InternalView:
		return r.show(ctx, r.session(sessionID), sessionID, path, m, target)

	default:
		return Outcome{}, errors.AssertionFailedf("unhandled route target %T", target)
	}
}

func (r *Router) show(
	ctx context.Context,
	s *session,
	sessionID, path string,
	m routetable.Match,
	target routetable.InternalView,
) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur := s.current; cur != nil && cur.Entry == m.Entry && maps.Equal(cur.Params, m.Params) {
		return Outcome{Kind: Rendered, Path: path, Match: m, Instance: cur, Reused: true}, nil
	}

	c, err := r.registry.Get(ctx, target.View)
	if err != nil {
		return Outcome{}, errors.Wrapf(err, "load %s for %s", target.View, path)
	}

	inst := &Instance{
		ID:        uuid.New(),
		Entry:     m.Entry,
		View:      target.View,
		Component: c,
		Params:    m.Params,
		Mode:      c.Mode(m.Params),
		CreatedAt: time.Now(),
	}

	s.current = inst

	if r.state != nil && !s.evicted {
		r.state.Patch(map[string]any{sessionID: path})
	}

	r.logger.Debug().
		Str("path", path).
		Str("view", string(target.View)).
		Str("mode", inst.Mode.Mode).
		Msg("New view instance")

	return Outcome{Kind: Rendered, Path: path, Match: m, Instance: inst}, nil
}

// Current returns the session's current view instance.
func (r *Router) Current(sessionID string) (*Instance, bool) {
	v, ok := r.sessions.Peek(sessionID)
	if !ok {
		return nil, false
	}

	s := v.(*session)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current, s.current != nil
}

// Sessions returns the number of sessions with router state.
func (r *Router) Sessions() int {
	return r.sessions.Len()
}

func (r *Router) session(id string) *session {
	v, _ := r.sessions.GetOrAdd(id, func() any { return &session{} })

	return v.(*session)
}

func (r *Router) forget(sessionID string, v any) {
	if s, ok := v.(*session); ok {
		s.mu.Lock()
		s.evicted = true
		s.mu.Unlock()
	}

	if r.state != nil {
		r.state.Delete(sessionID)
	}
}

func (r *Router) stripBase(path string) (string, bool) {
	if r.base == "" {
		return path, true
	}

	rest, ok := strings.CutPrefix(path, r.base)
	if !ok {
		return "", false
	}

	if rest == "" {
		return "/", true
	}

	if !strings.HasPrefix(rest, "/") {
		return "", false
	}

	return rest, true
}
