// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package components

import (
	"context"
	"io/fs"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/erikvoorbraak/knvvl-exam/core/audit"
)

// Registry errors.
var (
	ErrUnknownView   = errors.New("unknown view")
	ErrDuplicateView = errors.New("view already registered")
)

const (
	defaultLoadAttempts = 3
	defaultLoadBackoff  = 100 * time.Millisecond
	defaultLoadTimeout  = 10 * time.Second
)

var tracer = otel.Tracer("github.com/erikvoorbraak/knvvl-exam/core/components")

// Registry maps views to their loaders and caches every successfully loaded
// component for the lifetime of the process.
//
// Concurrent first requests for the same view share a single load. A failed
// load is not cached, so the next request tries again.
type Registry struct {
	mu      sync.RWMutex
	loaders map[ViewID]Loader
	loaded  map[ViewID]*Component

	group singleflight.Group

	attempts int
	backoff  time.Duration
	timeout  time.Duration

	logger zerolog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRetry sets how many attempts a single load makes and the initial backoff
// between them. The backoff doubles after each failed attempt.
func WithRetry(attempts int, backoff time.Duration) RegistryOption {
	return func(r *Registry) {
		if attempts > 0 {
			r.attempts = attempts
		}

		if backoff >= 0 {
			r.backoff = backoff
		}
	}
}

// WithLoadTimeout bounds the duration of one load, retries included.
func WithLoadTimeout(timeout time.Duration) RegistryOption {
	return func(r *Registry) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		loaders:  make(map[ViewID]Loader),
		loaded:   make(map[ViewID]*Component),
		attempts: defaultLoadAttempts,
		backoff:  defaultLoadBackoff,
		timeout:  defaultLoadTimeout,
		logger:   log.With().Str("sys", "views").Logger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NewManifestRegistry returns a Registry with a manifest loader for every known view.
func NewManifestRegistry(fsys fs.FS, opts ...RegistryOption) *Registry {
	r := NewRegistry(opts...)

	for _, id := range All() {
		// All() holds no duplicates, so Register cannot fail here.
		_ = r.Register(id, ManifestLoader(fsys, id))
	}

	return r
}

// Register adds the loader for id.
func (r *Registry) Register(id ViewID, loader Loader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.loaders[id]; ok {
		return errors.Wrapf(ErrDuplicateView, "%s", id)
	}

	r.loaders[id] = loader

	return nil
}

// Loaded reports whether the component for id has been loaded.
func (r *Registry) Loaded(id ViewID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.loaded[id]

	return ok
}

// LoadedViews returns the loaded views, sorted by name.
func (r *Registry) LoadedViews() []ViewID {
	r.mu.RLock()
	ids := make([]ViewID, 0, len(r.loaded))

	for id := range r.loaded {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Get returns the component for id, loading it on first use.
//
// If ctx ends while the load is still running, Get returns ctx.Err(). The load
// itself continues and its result is cached for later callers.
func (r *Registry) Get(ctx context.Context, id ViewID) (*Component, error) {
	r.mu.RLock()
	c, ok := r.loaded[id]
	_, known := r.loaders[id]
	r.mu.RUnlock()

	if ok {
		return c, nil
	}

	if !known {
		return nil, errors.Wrapf(ErrUnknownView, "%s", id)
	}

	ch := r.group.DoChan(string(id), func() (any, error) {
		return r.load(id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*Component), nil
	}
}

// Preload loads the given views concurrently and returns the first error.
func (r *Registry) Preload(ctx context.Context, ids ...ViewID) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, id := range ids {
		g.Go(func() error {
			_, err := r.Get(gctx, id)

			return err
		})
	}

	return g.Wait()
}

// load runs the loader for id detached from any caller's context.
func (r *Registry) load(id ViewID) (*Component, error) {
	r.mu.RLock()
	if c, ok := r.loaded[id]; ok {
		r.mu.RUnlock()

		return c, nil
	}

	loader := r.loaders[id]
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "components.load")
	span.SetAttributes(attribute.String("view", string(id)))

	defer span.End()

	start := time.Now()

	c, err := r.loadWithRetry(ctx, id, loader)

	audit.ObserveViewLoad(string(id), time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")

		r.logger.Error().
			Err(err).
			Str("view", string(id)).
			Msg("Failed to load view")

		return nil, err
	}

	r.mu.Lock()
	r.loaded[id] = c
	r.mu.Unlock()

	r.logger.Debug().
		Str("view", string(id)).
		Dur("dur", time.Since(start)).
		Msg("Loaded view")

	return c, nil
}

func (r *Registry) loadWithRetry(ctx context.Context, id ViewID, loader Loader) (*Component, error) {
	backoff := r.backoff

	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		c, err := loader(ctx)
		if err == nil {
			if c == nil {
				return nil, errors.Newf("loader for %s returned no component", id)
			}

			return c, nil
		}

		lastErr = err

		if permanent(err) || attempt == r.attempts {
			break
		}

		r.logger.Warn().
			Err(err).
			Str("view", string(id)).
			Int("attempt", attempt).
			Msg("Retrying view load")

		select {
		case <-ctx.Done():
			return nil, errors.CombineErrors(lastErr, ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
	}

	return nil, lastErr
}

// permanent reports whether retrying err cannot help.
func permanent(err error) bool {
	return errors.Is(err, ErrInvalidManifest) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
