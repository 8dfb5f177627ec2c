// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package app

import (
	"context"
	"io/fs"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/erikvoorbraak/knvvl-exam/assets/views"
	"github.com/erikvoorbraak/knvvl-exam/core/components"
	"github.com/erikvoorbraak/knvvl-exam/core/navigation"
	"github.com/erikvoorbraak/knvvl-exam/core/routetable"
	"github.com/erikvoorbraak/knvvl-exam/core/store"
)

// bootstrapped is set by the first call to Bootstrap.
var bootstrapped atomic.Bool

// Config holds everything Bootstrap needs.
type Config struct {
	// Assets holds the root document and the view manifests.
	Assets        fs.FS
	RootDocument  string
	MountSelector string
	BaseURL       string
	LoginURL      string
	Info          Info

	LoadRetries int
	LoadBackoff time.Duration
	LoadTimeout time.Duration

	MaxSessions       int
	FragmentCacheSize int
}

// Bootstrap builds the store, the route table, the component registry and
// the router, registers the data table widget, mounts the app and loads the
// eagerly bound views.
//
// It runs once per process. Later calls return ErrAlreadyBootstrapped.
func Bootstrap(ctx context.Context, cfg Config) (*App, error) {
	if !bootstrapped.CompareAndSwap(false, true) {
		return nil, ErrAlreadyBootstrapped
	}

	start := time.Now()

	if cfg.Assets == nil {
		return nil, errors.Wrap(ErrNotReady, "no assets filesystem")
	}

	if cfg.RootDocument == "" {
		cfg.RootDocument = DefaultRootDocument
	}

	if cfg.LoginURL == "" {
		cfg.LoginURL = routetable.DefaultLoginURL
	}

	st := store.New()

	registry := components.NewManifestRegistry(cfg.Assets,
		components.WithRetry(cfg.LoadRetries, cfg.LoadBackoff),
		components.WithLoadTimeout(cfg.LoadTimeout),
	)

	table := routetable.Default(cfg.LoginURL)

	rt, err := navigation.New(table, registry,
		navigation.WithBase(cfg.BaseURL),
		navigation.WithSessionCapacity(cfg.MaxSessions),
		navigation.WithStore(st),
	)
	if err != nil {
		return nil, err
	}

	root, err := ReadRootDocument(cfg.Assets, cfg.RootDocument)
	if err != nil {
		return nil, err
	}

	a, err := New(root, st, rt, WithInfo(cfg.Info), WithFragmentCache(cfg.FragmentCacheSize))
	if err != nil {
		return nil, err
	}

	if err := a.Component(views.DataTableName, views.DataTable); err != nil {
		return nil, err
	}

	if err := a.Mount(cfg.MountSelector); err != nil {
		return nil, err
	}

	var eager []components.ViewID

	for _, v := range table.Views() {
		if v.Eager {
			eager = append(eager, v.View)
		}
	}

	if err := registry.Preload(ctx, eager...); err != nil {
		return nil, errors.Wrap(err, "preload eager views")
	}

	log.Info().
		Str("sys", "app").
		Int("routes", table.Len()).
		Int("views", len(table.Views())).
		Interface("eager", eager).
		Dur("dur", time.Since(start)).
		Msg("Bootstrapped app")

	return a, nil
}
