// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"github.com/erikvoorbraak/knvvl-exam/config"
	"github.com/erikvoorbraak/knvvl-exam/server/middleware"
	"github.com/erikvoorbraak/knvvl-exam/server/middleware/limiter"
	"github.com/erikvoorbraak/knvvl-exam/server/middleware/set_request_context"
	"github.com/erikvoorbraak/knvvl-exam/server/routes"
	"github.com/erikvoorbraak/knvvl-exam/server/session"
)

// RegisterMiddleware installs the middleware chain. sessions may be nil to
// serve without session cookies.
func (router *Router) RegisterMiddleware(sessions *session.Manager) error {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.NormalizeURL)                // collapse slashes, drop trailing slashes
	router.Use(set_request_context.WithRequestContext) // needed for everything else
	router.Use(middleware.SetResponseHeaders)          // all pages need this
	router.Use(middleware.Compress)

	if sessions != nil {
		router.Use(sessions.Evaluate)
	}

	if config.Global.Limiter.Enabled {
		cfg := config.Global.Limiter

		l, err := limiter.New(limiter.Config{
			Rate:       cfg.Rate,
			Burst:      cfg.Burst,
			PassIPs:    cfg.PassIPs,
			BlockIPs:   cfg.BlockIPs,
			IPv4Prefix: cfg.IPv4Prefix,
			IPv6Prefix: cfg.IPv6Prefix,
			MaxClients: cfg.MaxClients,
		}, routes.BlockPage)
		if err != nil {
			return err
		}

		router.Use(l.Evaluate)
	}

	return nil
}
