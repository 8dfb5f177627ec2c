// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"io/fs"
	"net/http"
	"net/http/pprof"
	"net/url"
	"runtime/trace"
	"time"

	"github.com/erikvoorbraak/knvvl-exam/config"
	"github.com/erikvoorbraak/knvvl-exam/core/app"
	"github.com/erikvoorbraak/knvvl-exam/core/audit"
	"github.com/erikvoorbraak/knvvl-exam/server/middleware"
	"github.com/erikvoorbraak/knvvl-exam/server/routes"
)

// Routes holds what DefineRoutes wires into the router.
type Routes struct {
	App *app.App
	// Static serves /css/, /js/ and /img/ and holds img/favicon.svg.
	Static fs.FS
	// Backend is forwarded the backend prefixes when set.
	Backend        *url.URL
	BackendTimeout time.Duration
}

// DefineRoutes registers the static files, the backend forwarding, the debug
// routes and the catch-all app route.
func (router *Router) DefineRoutes(rs Routes) {
	fileServerHandler := fileServer(rs.Static)

	// Patterns ending in "/" are prefix matches.
	router.Handle("GET /img/", fileServerHandler)
	router.Handle("GET /css/", fileServerHandler)
	router.Handle("GET /js/", fileServerHandler)
	router.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/img/favicon.svg"

		fileServerHandler.ServeHTTP(w, r2)
	})

	router.Handle("GET /metrics", audit.MetricsHandler())

	if rs.Backend != nil {
		backend := routes.Backend(rs.Backend, rs.BackendTimeout)

		for _, prefix := range routes.BackendPrefixes {
			router.Handle(prefix, backend)
		}
	}

	if config.Global.Development.InDevelopment {
		registerDebugRoutes(router, rs.App)
	}

	// Everything else is an app route. No method in the pattern, so that the
	// backend prefixes stay more specific.
	router.HandleFunc("/", middleware.CatchError(routes.Navigate(rs.App)))
}

// Serve static files from embedded assets.
func fileServer(static fs.FS) http.HandlerFunc {
	fileServer := http.FileServer(http.FS(static))

	return func(w http.ResponseWriter, r *http.Request) {
		// Using a strong ETag for static files embedded via go:embed
		// ref: https://www.rfc-editor.org/rfc/rfc9110#weak.and.strong.validators
		//
		// Since go:embed requires rebuilding when files change, we use a per-instance
		// cache ID to ensure browsers fetch fresh content after any deployment.
		w.Header().Set("ETag", config.Global.Instance.FileServerCacheID)
		fileServer.ServeHTTP(w, r)
	}
}

var flightRecorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: time.Minute})

func registerDebugRoutes(router *Router, a *app.App) {
	if !flightRecorder.Enabled() {
		if err := flightRecorder.Start(); err != nil {
			panic(err)
		}
	}

	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	router.HandleFunc("GET /debug/flight", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = flightRecorder.WriteTo(w)
	})
	router.HandleFunc("GET /debug/views", middleware.CatchError(routes.DebugViews(a)))
}
