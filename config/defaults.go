// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "time"

const (
	defaultBackendTimeout    = 30 * time.Second
	defaultViewLoadRetries   = 3
	defaultViewLoadBackoff   = 100 * time.Millisecond
	defaultViewLoadTimeout   = 10 * time.Second
	defaultFragmentCacheSize = 256
	defaultSessionTTL        = 12 * time.Hour
	defaultMaxSessions       = 4096
	defaultHTTPCacheMaxAge   = 30 * time.Second
	defaultLimiterRate       = 10
	defaultLimiterBurst      = 40
	defaultLimiterMaxClients = 10000
)

// SetDefaults populates the configuration with default values.
func (cfg *ServerConfig) SetDefaults() {
	cfg.Basic.Host = "localhost"
	cfg.Basic.Port = "8080"

	cfg.App.BaseURL = ""
	cfg.App.MountSelector = "#app"
	cfg.App.LoginURL = "/login"
	cfg.App.Title = "KNVvL examens"

	cfg.Backend.RawURL = ""
	cfg.Backend.Timeout = defaultBackendTimeout

	cfg.Views.LoadRetries = defaultViewLoadRetries
	cfg.Views.LoadBackoff = defaultViewLoadBackoff
	cfg.Views.LoadTimeout = defaultViewLoadTimeout
	cfg.Views.FragmentCacheSize = defaultFragmentCacheSize

	cfg.Session.TTL = defaultSessionTTL
	cfg.Session.MaxSessions = defaultMaxSessions
	cfg.Session.CookieName = "examadmin_session"

	cfg.HTTPCache.MaxAge = defaultHTTPCacheMaxAge

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Limiter.Enabled = false
	cfg.Limiter.Rate = defaultLimiterRate
	cfg.Limiter.Burst = defaultLimiterBurst
	cfg.Limiter.IPv4Prefix = 24
	cfg.Limiter.IPv6Prefix = 48
	cfg.Limiter.MaxClients = defaultLimiterMaxClients

	cfg.Internationalization.StrictMissingKeys = false
}
