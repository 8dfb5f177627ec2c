// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"net/url"
	"os"
	"os/user"
	"regexp"
	"strconv"
	"strings"

	"aidanwoods.dev/go-paseto"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
)

// validation errors.
var (
	errUnixSocketWithHostPort       = errors.New("unix socket configured - cannot specify Host and Port simultaneously")
	errUnixSocketInvalidPermissions = errors.New("invalid Basic.UnixSocketPermissions value")
	errUnixSocketUserDoesNotExist   = errors.New("user does not exist")
	errUnixSocketGroupDoesNotExist  = errors.New("group does not exist")
	errInvalidBaseURL               = errors.New("App.BaseURL must be empty or a path starting with /")
	errEmptyMountSelector           = errors.New("App.MountSelector cannot be empty")
	errInvalidLoginURL              = errors.New("App.LoginURL must be a path or an absolute http(s) URL")
	errInvalidBackendURL            = errors.New("Backend.URL must be an absolute http(s) URL")
	errInvalidViewLoadRetries       = errors.New("Views.LoadRetries must be at least 1")
	errInvalidViewLoadTimeout       = errors.New("Views.LoadTimeout must be positive")
	errInvalidFragmentCacheSize     = errors.New("Views.FragmentCacheSize must be positive")
	errSessionSecretInvalid         = errors.New("Session.Secret is not a valid hex encoded v4.local paseto key")
	errInvalidSessionTTL            = errors.New("Session.TTL must be positive")
	errInvalidMaxSessions           = errors.New("Session.MaxSessions must be positive")
	errInvalidLimiterRate           = errors.New("Limiter.Rate and Limiter.Burst must be positive")
	errInvalidIPv4Prefix            = errors.New("IPv4 prefix must be between 0 and 32")
	errInvalidIPv6Prefix            = errors.New("IPv6 prefix must be between 0 and 128")
)

var (
	fileModeOctalRegexp  = regexp.MustCompile(`^0?[0-7]{3}$`)
	fileModeStringRegexp = regexp.MustCompile(`^(?:[r-][w-][x-]){3}$`)
	digitsRegexp         = regexp.MustCompile(`^[0-9]+$`)
)

// validateAndSet validates the server configuration and populates derived fields.
func (cfg *ServerConfig) validateAndSet() error {
	if err := cfg.validateListener(); err != nil {
		return err
	}

	if err := cfg.validateApp(); err != nil {
		return err
	}

	if cfg.Backend.RawURL != "" {
		u, err := url.Parse(cfg.Backend.RawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errInvalidBackendURL
		}
	}

	if cfg.Views.LoadRetries < 1 {
		return errInvalidViewLoadRetries
	}

	if cfg.Views.LoadTimeout <= 0 {
		return errInvalidViewLoadTimeout
	}

	if cfg.Views.FragmentCacheSize <= 0 {
		return errInvalidFragmentCacheSize
	}

	if err := cfg.validateSession(); err != nil {
		return err
	}

	if !cfg.Limiter.Enabled {
		return nil
	}

	if cfg.Limiter.Rate <= 0 || cfg.Limiter.Burst <= 0 || cfg.Limiter.MaxClients <= 0 {
		return errInvalidLimiterRate
	}

	if cfg.Limiter.IPv4Prefix < 0 || cfg.Limiter.IPv4Prefix > 32 {
		return errInvalidIPv4Prefix
	}

	if cfg.Limiter.IPv6Prefix < 0 || cfg.Limiter.IPv6Prefix > 128 {
		return errInvalidIPv6Prefix
	}

	return nil
}

func (cfg *ServerConfig) validateListener() error {
	if cfg.Basic.UnixSocket == "" {
		if cfg.Basic.Host == "" {
			cfg.Basic.Host = "localhost"
			log.Info().Str("host", cfg.Basic.Host).Msg("Binding to default host")
		}

		if cfg.Basic.Port == "" {
			cfg.Basic.Port = "8080"
			log.Info().Str("port", cfg.Basic.Port).Msg("Using default port")
		}

		return nil
	}

	if cfg.Basic.Host != "" || cfg.Basic.Port != "" {
		return errUnixSocketWithHostPort
	}

	switch raw := cfg.Basic.RawUnixSocketPermissions; {
	case raw == "":
		cfg.Basic.UnixSocketPermissions = 0o666
	case fileModeOctalRegexp.MatchString(raw):
		mode, _ := strconv.ParseUint(raw, 8, 32)

		cfg.Basic.UnixSocketPermissions = os.FileMode(mode)
	case fileModeStringRegexp.MatchString(raw):
		mode := os.FileMode(0)

		for i, c := range raw {
			if c != '-' {
				mode |= 1 << (8 - i)
			}
		}

		cfg.Basic.UnixSocketPermissions = mode
	default:
		return errUnixSocketInvalidPermissions
	}

	if u := cfg.Basic.UnixSocketUser; u != "" {
		lookup := user.Lookup
		if digitsRegexp.MatchString(u) {
			lookup = user.LookupId
		}

		if _, err := lookup(u); err != nil {
			return errUnixSocketUserDoesNotExist
		}
	}

	if g := cfg.Basic.UnixSocketGroup; g != "" {
		lookup := user.LookupGroup
		if digitsRegexp.MatchString(g) {
			lookup = user.LookupGroupId
		}

		if _, err := lookup(g); err != nil {
			return errUnixSocketGroupDoesNotExist
		}
	}

	return nil
}

func (cfg *ServerConfig) validateApp() error {
	base := strings.TrimRight(cfg.App.BaseURL, "/")
	if base != "" && (!strings.HasPrefix(base, "/") || strings.Contains(base, "//")) {
		return errInvalidBaseURL
	}

	cfg.App.BaseURL = base

	if strings.TrimSpace(cfg.App.MountSelector) == "" {
		return errEmptyMountSelector
	}

	login, err := url.Parse(cfg.App.LoginURL)
	if err != nil || cfg.App.LoginURL == "" {
		return errInvalidLoginURL
	}

	if login.IsAbs() {
		if login.Scheme != "http" && login.Scheme != "https" {
			return errInvalidLoginURL
		}
	} else if !strings.HasPrefix(login.Path, "/") {
		return errInvalidLoginURL
	}

	return nil
}

func (cfg *ServerConfig) validateSession() error {
	if cfg.Session.TTL <= 0 {
		return errInvalidSessionTTL
	}

	if cfg.Session.MaxSessions <= 0 {
		return errInvalidMaxSessions
	}

	if cfg.Session.Secret == "" {
		cfg.Session.Key = paseto.NewV4SymmetricKey()

		log.Warn().Msg("No Session.Secret configured, sessions will not survive a restart")

		return nil
	}

	key, err := paseto.V4SymmetricKeyFromHex(cfg.Session.Secret)
	if err != nil {
		log.Error().
			Err(err).
			Msgf("Generated secret key (put this in config.yaml)\nsession:\n  secret: %q", paseto.NewV4SymmetricKey().ExportHex())

		return errSessionSecretInvalid
	}

	cfg.Session.Key = key

	return nil
}
