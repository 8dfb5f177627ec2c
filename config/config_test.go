// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests change the process environment and working directory and do not run in parallel.

func chdirTemp(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	return dir
}

func TestLoad(t *testing.T) {
	key := paseto.NewV4SymmetricKey()

	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
		check   func(t *testing.T, cfg *ServerConfig)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, "localhost", cfg.Basic.Host)
				assert.Equal(t, "#app", cfg.App.MountSelector)
				assert.Equal(t, "/login", cfg.App.LoginURL)
				assert.Equal(t, 3, cfg.Views.LoadRetries)
				assert.NotEmpty(t, cfg.Instance.FileServerCacheID)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"EXAMADMIN_PORT":              "9000",
				"EXAMADMIN_BASE_URL":          "/admin/",
				"EXAMADMIN_BACKEND_URL":       "http://localhost:8081",
				"EXAMADMIN_VIEW_LOAD_BACKOFF": "250ms",
				"EXAMADMIN_LIMITER_RATE":      "2.5",
				"EXAMADMIN_LIMITER_PASS_IPS":  "10.0.0.1, 10.0.0.2",
				"EXAMADMIN_SESSION_SECRET":    key.ExportHex(),
			},
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, "9000", cfg.Basic.Port)
				assert.Equal(t, "/admin", cfg.App.BaseURL)
				assert.Equal(t, "http://localhost:8081", cfg.Backend.RawURL)
				assert.Equal(t, 250*time.Millisecond, cfg.Views.LoadBackoff)
				assert.InDelta(t, 2.5, cfg.Limiter.Rate, 0.001)
				assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Limiter.PassIPs)
				assert.Equal(t, key.ExportHex(), cfg.Session.Key.ExportHex())
			},
		},
		{
			name:    "invalid base url",
			env:     map[string]string{"EXAMADMIN_BASE_URL": "admin"},
			wantErr: errInvalidBaseURL,
		},
		{
			name:    "invalid backend url",
			env:     map[string]string{"EXAMADMIN_BACKEND_URL": "localhost:8081"},
			wantErr: errInvalidBackendURL,
		},
		{
			name:    "invalid login url",
			env:     map[string]string{"EXAMADMIN_LOGIN_URL": "ftp://example.org/login"},
			wantErr: errInvalidLoginURL,
		},
		{
			name:    "empty mount selector",
			env:     map[string]string{"EXAMADMIN_MOUNT_SELECTOR": " "},
			wantErr: errEmptyMountSelector,
		},
		{
			name:    "invalid session secret",
			env:     map[string]string{"EXAMADMIN_SESSION_SECRET": "not-hex"},
			wantErr: errSessionSecretInvalid,
		},
		{
			name:    "invalid retries",
			env:     map[string]string{"EXAMADMIN_VIEW_LOAD_RETRIES": "0"},
			wantErr: errInvalidViewLoadRetries,
		},
		{
			name: "invalid limiter prefix",
			env: map[string]string{
				"EXAMADMIN_LIMITER":             "true",
				"EXAMADMIN_LIMITER_IPV4_PREFIX": "33",
			},
			wantErr: errInvalidIPv4Prefix,
		},
		{
			name: "unix socket with port",
			env: map[string]string{
				"EXAMADMIN_UNIXSOCKET": "/tmp/examadmin.sock",
				"EXAMADMIN_PORT":       "9000",
			},
			wantErr: errUnixSocketWithHostPort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := &ServerConfig{}
			err := cfg.load("")

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), err)

				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := chdirTemp(t)

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("app:\n  title: From YAML\n  loginUrl: /yaml-login\nbasic:\n  port: \"7000\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EXAMADMIN_LOGIN_URL=/dotenv-login\nEXAMADMIN_TITLE=From dotenv\n"), 0o600))

	t.Setenv("EXAMADMIN_TITLE", "From env")
	t.Cleanup(func() { os.Unsetenv("EXAMADMIN_LOGIN_URL") })

	cfg := &ServerConfig{}
	require.NoError(t, cfg.load(yamlPath))

	assert.Equal(t, "7000", cfg.Basic.Port)
	assert.Equal(t, "/dotenv-login", cfg.App.LoginURL)
	assert.Equal(t, "From env", cfg.App.Title)
}

func TestResolveConfigPath(t *testing.T) {
	dir := chdirTemp(t)

	assert.Equal(t, "custom.yaml", ResolveConfigPath("custom.yaml", true))
	assert.Equal(t, DefaultConfigFile, ResolveConfigPath(DefaultConfigFile, false))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), nil, 0o600))
	assert.Equal(t, "./config.yml", ResolveConfigPath(DefaultConfigFile, false))

	t.Setenv(ConfigFileEnv, "/etc/examadmin.yaml")
	assert.Equal(t, "/etc/examadmin.yaml", ResolveConfigPath(DefaultConfigFile, false))
}

func TestRedacted(t *testing.T) {
	cfg := &ServerConfig{}
	cfg.Session.Secret = "abc"

	assert.Equal(t, redactedValue, cfg.Redacted().Session.Secret)
	assert.Equal(t, "abc", cfg.Session.Secret)
}

func TestShouldSkipServerLogging(t *testing.T) {
	cfg := &ServerConfig{}

	assert.True(t, cfg.ShouldSkipServerLogging("/css/main.css"))
	assert.False(t, cfg.ShouldSkipServerLogging("/metrics"))

	cfg.Development.InDevelopment = true
	assert.True(t, cfg.ShouldSkipServerLogging("/metrics"))
	assert.False(t, cfg.ShouldSkipServerLogging("/texts"))
}

func TestPrettifyRequestLog(t *testing.T) {
	m := map[string]any{
		"sys":         "http",
		"destination": "user",
		"status_code": 200,
		"method":      "GET",
		"url":         "/texts",
		"request_id":  "x",
	}

	require.NoError(t, prettifyRequestLog(m))
	assert.Equal(t, "[user] 200 GET   /texts", m["message"])
	assert.NotContains(t, m, "url")
}
