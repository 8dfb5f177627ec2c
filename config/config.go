// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package config loads the server configuration.

Values are read in this order, later sources overriding earlier ones: built-in
defaults, the YAML configuration file, a .env file and the process environment.
Every environment variable starts with EXAMADMIN_.
*/
package config

import (
	"os"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"github.com/erikvoorbraak/knvvl-exam/core/idgen"
)

// Global exposes the server configuration.
var Global ServerConfig

// ConfigFileEnv names the environment variable holding the configuration file path.
const ConfigFileEnv = "EXAMADMIN_CONFIGFILE"

// DefaultConfigFile is used when neither a flag nor ConfigFileEnv names a file.
const DefaultConfigFile = "./config.yaml"

// ServerConfig holds the application configuration.
type ServerConfig struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host                     string      `env:"EXAMADMIN_HOST,overwrite" yaml:"host"`
		Port                     string      `env:"EXAMADMIN_PORT,overwrite" yaml:"port"`
		UnixSocket               string      `env:"EXAMADMIN_UNIXSOCKET" yaml:"unixSocket"`
		RawUnixSocketPermissions string      `env:"EXAMADMIN_UNIXSOCKET_PERMISSIONS" yaml:"unixSocketPermissions"`
		UnixSocketPermissions    os.FileMode `yaml:"-"`
		UnixSocketUser           string      `env:"EXAMADMIN_UNIXSOCKET_USER" yaml:"unixSocketUser"`
		UnixSocketGroup          string      `env:"EXAMADMIN_UNIXSOCKET_GROUP" yaml:"unixSocketGroup"`
	} `yaml:"basic"`

	App struct {
		// BaseURL is the path prefix every app route lives under.
		BaseURL       string `env:"EXAMADMIN_BASE_URL,overwrite" yaml:"baseUrl"`
		MountSelector string `env:"EXAMADMIN_MOUNT_SELECTOR,overwrite" yaml:"mountSelector"`
		LoginURL      string `env:"EXAMADMIN_LOGIN_URL,overwrite" yaml:"loginUrl"`
		Title         string `env:"EXAMADMIN_TITLE,overwrite" yaml:"title"`
	} `yaml:"app"`

	Backend struct {
		// URL of the service owning /api, /public, /login and /logout.
		// Empty disables forwarding.
		RawURL  string        `env:"EXAMADMIN_BACKEND_URL,overwrite" yaml:"url"`
		Timeout time.Duration `env:"EXAMADMIN_BACKEND_TIMEOUT,overwrite" yaml:"timeout"`
	} `yaml:"backend"`

	Views struct {
		LoadRetries int           `env:"EXAMADMIN_VIEW_LOAD_RETRIES,overwrite" yaml:"loadRetries"`
		LoadBackoff time.Duration `env:"EXAMADMIN_VIEW_LOAD_BACKOFF,overwrite" yaml:"loadBackoff"`
		LoadTimeout time.Duration `env:"EXAMADMIN_VIEW_LOAD_TIMEOUT,overwrite" yaml:"loadTimeout"`
		// FragmentCacheSize bounds the number of cached rendered views.
		FragmentCacheSize int `env:"EXAMADMIN_FRAGMENT_CACHE_SIZE,overwrite" yaml:"fragmentCacheSize"`
	} `yaml:"views"`

	Session struct {
		// Secret is a hex encoded v4.local paseto key. A random key is used when empty.
		Secret      string                `env:"EXAMADMIN_SESSION_SECRET" yaml:"secret"`
		Key         paseto.V4SymmetricKey `yaml:"-"`
		TTL         time.Duration         `env:"EXAMADMIN_SESSION_TTL,overwrite" yaml:"ttl"`
		MaxSessions int                   `env:"EXAMADMIN_MAX_SESSIONS,overwrite" yaml:"maxSessions"`
		CookieName  string                `env:"EXAMADMIN_SESSION_COOKIE,overwrite" yaml:"cookieName"`
	} `yaml:"session"`

	HTTPCache struct {
		MaxAge time.Duration `env:"EXAMADMIN_CACHE_CONTROL_MAX_AGE,overwrite" yaml:"cacheControlMaxAge"`
	} `yaml:"httpCache"`

	Instance struct {
		StartingTime      string `yaml:"-"`
		FileServerCacheID string `yaml:"-"`
	} `yaml:"-"`

	Development struct {
		InDevelopment bool `env:"EXAMADMIN_DEV" yaml:"inDevelopment"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"EXAMADMIN_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"EXAMADMIN_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"EXAMADMIN_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`

	Limiter struct {
		Enabled    bool     `env:"EXAMADMIN_LIMITER,overwrite" yaml:"enabled"`
		Rate       float64  `env:"EXAMADMIN_LIMITER_RATE,overwrite" yaml:"rate"`
		Burst      int      `env:"EXAMADMIN_LIMITER_BURST,overwrite" yaml:"burst"`
		PassIPs    []string `env:"EXAMADMIN_LIMITER_PASS_IPS,overwrite" yaml:"passList"`
		BlockIPs   []string `env:"EXAMADMIN_LIMITER_BLOCK_IPS,overwrite" yaml:"blockList"`
		IPv4Prefix int      `env:"EXAMADMIN_LIMITER_IPV4_PREFIX,overwrite" yaml:"ipv4Prefix"`
		IPv6Prefix int      `env:"EXAMADMIN_LIMITER_IPV6_PREFIX,overwrite" yaml:"ipv6Prefix"`
		// MaxClients bounds the number of tracked client networks.
		MaxClients int `env:"EXAMADMIN_LIMITER_MAX_CLIENTS,overwrite" yaml:"maxClients"`
	} `yaml:"limiter"`

	Internationalization struct {
		// When enabled, missing keys are logged once per locale and key and
		// visibly wrapped using markers.
		StrictMissingKeys bool `env:"EXAMADMIN_STRICT_MISSING_KEYS" yaml:"strictMissingKeys"`
	} `yaml:"internationalization"`
}

// ResolveConfigPath returns the configuration file to read.
//
// flagValue wins when flagSet, then the ConfigFileEnv variable, then
// DefaultConfigFile with ./config.yml as a fallback.
func ResolveConfigPath(flagValue string, flagSet bool) string {
	if flagSet {
		return flagValue
	}

	if envVar := os.Getenv(ConfigFileEnv); envVar != "" {
		return envVar
	}

	if _, err := os.Stat(DefaultConfigFile); os.IsNotExist(err) {
		if _, statErr := os.Stat("./config.yml"); statErr == nil {
			return "./config.yml"
		}
	}

	return DefaultConfigFile
}

// LoadConfig loads the configuration from configFilePath, .env and the environment.
func (cfg *ServerConfig) LoadConfig(configFilePath string) error {
	if err := cfg.load(configFilePath); err != nil {
		return err
	}

	cfg.setupAudit()
	cfg.print()

	if isContainerized() && cfg.Basic.UnixSocket == "" && cfg.Basic.Host != "0.0.0.0" && cfg.Basic.Host != "::" {
		log.Warn().
			Str("host", cfg.Basic.Host).
			Msg("Running in a container but host is not a wildcard address (e.g. '0.0.0.0' or '::'). The service may not be reachable from outside the container.")
	}

	return nil
}

// load fills cfg without touching the global logger.
func (cfg *ServerConfig) load(configFilePath string) error {
	cfg.SetDefaults()

	cfg.Build.load()

	cfg.Instance.FileServerCacheID = idgen.Make()
	cfg.Instance.StartingTime = time.Now().UTC().Format("2006-01-02 15:04")

	if err := cfg.readYAML(configFilePath); err != nil {
		return errors.Wrap(err, "error loading YAML config")
	}

	if err := useDotEnv(); err != nil {
		return errors.Wrap(err, "error using .env file")
	}

	if err := readEnv(cfg); err != nil {
		return errors.Wrap(err, "error loading environment variables")
	}

	if err := cfg.validateAndSet(); err != nil {
		return errors.Wrap(err, "configuration invalid")
	}

	return nil
}

var (
	staticSkippedPathPrefixes = []string{"/img/", "/css/", "/js/", "/favicon.ico"}
	devSkippedPathPrefixes    = []string{"/debug/", "/metrics"}
)

// ShouldSkipServerLogging reports whether requests for path are not logged.
func (cfg *ServerConfig) ShouldSkipServerLogging(path string) bool {
	for _, prefix := range staticSkippedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	if cfg.Development.InDevelopment {
		for _, prefix := range devSkippedPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
	}

	return false
}

// isContainerized checks for common indicators of a containerized environment.
func isContainerized() bool {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}

	for _, marker := range []string{"/.dockerenv", "/.containerenv"} {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
	}

	// #nosec G304 -- well-known system file
	cgroup, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}

	content := string(cgroup)
	for _, keyword := range []string{"docker", "kubepods", "containerd", "lxc", "crio", ".machine"} {
		if strings.Contains(content, keyword) {
			return true
		}
	}

	return false
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string such as "30m".
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
