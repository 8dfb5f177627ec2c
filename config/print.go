// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"github.com/erikvoorbraak/knvvl-exam/core/audit"
)

const redactedValue = "[redacted]"

// startupEnvKeys are the environment variables logged at startup.
var startupEnvKeys = []string{
	"EXAMADMIN_BASE_URL",
	"EXAMADMIN_BACKEND_URL",
	"EXAMADMIN_LOGIN_URL",
	"EXAMADMIN_SESSION_SECRET",
	"EXAMADMIN_DEV",
}

func (cfg *ServerConfig) print() {
	log.Info().
		Str("version", BuildVersion).
		Str("revision", cfg.Build.Revision()).
		Str("cacheid", cfg.Instance.FileServerCacheID).
		Msg("Starting exam admin")

	audit.LogStartupInfo(os.Args, startupEnvKeys...)

	printable := cfg.Redacted()

	configYAML, err := yaml.MarshalWithOptions(printable, GetDurationEncoderOption())
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config to YAML for printing")

		return
	}

	log.Info().Msg("Application configuration:")
	fmt.Fprintln(os.Stderr, string(configYAML))
}

// Redacted returns a copy of cfg with secrets replaced.
func (cfg *ServerConfig) Redacted() ServerConfig {
	printable := *cfg

	if printable.Session.Secret != "" {
		printable.Session.Secret = redactedValue
	}

	return printable
}
