// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maskedValue = "******"

// SetDefaultLogger provides an ok log output format on startup if no config is set.
func SetDefaultLogger() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// LogStartupInfo logs the command line and the given environment variables.
// Values of keys that look like secrets are masked.
func LogStartupInfo(args []string, envKeys ...string) {
	log.Info().
		Strs("args", args).
		Msg("Exam admin starting")

	for _, key := range envKeys {
		value, ok := os.LookupEnv(key)
		if !ok {
			continue
		}

		if isSecretKey(key) {
			value = maskedValue
		}

		log.Info().
			Str("key", key).
			Str("value", value).
			Msg("Environment")
	}
}

func isSecretKey(key string) bool {
	k := strings.ToUpper(key)

	return strings.HasSuffix(k, "PASSWORD") || strings.HasSuffix(k, "SECRET") || strings.HasSuffix(k, "TOKEN")
}
