// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFilePermissions = 0o666

// setupAudit configures the global logger from the Log section.
func (cfg *ServerConfig) setupAudit() {
	level := zerolog.InfoLevel

	if cfg.Development.InDevelopment {
		level = zerolog.DebugLevel
	} else if parsed, err := zerolog.ParseLevel(cfg.Log.Level); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}

	zerolog.SetGlobalLevel(level)

	writers := []io.Writer{}

	for _, output := range cfg.Log.Outputs {
		var w io.Writer

		switch output {
		case "/dev/stdout":
			w = cfg.logWriter(os.Stdout)
		case "/dev/stderr":
			w = cfg.logWriter(os.Stderr)
		default:
			file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions) // #nosec:G302,G304
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", output, err)

				continue
			}

			w = cfg.logWriter(file)
		}

		writers = append(writers, w)
	}

	if len(writers) == 0 {
		writers = append(writers, ConsoleWriter(os.Stderr))
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))
}

func (cfg *ServerConfig) logWriter(f *os.File) io.Writer {
	if cfg.Log.Format == "json" {
		return f
	}

	return ConsoleWriter(f)
}

// ConsoleWriter returns a human readable zerolog writer for f, coloured when f is a terminal.
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isatty.IsTerminal(f.Fd())

	w := zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}

	if !noColor {
		w.FormatPrepare = prettifyRequestLog
	}

	return w
}

// prettifyRequestLog folds the fields of a request log line into its message.
func prettifyRequestLog(m map[string]any) error {
	if sys, ok := m["sys"]; !ok || sys != "http" {
		return nil
	}

	m["message"] = fmt.Sprintf("[%s] %v %-5s %s", m["destination"], m["status_code"], m["method"], m["url"])

	for _, key := range []string{"sys", "method", "status_code", "url", "destination", "request_id", "session_id"} {
		delete(m, key)
	}

	return nil
}
