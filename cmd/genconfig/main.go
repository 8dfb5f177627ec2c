// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command genconfig writes the example configuration files under deploy/.
package main

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"github.com/erikvoorbraak/knvvl-exam/config"
	"github.com/erikvoorbraak/knvvl-exam/core/audit"
)

const (
	envOutputFile  = "deploy/.env.example"
	yamlOutputFile = "deploy/config.yaml.example"
	filePerm       = 0o644

	envFileHeader = `# Exam admin configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.

`
	yamlFileHeader = `# Exam admin configuration (via configuration file)
#
# Copy this file to config.yaml and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`
)

// uncommented are the variables every deployment sets.
var uncommented = map[string]bool{
	"EXAMADMIN_HOST":        true,
	"EXAMADMIN_PORT":        true,
	"EXAMADMIN_BACKEND_URL": true,
}

func main() {
	audit.SetDefaultLogger()

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	write(envOutputFile, renderEnv(cfg))

	content, err := renderYAML(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config to YAML")
	}

	write(yamlOutputFile, content)
}

func write(path, content string) {
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write example configuration")
	}

	log.Info().Str("path", path).Msg("Generated example configuration")
}

// renderEnv lists every env tagged field of cfg, one section per top-level struct.
func renderEnv(cfg *config.ServerConfig) string {
	var sb strings.Builder

	sb.WriteString(envFileHeader)

	val := reflect.ValueOf(*cfg)
	typ := val.Type()

	for i := range typ.NumField() {
		section := typ.Field(i)
		sectionValue := val.Field(i)

		if sectionValue.Kind() != reflect.Struct || section.Tag.Get("yaml") == "-" {
			continue
		}

		fmt.Fprintf(&sb, "## %s\n", section.Name)

		for j := range sectionValue.NumField() {
			field := sectionValue.Type().Field(j)
			value := sectionValue.Field(j)

			tag, ok := field.Tag.Lookup("env")
			if !ok {
				continue
			}

			name := strings.Split(tag, ",")[0]

			switch {
			case uncommented[name]:
				fmt.Fprintf(&sb, "%s=\"%v\"\n", name, value.Interface())
			case value.Kind() == reflect.Slice || value.IsZero():
				fmt.Fprintf(&sb, "# %s=\n", name)
			default:
				fmt.Fprintf(&sb, "# %s=%v\n", name, value.Interface())
			}
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// renderYAML marshals cfg and comments out every non-section line.
func renderYAML(cfg *config.ServerConfig) (string, error) {
	var content strings.Builder

	err := yaml.NewEncoder(&content, config.GetDurationEncoderOption(), yaml.Indent(2)).Encode(cfg)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString(yamlFileHeader)

	for line := range strings.SplitSeq(content.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !strings.HasPrefix(line, " ") {
			fmt.Fprintf(&sb, "\n%s\n", line)

			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " "))
		fmt.Fprintf(&sb, "%s# %s\n", strings.Repeat(" ", indent), trimmed)
	}

	return sb.String(), nil
}
