// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command i18n_extract writes the gettext template of the exam admin.
//
// Messages come from Tr, TrN and MsgKey uses in Go sources, the view
// manifests and the navigation bar.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/tools/go/packages"

	"github.com/erikvoorbraak/knvvl-exam/core/audit"
)

func main() {
	audit.SetDefaultLogger()

	outPath := flag.String("o", "po/examadmin.pot", "output file")
	assetsDir := flag.String("assets", "assets", "directory holding views/*.yaml")
	flag.Parse()

	wd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get working directory")
	}

	pkgs, err := packages.Load(&packages.Config{Mode: packages.LoadAllSyntax}, "./...")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load packages")
	}

	if packages.PrintErrors(pkgs) > 0 {
		log.Fatal().Msg("Failed to load packages due to errors")
	}

	refs := make(catalogue)
	root := nearestGoModDir(wd)

	extractGo(refs, pkgs, root)

	if err := extractManifests(refs, os.DirFS(*assetsDir), filepath.ToSlash(*assetsDir)); err != nil {
		log.Fatal().Err(err).Msg("Failed to read view manifests")
	}

	extractNavigation(refs)

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *outPath).Msg("Failed to create output file")
	}
	defer f.Close()

	if err := refs.writePOT(f); err != nil {
		log.Fatal().Err(err).Str("file", *outPath).Msg("Failed to write output file")
	}

	log.Info().
		Int("messages", len(refs)).
		Str("file", *outPath).
		Msg("Wrote message template")
}

func nearestGoModDir(start string) string {
	dir := filepath.Clean(start)

	for {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !fi.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}

		dir = parent
	}
}
