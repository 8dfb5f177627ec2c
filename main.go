// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Examadmin serves the admin front end of the KNVvL exam database.
*/
package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"os/user"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/erikvoorbraak/knvvl-exam/config"
	"github.com/erikvoorbraak/knvvl-exam/core/app"
	"github.com/erikvoorbraak/knvvl-exam/core/audit"
	"github.com/erikvoorbraak/knvvl-exam/core/routetable"
	"github.com/erikvoorbraak/knvvl-exam/i18n"
	"github.com/erikvoorbraak/knvvl-exam/server/assets"
	"github.com/erikvoorbraak/knvvl-exam/server/router"
	"github.com/erikvoorbraak/knvvl-exam/server/session"
)

const (
	// Values for http.Server timeouts.
	// ref: gosec: G112
	readHeaderTimeout time.Duration = 15 * time.Second
	readTimeout       time.Duration = 15 * time.Second
	writeTimeout      time.Duration = 10 * time.Second
	idleTimeout       time.Duration = 30 * time.Second

	serverShutdownDeadline time.Duration = 5 * time.Second
)

var (
	errChmodSocket = errors.New("failed to change unix socket permissions")
	errChownSocket = errors.New("failed to change unix socket ownership")
)

// embeddedContent holds the root document, the static files, the view
// manifests and the translation catalogues.
//
//go:embed assets/index.html assets/css assets/js assets/img assets/views/*.yaml
//go:embed po
var embeddedContent embed.FS

// init assigns the embedded filesystem to the exported assets.FS variable.
//
//nolint:gochecknoinits // this is a good use of init()
func init() {
	assets.FS = embeddedContent
}

// main is the entry point of the application.
func main() {
	audit.SetDefaultLogger()

	if err := newRootCommand().Execute(); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	configFile := func(cmd *cobra.Command) string {
		return config.ResolveConfigPath(configPath, cmd.Flags().Changed("config"))
	}

	serve := func(cmd *cobra.Command, _ []string) error {
		return run(configFile(cmd))
	}

	root := &cobra.Command{
		Use:           "examadmin",
		Short:         "Admin front end of the KNVvL exam database",
		Version:       config.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serve,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile,
		"configuration file, overrides "+config.ConfigFileEnv)

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the admin front end (default)",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		&cobra.Command{
			Use:   "routes",
			Short: "Print the route table",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := config.Global.LoadConfig(configFile(cmd)); err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}

				return printRoutes(cmd.OutOrStdout(), routetable.Default(config.Global.App.LoginURL), config.Global.App.BaseURL)
			},
		},
	)

	return root
}

// printRoutes writes one line per route table entry.
func printRoutes(w io.Writer, table *routetable.Table, base string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "PATH\tNAME\tTARGET\tPARAMS")

	entries := table.Entries()
	for i := range entries {
		e := &entries[i]

		path := base + e.Path

		name := e.Name
		if name == "" {
			name = "-"
		}

		params := strings.Join(e.Params(), ",")
		if params == "" {
			params = "-"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", path, name, e.Target, params)
	}

	return tw.Flush()
}

// run orchestrates the application startup and graceful shutdown.
//
//nolint:funlen
func run(configPath string) error {
	if err := config.Global.LoadConfig(configPath); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := i18n.Setup(assets.FS, config.Global.Internationalization.StrictMissingKeys); err != nil {
		return fmt.Errorf("failed to initialize i18n engine: %w", err)
	}

	log.Info().Msg("Initialized i18n engine")

	static, err := fs.Sub(assets.FS, "assets")
	if err != nil {
		return fmt.Errorf("failed to open embedded assets: %w", err)
	}

	cfg := &config.Global

	a, err := app.Bootstrap(context.Background(), app.Config{
		Assets:        static,
		MountSelector: cfg.App.MountSelector,
		BaseURL:       cfg.App.BaseURL,
		LoginURL:      cfg.App.LoginURL,
		Info: app.Info{
			Title:     cfg.App.Title,
			Version:   config.BuildVersion,
			StartedAt: cfg.Instance.StartingTime,
		},
		LoadRetries:       cfg.Views.LoadRetries,
		LoadBackoff:       cfg.Views.LoadBackoff,
		LoadTimeout:       cfg.Views.LoadTimeout,
		MaxSessions:       cfg.Session.MaxSessions,
		FragmentCacheSize: cfg.Views.FragmentCacheSize,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap app: %w", err)
	}

	var backend *url.URL

	if cfg.Backend.RawURL != "" {
		// validated by config
		backend, _ = url.Parse(cfg.Backend.RawURL)
	} else {
		log.Warn().Msg("No Backend.URL configured, /api, /public, /login and /logout are not served")
	}

	mux := router.NewRouter()
	mux.DefineRoutes(router.Routes{
		App:            a,
		Static:         static,
		Backend:        backend,
		BackendTimeout: cfg.Backend.Timeout,
	})

	if err := mux.RegisterMiddleware(session.NewManager(cfg.Session.Key, cfg.Session.CookieName, cfg.Session.TTL)); err != nil {
		return fmt.Errorf("failed to set up middleware: %w", err)
	}

	// Create http.Server instance
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	// Channel to listen for server errors
	serverErrors := make(chan error, 1)

	// Start main server in a goroutine
	go func() {
		listener, err := chooseListener()
		if err != nil {
			serverErrors <- fmt.Errorf("failed to create listener: %w", err)

			return
		}

		serverErrors <- server.Serve(listener)
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until a shutdown signal or a server error is received
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case s := <-quit:
		log.Info().Str("signal", s.String()).Msg("Shutdown signal received")
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownDeadline)

		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
	}

	log.Info().Msg("Server exited gracefully")

	return nil
}

func chooseListener() (net.Listener, error) {
	// Check if we should use a Unix domain socket
	if config.Global.Basic.UnixSocket != "" {
		unixAddr := config.Global.Basic.UnixSocket

		unixListener, err := (&net.ListenConfig{}).Listen(context.Background(), "unix", unixAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to start Unix socket listener on %v: %w", unixAddr, err)
		}

		if err = setupSocket(); err != nil {
			_ = unixListener.Close()

			return nil, err
		}

		// Assign the listener and log where we are listening
		log.Info().
			Str("address", unixAddr).
			Msg("Listening on Unix domain socket")

		return unixListener, nil
	}

	// Otherwise, fall back to TCP listener
	addr := net.JoinHostPort(config.Global.Basic.Host, config.Global.Basic.Port)

	tcpListener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start TCP listener on %v: %w", addr, err)
	}

	addr = tcpListener.Addr().String()

	// Extract the port for logging
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		_ = tcpListener.Close()

		return nil, fmt.Errorf("failed to parse listener address %q: %w", addr, err)
	}

	// Log the address and convenient URL for local development
	log.Info().
		Str("address", addr).
		Str("port", port).
		Str("url", fmt.Sprintf("http://localhost:%v%s/", port, config.Global.App.BaseURL)).
		Msg("Listening on address")

	return tcpListener, nil
}

func setupSocket() error {
	cfg := config.Global.Basic

	if cfg.UnixSocket == "" {
		return nil
	}

	uid, gid := -1, -1

	var err error

	if cfg.UnixSocketUser != "" {
		uid, err = parseUserOrGroupID(cfg.UnixSocketUser, "user")
		if err != nil {
			return err
		}
	}

	if cfg.UnixSocketGroup != "" {
		gid, err = parseUserOrGroupID(cfg.UnixSocketGroup, "group")
		if err != nil {
			return err
		}
	}

	if uid != -1 || gid != -1 {
		if err := os.Chown(cfg.UnixSocket, uid, gid); err != nil {
			return fmt.Errorf("%w: %w", errChownSocket, err)
		}
	}

	if err := os.Chmod(cfg.UnixSocket, cfg.UnixSocketPermissions); err != nil {
		return fmt.Errorf("%w: %w", errChmodSocket, err)
	}

	return nil
}

// parseUserOrGroupID attempts to parse a user or group identifier.
//
// It first tries to convert the value to an integer. If that fails, it
// performs a system lookup for the given kind ("user" or "group").
func parseUserOrGroupID(value, kind string) (int, error) {
	// Try to parse as a numeric ID first.
	if id, err := strconv.Atoi(value); err == nil {
		return id, nil
	}

	// If parsing fails, assume it's a name and look it up.
	var idStr string

	if kind == "user" {
		u, err := user.Lookup(value)
		if err != nil {
			return -1, fmt.Errorf("failed to lookup user '%s': %w", value, err)
		}

		idStr = u.Uid
	} else { // kind == "group"
		g, err := user.LookupGroup(value)
		if err != nil {
			return -1, fmt.Errorf("failed to lookup group '%s': %w", value, err)
		}

		idStr = g.Gid
	}

	// Parse the ID from the looked-up struct.
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return -1, fmt.Errorf("failed to parse %s ID from looked-up value '%s': %w", kind, value, err)
	}

	return id, nil
}
