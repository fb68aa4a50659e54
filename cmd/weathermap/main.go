package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/urfave/cli/v2"

	"weathermap/internal/config"
	"weathermap/internal/librenms"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// buildInfo returns version, commit and build time. ldflags-injected
// values take priority; VCS info from debug.ReadBuildInfo fills in
// anything left as default.
func buildInfo() (ver, sha, built string) {
	ver = version
	sha = commit
	built = buildTime

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if sha == "none" {
				sha = s.Value
			}
		case "vcs.time":
			if built == "unknown" {
				built = s.Value
			}
		}
	}
	return
}

func main() {
	ver, sha, built := buildInfo()

	app := &cli.App{
		Name:    "weathermap",
		Usage:   "LibreNMS network weathermap renderer and config editor",
		Version: fmt.Sprintf("%s (commit %s, built %s)", ver, sha, built),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.ini",
				Usage:   "path to config.ini",
			},
			&cli.BoolFlag{
				Name:    "insecure",
				Aliases: []string{"k"},
				Usage:   "disable TLS certificate verification",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelInfo
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
			return nil
		},
		Commands: []*cli.Command{
			renderCommand(),
			serveCommand(),
			deviceCommand(),
			linkCommand(),
			discoverCommand(),
			historyCommand(),
			setCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the global --config flag.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if errors.Is(err, config.ErrNotFound) {
		return nil, fmt.Errorf("%w (copy config.ini.example to get started)", err)
	}
	return cfg, err
}

// loadOrCreateConfig is loadConfig but a missing file starts an empty
// configuration, the way the editor bootstraps a fresh map.
func loadOrCreateConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if errors.Is(err, config.ErrNotFound) {
		slog.Info("starting new config", "path", c.String("config"))
		return config.New(c.String("config")), nil
	}
	return cfg, err
}

// apiClient builds a LibreNMS client from the config, failing up front
// when credentials are missing.
func apiClient(c *cli.Context, cfg *config.Config) (*librenms.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c.Bool("insecure") {
		slog.Warn("TLS certificate verification disabled")
	}
	return librenms.New(cfg.API.URL, cfg.API.Token, c.Bool("insecure")), nil
}
