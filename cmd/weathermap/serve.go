package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"weathermap/internal/alert"
	"weathermap/internal/api"
	"weathermap/internal/cache"
	"weathermap/internal/collector"
	"weathermap/internal/config"
	"weathermap/internal/librenms"
	"weathermap/internal/render"
	"weathermap/internal/utilization"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "render the map on an interval and serve it over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Value:   ":8080",
				Usage:   "HTTP listen address",
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Value:   time.Minute,
				Usage:   "time between renders",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	client, err := apiClient(c, cfg)
	if err != nil {
		return err
	}

	interval := c.Duration("interval")
	renderCache := cache.New()
	alerter := alert.New(cfg.Alerts)

	go renderLoop(c.Context, c.String("config"), cfg, client, renderCache, alerter, interval, c.Bool("insecure"))

	return api.NewServer(c.String("listen"), renderCache, interval).Run(c.Context)
}

// renderLoop re-renders on each tick. The config file is re-read every
// cycle so editor changes show up without a restart; a broken read keeps
// the previous config in use.
func renderLoop(ctx context.Context, path string, cfg *config.Config, client *librenms.Client, renderCache *cache.Cache, alerter *alert.Alerter, interval time.Duration, insecure bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		renderOnce(ctx, cfg, client, renderCache, alerter)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cfg, client, alerter = refresh(path, cfg, client, alerter, insecure)
	}
}

// refresh re-reads the config, rebuilding the API client and the alerter
// only when their sections changed. Rebuilding the alerter resets its
// cooldown state. A broken read keeps everything as is.
func refresh(path string, cfg *config.Config, client *librenms.Client, alerter *alert.Alerter, insecure bool) (*config.Config, *librenms.Client, *alert.Alerter) {
	fresh, err := config.Load(path)
	if err != nil {
		slog.Error("reloading config, keeping previous", "path", path, "error", err)
		return cfg, client, alerter
	}
	if fresh.API != cfg.API {
		client = librenms.New(fresh.API.URL, fresh.API.Token, insecure)
	}
	if fresh.Alerts != cfg.Alerts {
		alerter = alert.New(fresh.Alerts)
	}
	return fresh, client, alerter
}

func renderOnce(ctx context.Context, cfg *config.Config, client *librenms.Client, renderCache *cache.Cache, alerter *alert.Alerter) {
	start := time.Now()

	snap, collectProblems := collector.New(client).Collect(ctx, cfg.Devices)
	loads, resolveProblems := utilization.Resolve(cfg.Devices, cfg.Links, snap.Ports)
	problems := collectProblems
	problems = append(problems, resolveProblems...)

	png, err := render.New(renderOptions(cfg.Settings)).EncodePNG(cfg.Devices, loads)
	if err != nil {
		slog.Error("rendering map", "error", err)
		return
	}
	renderCache.Update(png, loads, append(cfg.Warnings, problems...), start)

	if err := recordHistory(cfg.Settings.HistoryDB, cfg.Settings.HistoryDays, loads); err != nil {
		slog.Error("recording history", "error", err)
	}
	// Resolve warnings are configuration issues, not outages; only
	// collection failures reach the device rules.
	alerter.Evaluate(ctx, loads, collectProblems)

	slog.Info("map rendered",
		"links", len(loads),
		"skipped", len(resolveProblems),
		"problems", len(problems),
		"took", time.Since(start).Round(time.Millisecond),
	)
}
