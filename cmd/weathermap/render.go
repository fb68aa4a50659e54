package main

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"

	"github.com/urfave/cli/v2"

	"weathermap/internal/collector"
	"weathermap/internal/config"
	"weathermap/internal/model"
	"weathermap/internal/render"
	"weathermap/internal/store"
	"weathermap/internal/utilization"
)

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "fetch current traffic and write the weathermap image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "network_map.png",
				Usage:   "output PNG filename",
			},
			&cli.BoolFlag{
				Name:  "no-show",
				Usage: "do not open the image after rendering",
			},
		},
		Action: runRender,
	}
}

func runRender(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	client, err := apiClient(c, cfg)
	if err != nil {
		return err
	}

	snap, problems := collector.New(client).Collect(c.Context, cfg.Devices)
	loads, resolveProblems := utilization.Resolve(cfg.Devices, cfg.Links, snap.Ports)
	problems = append(problems, resolveProblems...)

	output := c.String("output")
	if err := render.New(renderOptions(cfg.Settings)).WritePNG(output, cfg.Devices, loads); err != nil {
		return err
	}

	if err := recordHistory(cfg.Settings.HistoryDB, cfg.Settings.HistoryDays, loads); err != nil {
		slog.Error("recording history", "error", err)
	}

	reportProblems(append(cfg.Warnings, problems...))
	fmt.Printf("Weathermap written to %s (%d links drawn, %d skipped)\n", output, len(loads), len(resolveProblems))

	if !c.Bool("no-show") {
		showImage(output)
	}
	return nil
}

func renderOptions(s config.Settings) render.Options {
	return render.Options{
		MinUtil:         s.MinUtil,
		MaxUtil:         s.MaxUtil,
		NodeSize:        s.NodeSize,
		FigWidth:        s.FigWidth,
		FigHeight:       s.FigHeight,
		DPI:             s.DPI,
		NodeColor:       s.NodeColor,
		CloudNodeColor:  s.CloudNodeColor,
		PseudoNodeColor: s.PseudoNodeColor,
	}
}

func reportProblems(problems []model.Problem) {
	for _, p := range problems {
		fmt.Printf("Warning: %s\n", p)
	}
}

// recordHistory appends this render's samples to the history database
// when one is configured, and prunes past the retention window.
func recordHistory(path string, retentionDays int, loads []utilization.LinkLoad) error {
	if path == "" || len(loads) == 0 {
		return nil
	}
	st, err := store.New(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.InsertBatch(time.Now(), loads); err != nil {
		return err
	}
	return st.Prune(time.Duration(retentionDays) * 24 * time.Hour)
}

// showImage hands the rendered file to the platform image viewer.
// Best-effort: headless environments simply log and move on.
func showImage(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		slog.Debug("opening viewer failed", "path", path, "error", err)
	}
}
