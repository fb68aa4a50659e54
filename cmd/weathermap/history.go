package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"weathermap/internal/store"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "show recent link utilization samples from the history database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "history database path (defaults to settings.history_db)"},
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of samples to show"},
		},
		Action: runHistory,
	}
}

func runHistory(c *cli.Context) error {
	path := c.String("db")
	if path == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		path = cfg.Settings.HistoryDB
	}
	if path == "" {
		return fmt.Errorf("no history database configured (set history_db in [settings] or pass --db)")
	}

	st, err := store.New(path)
	if err != nil {
		return err
	}
	defer st.Close()

	samples, err := st.Recent(c.Int("limit"))
	if err != nil {
		return err
	}
	for _, s := range samples {
		ts := time.Unix(s.Timestamp, 0).Format(time.RFC3339)
		fmt.Printf("%s  %s:%s -- %s:%s  out1=%.2f out2=%.2f Mbit/s\n",
			ts, s.Dev1, s.Port1, s.Dev2, s.Port2, s.Out1Mbps, s.Out2Mbps)
	}
	return nil
}
