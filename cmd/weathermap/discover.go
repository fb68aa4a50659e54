package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"weathermap/internal/discover"
)

func discoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "find links between managed devices by shared point-to-point subnets",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-prefix",
				Value: 30,
				Usage: "longest prefix length considered a link subnet",
			},
			&cli.BoolFlag{
				Name:  "devices",
				Usage: "also add every device known to LibreNMS, placed on a grid",
			},
		},
		Action: runDiscover,
	}
}

func runDiscover(c *cli.Context) error {
	cfg, err := loadOrCreateConfig(c)
	if err != nil {
		return err
	}
	client, err := apiClient(c, cfg)
	if err != nil {
		return err
	}

	if c.Bool("devices") {
		infos, err := client.Devices(c.Context)
		if err != nil {
			return fmt.Errorf("fetching device list: %w", err)
		}
		placed := discover.PlaceAll(&cfg.Document, infos)
		fmt.Printf("Placed %d new device(s)\n", placed)
	}

	candidates, problems := discover.Links(c.Context, client, cfg.Devices, c.Int("max-prefix"))
	added := discover.Merge(&cfg.Document, candidates)

	if err := cfg.Save(); err != nil {
		return err
	}

	reportProblems(problems)
	fmt.Printf("Added %d new link(s) (%d candidate(s) found)\n", added, len(candidates))
	return nil
}
