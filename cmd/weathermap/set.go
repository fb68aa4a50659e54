package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"weathermap/internal/config"
)

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "write a configuration value",
		ArgsUsage: "<key> <value>",
		Description: `Writes one [settings] key, e.g.:

   weathermap set max_util 10000
   weathermap set node_color skyblue

The special keys "url" and "token" write the [librenms] section instead.`,
		Action: runSet,
	}
}

func runSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: set <key> <value>")
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	cfg, err := loadOrCreateConfig(c)
	if err != nil {
		return err
	}

	switch key {
	case "url":
		cfg.SetAPI(config.API{URL: value, Token: cfg.API.Token})
	case "token":
		cfg.SetAPI(config.API{URL: cfg.API.URL, Token: value})
	default:
		cfg.SetSetting(key, value)
	}
	return cfg.Save()
}
