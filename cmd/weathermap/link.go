package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"weathermap/internal/config"
	"weathermap/internal/editor"
	"weathermap/internal/model"
)

func linkCommand() *cli.Command {
	return &cli.Command{
		Name:  "link",
		Usage: "manage links between devices",
		Subcommands: []*cli.Command{
			{
				Name:   "ls",
				Usage:  "list links",
				Action: runLinkList,
			},
			{
				Name:  "add",
				Usage: "add a link; without flags an interactive wizard picks devices and ports",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dev1", Usage: "first device key"},
					&cli.StringFlag{Name: "port1", Usage: "interface on dev1"},
					&cli.StringFlag{Name: "dev2", Usage: "second device key"},
					&cli.StringFlag{Name: "port2", Usage: "interface on dev2"},
				},
				Action: runLinkAdd,
			},
			{
				Name:      "rm",
				Usage:     "delete a link",
				ArgsUsage: `"dev1:port1 -- dev2:port2"`,
				Action:    runLinkDelete,
			},
		},
	}
}

func runLinkList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	for i, l := range cfg.Links {
		fmt.Printf("link%d = %s\n", i+1, l)
	}
	return nil
}

func runLinkAdd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	flagged := c.String("dev1") != "" || c.String("port1") != "" ||
		c.String("dev2") != "" || c.String("port2") != ""

	var link model.Link
	if flagged {
		link = model.Link{
			Dev1:  c.String("dev1"),
			Port1: c.String("port1"),
			Dev2:  c.String("dev2"),
			Port2: c.String("port2"),
		}
		if link.Dev1 == "" || link.Port1 == "" || link.Dev2 == "" || link.Port2 == "" {
			return fmt.Errorf("link add needs all of --dev1 --port1 --dev2 --port2, or none for the wizard")
		}
		if err := cfg.AddLink(link); err != nil {
			return err
		}
	} else {
		link, err = wizardLink(c, cfg)
		if err != nil {
			return err
		}
	}

	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Added link: %s\n", link)
	return nil
}

func wizardLink(c *cli.Context, cfg *config.Config) (model.Link, error) {
	// Port lists come from the API, but a map of only cloud/pseudo
	// nodes can still be wired up offline.
	client, err := apiClient(c, cfg)
	if err != nil {
		slog.Debug("no API client for wizard", "error", err)
		client = nil
	}

	term, err := editor.NewTerminal()
	if err != nil {
		return model.Link{}, err
	}
	defer term.Close()

	return editor.NewWizard(term, client).AddLink(c.Context, &cfg.Document)
}

func runLinkDelete(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf(`usage: link rm "dev1:port1 -- dev2:port2"`)
	}
	link, err := model.ParseLink(strings.TrimSpace(c.Args().First()))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.DeleteLink(link); err != nil {
		return err
	}
	return cfg.Save()
}
