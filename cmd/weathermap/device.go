package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"weathermap/internal/model"
)

func deviceCommand() *cli.Command {
	posFlags := []cli.Flag{
		&cli.Float64Flag{Name: "x", Value: 100, Usage: "x position"},
		&cli.Float64Flag{Name: "y", Value: 100, Usage: "y position"},
	}

	return &cli.Command{
		Name:    "device",
		Aliases: []string{"dev"},
		Usage:   "manage devices on the map",
		Subcommands: []*cli.Command{
			{
				Name:   "ls",
				Usage:  "list devices",
				Action: runDeviceList,
			},
			{
				Name:  "add",
				Usage: "add a managed device",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "key", Usage: "device key (defaults to hostname)"},
					&cli.StringFlag{Name: "host", Required: true, Usage: "LibreNMS hostname"},
				}, posFlags...),
				Action: runDeviceAdd,
			},
			{
				Name:  "add-cloud",
				Usage: "add an unmanaged cloud node (e.g. ISP, Internet)",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "display name"},
				}, posFlags...),
				Action: runDeviceAddCloud,
			},
			{
				Name:  "add-pseudo",
				Usage: "add a pseudo node (junction point for fan-out)",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "display name"},
				}, posFlags...),
				Action: runDeviceAddPseudo,
			},
			{
				Name:      "move",
				Usage:     "move a device",
				ArgsUsage: "<key>",
				Flags:     posFlags,
				Action:    runDeviceMove,
			},
			{
				Name:      "rename",
				Usage:     "rename a device key, updating its links",
				ArgsUsage: "<old-key> <new-key>",
				Action:    runDeviceRename,
			},
			{
				Name:      "rm",
				Usage:     "delete a device and every link touching it",
				ArgsUsage: "<key>",
				Action:    runDeviceDelete,
			},
			{
				Name:   "prune",
				Usage:  "remove devices no link references",
				Action: runDevicePrune,
			},
		},
	}
}

func runDeviceList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	for _, d := range cfg.Devices {
		fmt.Printf("%-20s %-8s %-30s (%g, %g)\n", d.Key, d.Kind, d.HostField(), d.X, d.Y)
	}
	return nil
}

func runDeviceAdd(c *cli.Context) error {
	key := c.String("key")
	if key == "" {
		key = c.String("host")
	}
	return addDevice(c, model.Device{
		Key:  key,
		Kind: model.KindManaged,
		Host: c.String("host"),
		X:    c.Float64("x"),
		Y:    c.Float64("y"),
	})
}

func runDeviceAddCloud(c *cli.Context) error {
	name := c.String("name")
	return addDevice(c, model.Device{
		Key:  strings.ReplaceAll(name, " ", "_"),
		Kind: model.KindCloud,
		Name: name,
		X:    c.Float64("x"),
		Y:    c.Float64("y"),
	})
}

func runDeviceAddPseudo(c *cli.Context) error {
	name := c.String("name")
	return addDevice(c, model.Device{
		Key:  strings.ReplaceAll(name, " ", "_"),
		Kind: model.KindPseudo,
		Name: name,
		X:    c.Float64("x"),
		Y:    c.Float64("y"),
	})
}

func addDevice(c *cli.Context, dev model.Device) error {
	cfg, err := loadOrCreateConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.AddDevice(dev); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Added %s node %q\n", dev.Kind, dev.Key)
	return nil
}

func runDeviceMove(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: device move <key> --x N --y N")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.MoveDevice(c.Args().First(), c.Float64("x"), c.Float64("y")); err != nil {
		return err
	}
	return cfg.Save()
}

func runDeviceRename(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: device rename <old-key> <new-key>")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.RenameDevice(c.Args().Get(0), c.Args().Get(1)); err != nil {
		return err
	}
	return cfg.Save()
}

func runDeviceDelete(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: device rm <key>")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	dropped, err := cfg.DeleteDevice(c.Args().First())
	if err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Deleted %s and %d link(s)\n", c.Args().First(), dropped)
	return nil
}

func runDevicePrune(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	removed := cfg.RemoveUnlinked()
	if len(removed) == 0 {
		fmt.Println("No unlinked devices found")
		return nil
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Removed %d unlinked device(s): %s\n", len(removed), strings.Join(removed, ", "))
	return nil
}
