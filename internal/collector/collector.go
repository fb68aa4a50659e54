// Package collector fetches the per-device and per-port data a render
// needs from LibreNMS. One snapshot per run; samples are never persisted
// here.
package collector

import (
	"context"
	"fmt"
	"log/slog"

	"weathermap/internal/librenms"
	"weathermap/internal/model"
)

// Snapshot holds everything fetched for a single render pass.
type Snapshot struct {
	// Devices holds the managed devices that answered, by hostname.
	Devices map[string]librenms.DeviceInfo
	// Ports holds counter samples keyed by model.PortKey(host, ifName).
	Ports map[string]model.PortSample
}

// Collector drives the fetch. All requests run sequentially; a failure
// for one device is recorded and the rest of the run continues.
type Collector struct {
	client *librenms.Client
}

// New creates a collector on top of an API client.
func New(client *librenms.Client) *Collector {
	return &Collector{client: client}
}

// Collect fetches device records and port counters for every managed
// device in the list. Cloud and pseudo nodes have no API identity and
// are never queried. Returned problems are per-device failures; the
// snapshot still covers everything that succeeded.
func (c *Collector) Collect(ctx context.Context, devices []model.Device) (*Snapshot, []model.Problem) {
	snap := &Snapshot{
		Devices: make(map[string]librenms.DeviceInfo),
		Ports:   make(map[string]model.PortSample),
	}
	var problems []model.Problem

	for _, dev := range devices {
		if !dev.Kind.Managed() {
			continue
		}
		if _, done := snap.Devices[dev.Host]; done {
			continue
		}

		info, err := c.client.Device(ctx, dev.Host)
		if err != nil {
			slog.Error("fetching device", "host", dev.Host, "error", err)
			problems = append(problems, model.Problem{
				Entity: dev.Host,
				Reason: fmt.Sprintf("fetching device: %v", err),
			})
			continue
		}
		snap.Devices[dev.Host] = info

		ports, err := c.client.PortCounters(ctx, dev.Host)
		if err != nil {
			slog.Error("fetching ports", "host", dev.Host, "error", err)
			problems = append(problems, model.Problem{
				Entity: dev.Host,
				Reason: fmt.Sprintf("fetching ports: %v", err),
			})
			continue
		}
		for _, p := range ports {
			snap.Ports[model.PortKey(dev.Host, p.IfName)] = p
		}
	}

	slog.Debug("snapshot collected", "devices", len(snap.Devices), "ports", len(snap.Ports), "problems", len(problems))
	return snap, problems
}
