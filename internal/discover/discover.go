// Package discover finds links between managed devices from LibreNMS IP
// address data. Two devices whose interfaces share a subnet that holds
// exactly two addresses are assumed to be directly connected; larger
// subnets are ambiguous and ignored.
package discover

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"sort"

	"weathermap/internal/librenms"
	"weathermap/internal/model"
	"weathermap/internal/topology"
)

type endpoint struct {
	host   string
	portID int
}

// Links fetches addresses and port names for every managed device and
// returns candidate links from two-address subnets with a prefix length
// of at most maxPrefix. Per-device fetch failures are collected and the
// scan continues.
func Links(ctx context.Context, client *librenms.Client, devices []model.Device, maxPrefix int) ([]model.Link, []model.Problem) {
	hostToKey := make(map[string]string)
	for _, d := range devices {
		if !d.Kind.Managed() {
			continue
		}
		if _, ok := hostToKey[d.Host]; !ok {
			hostToKey[d.Host] = d.Key
		}
	}

	subnets := make(map[netip.Prefix][]endpoint)
	portNames := make(map[string]map[int]string) // host -> port_id -> ifName
	var problems []model.Problem

	hosts := make([]string, 0, len(hostToKey))
	for h := range hostToKey {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	for _, host := range hosts {
		addrs, err := client.Addresses(ctx, host)
		if err != nil {
			slog.Error("fetching addresses", "host", host, "error", err)
			problems = append(problems, model.Problem{Entity: host, Reason: fmt.Sprintf("fetching addresses: %v", err)})
			continue
		}
		ports, err := client.Ports(ctx, host)
		if err != nil {
			slog.Error("fetching ports", "host", host, "error", err)
			problems = append(problems, model.Problem{Entity: host, Reason: fmt.Sprintf("fetching ports: %v", err)})
			continue
		}

		names := make(map[int]string, len(ports))
		for _, p := range ports {
			names[p.PortID] = p.IfName
		}
		portNames[host] = names

		for _, a := range addrs {
			if a.IPv4Address == "" {
				continue
			}
			ip, err := netip.ParseAddr(a.IPv4Address)
			if err != nil {
				problems = append(problems, model.Problem{Entity: host, Reason: fmt.Sprintf("bad address %q: %v", a.IPv4Address, err)})
				continue
			}
			prefix, err := ip.Prefix(a.IPv4PrefixLen)
			if err != nil {
				problems = append(problems, model.Problem{Entity: host, Reason: fmt.Sprintf("bad prefix /%d on %s: %v", a.IPv4PrefixLen, a.IPv4Address, err)})
				continue
			}
			subnets[prefix] = append(subnets[prefix], endpoint{host: host, portID: a.PortID})
		}
	}

	// Stable candidate order regardless of map iteration.
	prefixes := make([]netip.Prefix, 0, len(subnets))
	for p := range subnets {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool { return prefixes[i].String() < prefixes[j].String() })

	var links []model.Link
	for _, prefix := range prefixes {
		eps := subnets[prefix]
		if len(eps) != 2 || prefix.Bits() > maxPrefix {
			continue
		}
		link := model.Link{
			Dev1:  hostToKey[eps[0].host],
			Port1: portName(portNames, eps[0]),
			Dev2:  hostToKey[eps[1].host],
			Port2: portName(portNames, eps[1]),
		}
		links = append(links, link)
	}
	return links, problems
}

func portName(names map[string]map[int]string, ep endpoint) string {
	if n, ok := names[ep.host][ep.portID]; ok {
		return n
	}
	return "unknown"
}

// Merge adds candidate links into the document, skipping anything
// already present in either orientation or referencing devices outside
// the document. Returns how many links were added.
func Merge(doc *topology.Document, candidates []model.Link) int {
	added := 0
	for _, l := range candidates {
		if doc.HasLink(l) {
			continue
		}
		if err := doc.AddLink(l); err != nil {
			slog.Warn("skipping discovered link", "link", l.String(), "error", err)
			continue
		}
		added++
	}
	return added
}

// PlaceAll adds every fetched device to the document on a coarse grid,
// keyed by upper-cased sysName, skipping hostnames already present.
func PlaceAll(doc *topology.Document, infos []librenms.DeviceInfo) int {
	present := make(map[string]bool, len(doc.Devices))
	for _, d := range doc.Devices {
		if d.Kind.Managed() {
			present[d.Host] = true
		}
	}

	const (
		cols    = 10
		start   = 100.0
		spacing = 150.0
	)
	added := 0
	for _, info := range infos {
		if present[info.Hostname] {
			continue
		}
		key := info.SysName
		if key == "" {
			key = info.Hostname
		}
		dev := model.Device{
			Key:  key,
			Kind: model.KindManaged,
			Host: info.Hostname,
			X:    start + float64(added%cols)*spacing,
			Y:    start + float64(added/cols)*spacing,
		}
		if err := doc.AddDevice(dev); err != nil {
			slog.Warn("skipping fetched device", "key", key, "error", err)
			continue
		}
		present[info.Hostname] = true
		added++
	}
	return added
}
