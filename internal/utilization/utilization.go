// Package utilization derives directional link rates from port counter
// samples.
//
// Each link shows two rates: outbound from side 1 and outbound from
// side 2, each painting one half of the drawn line. Where a rate comes
// from depends on what the endpoints are. Two managed endpoints each
// contribute their own port's outbound counter. A cloud or pseudo
// endpoint has no counters, so both rates come from the managed side's
// single port: what the managed port receives is what the unmanaged
// peer is considered to have sent.
package utilization

import (
	"fmt"

	"weathermap/internal/model"
)

// Direction selects the inbound or outbound counters of a port sample.
type Direction int

const (
	In Direction = iota
	Out
)

// RateMbps derives a directional rate in Mbit/s from a port sample.
// The directly reported octet rate wins when present; otherwise the
// rate is reconstructed from the octet delta over the poll period; with
// neither available the rate is zero.
func RateMbps(p model.PortSample, dir Direction) float64 {
	rate, delta := p.InRate, p.InDelta
	if dir == Out {
		rate, delta = p.OutRate, p.OutDelta
	}
	if rate != nil {
		return float64(*rate) * 8 / 1e6
	}
	if delta != nil && p.PollPeriod > 0 {
		return float64(*delta) * 8 / p.PollPeriod / 1e6
	}
	return 0
}

// LinkLoad is a configured link with both endpoint devices resolved and
// its two directional rates derived.
type LinkLoad struct {
	Link model.Link
	Dev1 model.Device
	Dev2 model.Device
	// Out1Mbps is the outbound rate from side 1 (drawn on the half
	// starting at dev1), Out2Mbps from side 2.
	Out1Mbps float64
	Out2Mbps float64
}

// Resolve derives both directional rates for every link. Links that
// cannot be resolved (dangling device reference, missing port sample,
// or no managed endpoint at all) are skipped and reported as problems;
// nothing here is fatal. Result order follows link order.
func Resolve(devices []model.Device, links []model.Link, ports map[string]model.PortSample) ([]LinkLoad, []model.Problem) {
	byKey := make(map[string]model.Device, len(devices))
	for _, d := range devices {
		byKey[d.Key] = d
	}

	var loads []LinkLoad
	var problems []model.Problem
	skip := func(l model.Link, format string, args ...any) {
		problems = append(problems, model.Problem{
			Entity: l.String(),
			Reason: fmt.Sprintf(format, args...),
		})
	}

	for _, l := range links {
		dev1, ok := byKey[l.Dev1]
		if !ok {
			skip(l, "unknown device %s", l.Dev1)
			continue
		}
		dev2, ok := byKey[l.Dev2]
		if !ok {
			skip(l, "unknown device %s", l.Dev2)
			continue
		}

		load := LinkLoad{Link: l, Dev1: dev1, Dev2: dev2}
		managed1 := dev1.Kind.Managed()
		managed2 := dev2.Kind.Managed()

		switch {
		case !managed1 && !managed2:
			// No data source on either side.
			skip(l, "connects two unmanaged nodes (%s, %s)", dev1.Kind, dev2.Kind)
			continue

		case !managed1:
			// Side 1 is cloud/pseudo: mirror side 2's port.
			key := model.PortKey(dev2.Host, l.Port2)
			sample, ok := ports[key]
			if !ok {
				skip(l, "port %s not found", key)
				continue
			}
			load.Out1Mbps = RateMbps(sample, In)
			load.Out2Mbps = RateMbps(sample, Out)

		case !managed2:
			// Side 2 is cloud/pseudo: mirror side 1's port.
			key := model.PortKey(dev1.Host, l.Port1)
			sample, ok := ports[key]
			if !ok {
				skip(l, "port %s not found", key)
				continue
			}
			load.Out1Mbps = RateMbps(sample, Out)
			load.Out2Mbps = RateMbps(sample, In)

		default:
			key1 := model.PortKey(dev1.Host, l.Port1)
			sample1, ok := ports[key1]
			if !ok {
				skip(l, "port %s not found", key1)
				continue
			}
			key2 := model.PortKey(dev2.Host, l.Port2)
			sample2, ok := ports[key2]
			if !ok {
				skip(l, "port %s not found", key2)
				continue
			}
			load.Out1Mbps = RateMbps(sample1, Out)
			load.Out2Mbps = RateMbps(sample2, Out)
		}

		loads = append(loads, load)
	}

	return loads, problems
}
