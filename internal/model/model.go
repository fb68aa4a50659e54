// Package model defines the shared domain types for the weathermap.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NodeKind classifies a device on the map.
type NodeKind int

const (
	// KindManaged is a host monitored by LibreNMS, queryable via its API.
	KindManaged NodeKind = iota
	// KindCloud is a placeholder for an unmonitored external endpoint
	// (e.g. an ISP). Never queried.
	KindCloud
	// KindPseudo is a junction point used to fan one link out into
	// several. Never queried.
	KindPseudo
)

func (k NodeKind) String() string {
	switch k {
	case KindCloud:
		return "cloud"
	case KindPseudo:
		return "pseudo"
	default:
		return "managed"
	}
}

// Managed reports whether the kind has an API identity behind it.
func (k NodeKind) Managed() bool { return k == KindManaged }

// Device is one node on the map. Key is the user-chosen identifier and is
// unique within a document. For managed devices Host is the LibreNMS
// hostname; for cloud and pseudo nodes Host is empty and Name carries the
// display name. The kind is fixed at creation.
type Device struct {
	Key  string
	Kind NodeKind
	Host string
	Name string
	X    float64
	Y    float64
}

// HostField renders the device's hostname-or-placeholder string as stored
// in the [devices] config section: plain hostname for managed devices,
// "cloud:<name>" / "pseudo:<name>" for the rest.
func (d Device) HostField() string {
	switch d.Kind {
	case KindCloud:
		return "cloud:" + d.Name
	case KindPseudo:
		return "pseudo:" + d.Name
	default:
		return d.Host
	}
}

// Label is the text drawn on the map for this device.
func (d Device) Label() string { return strings.ToUpper(d.Key) }

// ParseHostField decodes a [devices] value into kind plus payload.
func ParseHostField(s string) (NodeKind, string) {
	if name, ok := strings.CutPrefix(s, "cloud:"); ok {
		return KindCloud, name
	}
	if name, ok := strings.CutPrefix(s, "pseudo:"); ok {
		return KindPseudo, name
	}
	return KindManaged, s
}

// NewDevice builds a device from its config representation.
func NewDevice(key, hostField string, x, y float64) Device {
	kind, payload := ParseHostField(hostField)
	d := Device{Key: key, Kind: kind, X: x, Y: y}
	if kind == KindManaged {
		d.Host = payload
	} else {
		d.Name = payload
	}
	return d
}

// Link joins two devices by key, with an interface name on each side.
// Parallel links between the same device pair are allowed and are told
// apart by their port pairs.
type Link struct {
	Dev1  string
	Port1 string
	Dev2  string
	Port2 string
}

// linkSep separates the two endpoints in the [links] config syntax.
const linkSep = " -- "

// String renders the link in config syntax: "dev1:port1 -- dev2:port2".
func (l Link) String() string {
	return l.Dev1 + ":" + l.Port1 + linkSep + l.Dev2 + ":" + l.Port2
}

// Touches reports whether the link references the given device key.
func (l Link) Touches(key string) bool { return l.Dev1 == key || l.Dev2 == key }

// PairKey returns the unordered device pair, used to group parallel links.
func (l Link) PairKey() [2]string {
	if l.Dev1 <= l.Dev2 {
		return [2]string{l.Dev1, l.Dev2}
	}
	return [2]string{l.Dev2, l.Dev1}
}

// ParseLink decodes the "dev1:port1 -- dev2:port2" config syntax. Port
// names may themselves contain colons; only the first one splits.
func ParseLink(s string) (Link, error) {
	left, right, ok := strings.Cut(s, linkSep)
	if !ok {
		return Link{}, fmt.Errorf("malformed link %q: missing %q separator", s, linkSep)
	}
	d1, p1, ok := strings.Cut(strings.TrimSpace(left), ":")
	if !ok || d1 == "" || p1 == "" {
		return Link{}, fmt.Errorf("malformed link %q: bad endpoint %q", s, left)
	}
	d2, p2, ok := strings.Cut(strings.TrimSpace(right), ":")
	if !ok || d2 == "" || p2 == "" {
		return Link{}, fmt.Errorf("malformed link %q: bad endpoint %q", s, right)
	}
	return Link{Dev1: d1, Port1: p1, Dev2: d2, Port2: p2}, nil
}

// Number is a float64 that also accepts JSON strings and null. LibreNMS
// emits numeric columns as numbers or quoted strings depending on the
// backing database.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing number %q: %w", string(data), err)
	}
	*n = Number(f)
	return nil
}

// PortSample is one interface counter sample fetched from LibreNMS.
// Rate and delta fields are nil when the column is absent or null.
type PortSample struct {
	IfName     string  `json:"ifName"`
	InRate     *Number `json:"ifInOctets_rate"`
	OutRate    *Number `json:"ifOutOctets_rate"`
	InDelta    *Number `json:"ifInOctets_delta"`
	OutDelta   *Number `json:"ifOutOctets_delta"`
	PollPeriod float64 `json:"poll_period"`
}

// UnmarshalJSON keeps nil for fields that arrive as JSON null, which the
// default decoder would otherwise also do, but normalizes poll_period
// arriving as a string.
func (p *PortSample) UnmarshalJSON(data []byte) error {
	type alias struct {
		IfName     string  `json:"ifName"`
		InRate     *Number `json:"ifInOctets_rate"`
		OutRate    *Number `json:"ifOutOctets_rate"`
		InDelta    *Number `json:"ifInOctets_delta"`
		OutDelta   *Number `json:"ifOutOctets_delta"`
		PollPeriod *Number `json:"poll_period"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	p.IfName = a.IfName
	p.InRate = a.InRate
	p.OutRate = a.OutRate
	p.InDelta = a.InDelta
	p.OutDelta = a.OutDelta
	if a.PollPeriod != nil {
		p.PollPeriod = float64(*a.PollPeriod)
	} else {
		p.PollPeriod = 0
	}
	return nil
}

// PortKey indexes a sample by hostname and interface name.
func PortKey(host, ifName string) string { return host + ":" + ifName }

// Problem records one recoverable per-entity failure. Problems accumulate
// while the run continues with partial data.
type Problem struct {
	Entity string
	Reason string
}

func (p Problem) String() string { return p.Entity + ": " + p.Reason }

// Notification is an alert event handed to notify providers.
type Notification struct {
	AlertType string            `json:"alert_type"`
	Severity  string            `json:"severity"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Subject   string            `json:"subject"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Resolved  bool              `json:"resolved,omitempty"`
}
