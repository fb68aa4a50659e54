package discover

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weathermap/internal/librenms"
	"weathermap/internal/model"
	"weathermap/internal/topology"
)

// The fake serves two routers joined by a /30 transit net, plus a /24
// LAN shared with a third address (ambiguous, must be ignored).
func discoveryServer(t *testing.T) *librenms.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v0/devices/rtr-a/ip":
			fmt.Fprint(w, `{"addresses": [
				{"ipv4_address": "10.0.0.1", "ipv4_prefixlen": 30, "port_id": 101},
				{"ipv4_address": "192.168.1.1", "ipv4_prefixlen": 24, "port_id": 102}
			]}`)
		case "/api/v0/devices/rtr-a/ports":
			fmt.Fprint(w, `{"ports": [
				{"port_id": 101, "ifName": "xe-0/0/0"},
				{"port_id": 102, "ifName": "eth1"}
			]}`)
		case "/api/v0/devices/rtr-b/ip":
			fmt.Fprint(w, `{"addresses": [
				{"ipv4_address": "10.0.0.2", "ipv4_prefixlen": 30, "port_id": 201},
				{"ipv4_address": "192.168.1.2", "ipv4_prefixlen": 24, "port_id": 202}
			]}`)
		case "/api/v0/devices/rtr-b/ports":
			fmt.Fprint(w, `{"ports": [
				{"port_id": 201, "ifName": "xe-0/0/1"},
				{"port_id": 202, "ifName": "eth2"}
			]}`)
		case "/api/v0/devices/sw-c/ip":
			fmt.Fprint(w, `{"addresses": [
				{"ipv4_address": "192.168.1.3", "ipv4_prefixlen": 24, "port_id": 301}
			]}`)
		case "/api/v0/devices/sw-c/ports":
			fmt.Fprint(w, `{"ports": [{"port_id": 301, "ifName": "vlan1"}]}`)
		default:
			http.Error(w, "device unreachable", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return librenms.New(srv.URL, "tok", false)
}

func managedDevices() []model.Device {
	return []model.Device{
		{Key: "a", Kind: model.KindManaged, Host: "rtr-a"},
		{Key: "b", Kind: model.KindManaged, Host: "rtr-b"},
		{Key: "c", Kind: model.KindManaged, Host: "sw-c"},
	}
}

func TestLinks(t *testing.T) {
	client := discoveryServer(t)

	links, problems := Links(context.Background(), client, managedDevices(), 30)
	assert.Empty(t, problems)
	require.Len(t, links, 1)

	// Sorted host order puts rtr-a first.
	assert.Equal(t, "a", links[0].Dev1)
	assert.Equal(t, "xe-0/0/0", links[0].Port1)
	assert.Equal(t, "b", links[0].Dev2)
	assert.Equal(t, "xe-0/0/1", links[0].Port2)
}

func TestLinksRespectsMaxPrefix(t *testing.T) {
	client := discoveryServer(t)

	links, problems := Links(context.Background(), client, managedDevices(), 29)
	assert.Empty(t, problems)
	assert.Empty(t, links, "a /30 must not match with max-prefix 29")
}

func TestLinksWidePrefixCatchesLAN(t *testing.T) {
	client := discoveryServer(t)

	// Drop sw-c so the /24 only has two endpoints left. The /30 transit
	// net is now over the prefix limit and must not match.
	devices := managedDevices()[:2]
	links, problems := Links(context.Background(), client, devices, 24)
	assert.Empty(t, problems)
	require.Len(t, links, 1)
	assert.Equal(t, "eth1", links[0].Port1)
	assert.Equal(t, "eth2", links[0].Port2)
}

func TestLinksSkipsUnmanagedAndContinuesPastFailures(t *testing.T) {
	client := discoveryServer(t)

	devices := append(managedDevices(),
		model.Device{Key: "isp", Kind: model.KindCloud, Name: "ISP"},
		model.Device{Key: "down", Kind: model.KindManaged, Host: "down-rtr"},
	)

	links, problems := Links(context.Background(), client, devices, 30)
	require.Len(t, problems, 1)
	assert.Equal(t, "down-rtr", problems[0].Entity)
	require.Len(t, links, 1)
}

func TestMerge(t *testing.T) {
	doc := &topology.Document{
		Devices: []model.Device{
			{Key: "a", Kind: model.KindManaged, Host: "rtr-a"},
			{Key: "b", Kind: model.KindManaged, Host: "rtr-b"},
		},
		Links: []model.Link{
			{Dev1: "b", Port1: "xe-0/0/1", Dev2: "a", Port2: "xe-0/0/0"},
		},
	}

	candidates := []model.Link{
		// Already present in the other orientation.
		{Dev1: "a", Port1: "xe-0/0/0", Dev2: "b", Port2: "xe-0/0/1"},
		// New.
		{Dev1: "a", Port1: "eth1", Dev2: "b", Port2: "eth2"},
		// References a device not in the document.
		{Dev1: "a", Port1: "eth9", Dev2: "ghost", Port2: "eth0"},
	}

	added := Merge(doc, candidates)
	assert.Equal(t, 1, added)
	assert.Len(t, doc.Links, 2)
}

func TestPlaceAll(t *testing.T) {
	doc := &topology.Document{
		Devices: []model.Device{
			{Key: "existing", Kind: model.KindManaged, Host: "rtr-a", X: 42, Y: 42},
		},
	}

	infos := []librenms.DeviceInfo{
		{Hostname: "rtr-a", SysName: "RTR-A"}, // already placed
		{Hostname: "rtr-b", SysName: "RTR-B"},
		{Hostname: "sw-c", SysName: ""}, // falls back to hostname
	}

	added := PlaceAll(doc, infos)
	assert.Equal(t, 2, added)
	require.Len(t, doc.Devices, 3)

	b := doc.Devices[1]
	assert.Equal(t, "RTR-B", b.Key)
	assert.Equal(t, 100.0, b.X)
	assert.Equal(t, 100.0, b.Y)

	c := doc.Devices[2]
	assert.Equal(t, "sw-c", c.Key)
	assert.Equal(t, 250.0, c.X)
	assert.Equal(t, 100.0, c.Y)
}
