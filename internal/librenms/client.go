// Package librenms is a minimal client for the LibreNMS REST API,
// covering the endpoints the weathermap needs: device lookup, port
// counters and IP addresses.
package librenms

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"weathermap/internal/model"
)

// counterColumns are the port columns the renderer needs for rate
// derivation.
const counterColumns = "ifName,ifInOctets_rate,ifOutOctets_rate,ifInOctets_delta,ifOutOctets_delta,poll_period"

// APIError is a non-2xx response from LibreNMS.
type APIError struct {
	StatusCode int
	Body       string
	Endpoint   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("API error %d on %s: %s", e.StatusCode, e.Endpoint, body)
}

// Client talks to one LibreNMS instance.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a client. With insecure set, TLS certificate verification
// is disabled.
func New(baseURL, token string, insecure bool) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure},
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", path, err)
	}
	req.Header.Set("X-Auth-Token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // 10 MB max
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Endpoint:   path,
		}
	}
	return body, nil
}

// DeviceInfo is one entry from the LibreNMS device list.
type DeviceInfo struct {
	Hostname string `json:"hostname"`
	SysName  string `json:"sysName"`
}

// Devices lists every device known to LibreNMS.
func (c *Client) Devices(ctx context.Context) ([]DeviceInfo, error) {
	body, err := c.get(ctx, "/api/v0/devices", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Devices []DeviceInfo `json:"devices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing device list: %w", err)
	}
	return resp.Devices, nil
}

// Device fetches a single device by hostname.
func (c *Client) Device(ctx context.Context, host string) (DeviceInfo, error) {
	body, err := c.get(ctx, "/api/v0/devices/"+url.PathEscape(host), nil)
	if err != nil {
		return DeviceInfo{}, err
	}
	var resp struct {
		Devices []DeviceInfo `json:"devices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return DeviceInfo{}, fmt.Errorf("parsing device %s: %w", host, err)
	}
	if len(resp.Devices) == 0 {
		return DeviceInfo{}, fmt.Errorf("device %s not found", host)
	}
	return resp.Devices[0], nil
}

// Port is one interface name entry, with the numeric port id used by the
// IP address listing.
type Port struct {
	PortID int    `json:"port_id"`
	IfName string `json:"ifName"`
}

// Ports lists interface names (and ids) for a device.
func (c *Client) Ports(ctx context.Context, host string) ([]Port, error) {
	q := url.Values{"columns": {"port_id,ifName"}}
	body, err := c.get(ctx, "/api/v0/devices/"+url.PathEscape(host)+"/ports", q)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Ports []Port `json:"ports"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing ports for %s: %w", host, err)
	}
	return resp.Ports, nil
}

// PortCounters fetches per-interface traffic counters for a device.
func (c *Client) PortCounters(ctx context.Context, host string) ([]model.PortSample, error) {
	q := url.Values{"columns": {counterColumns}}
	body, err := c.get(ctx, "/api/v0/devices/"+url.PathEscape(host)+"/ports", q)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Ports []model.PortSample `json:"ports"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing port counters for %s: %w", host, err)
	}
	return resp.Ports, nil
}

// Address is one IPv4 address entry for a device.
type Address struct {
	IPv4Address   string `json:"ipv4_address"`
	IPv4PrefixLen int    `json:"ipv4_prefixlen"`
	PortID        int    `json:"port_id"`
}

// Addresses lists the IPv4 addresses configured on a device.
func (c *Client) Addresses(ctx context.Context, host string) ([]Address, error) {
	body, err := c.get(ctx, "/api/v0/devices/"+url.PathEscape(host)+"/ip", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Addresses []Address `json:"addresses"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing addresses for %s: %w", host, err)
	}
	return resp.Addresses, nil
}
