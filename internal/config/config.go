// Package config handles loading, validating and saving the weathermap
// configuration file.
//
// The file is INI-style with five sections: [librenms] holds the API URL
// and token, [devices] maps device keys to hostnames (or "cloud:"/"pseudo:"
// tagged placeholders), [positions] holds {key}_x / {key}_y floats,
// [links] holds "dev1:port1 -- dev2:port2" strings keyed linkN, and
// [settings] holds rendering options.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/ini.v1"

	"weathermap/internal/model"
	"weathermap/internal/topology"
)

// envVarPattern matches ${VAR_NAME} placeholders in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ErrNotFound is returned by Load when the config file does not exist.
var ErrNotFound = errors.New("config file not found")

// ErrMissingCredentials is returned by Validate when the LibreNMS URL or
// token is unset. Nothing that talks to the API may proceed without them.
var ErrMissingCredentials = errors.New("librenms.url and librenms.token must be set")

// API holds the LibreNMS connection settings.
type API struct {
	URL   string
	Token string
}

// Settings are the rendering options from [settings], with defaults
// applied for anything absent.
type Settings struct {
	MinUtil         float64 // color scale lower bound, Mbit/s
	MaxUtil         float64 // color scale upper bound, Mbit/s
	NodeSize        int
	FigWidth        float64 // inches
	FigHeight       float64 // inches
	DPI             int
	NodeColor       string
	CloudNodeColor  string
	PseudoNodeColor string
	HistoryDB       string // path; empty disables the history store
	HistoryDays     int    // history retention
}

// Alerts configures serve-mode alerting from the [alerts] section. A zero
// ThresholdMbps disables link saturation alerts; alerts only leave the
// process when at least one provider URL is set.
type Alerts struct {
	ThresholdMbps float64
	Severity      string
	Cooldown      time.Duration
	WebhookURL    string
	WebhookMethod string
	NtfyURL       string
	NtfyTopic     string
	// MapURL is where the served map can be viewed; notifications link
	// back to it when set.
	MapURL string
}

// Config is one loaded weathermap configuration. Devices and Links keep
// the file order. Mutations happen in memory; Save replaces the
// [devices], [positions] and [links] sections wholesale while leaving
// everything else in the file untouched.
type Config struct {
	topology.Document

	Path     string
	API      API
	Settings Settings
	Alerts   Alerts

	// Warnings collects malformed entries skipped during Load.
	Warnings []model.Problem

	file *ini.File
}

func defaults() Settings {
	return Settings{
		MinUtil:         0,
		MaxUtil:         1000,
		NodeSize:        20,
		FigWidth:        16,
		FigHeight:       12,
		DPI:             100,
		NodeColor:       "lightblue",
		CloudNodeColor:  "lightgray",
		PseudoNodeColor: "lightyellow",
		HistoryDays:     30,
	}
}

func defaultAlerts() Alerts {
	return Alerts{
		Severity: "warning",
		Cooldown: time.Hour,
	}
}

var iniOpts = ini.LoadOptions{
	// Interface names may contain # and ; in the wild.
	IgnoreInlineComment: true,
}

// New returns an empty configuration bound to path, used when the file
// does not exist yet.
func New(path string) *Config {
	return &Config{
		Path:     path,
		Settings: defaults(),
		Alerts:   defaultAlerts(),
		file:     ini.Empty(iniOpts),
	}
}

// Load reads and parses the configuration at path. Malformed links and
// dangling position entries are skipped and recorded in Warnings; only an
// unreadable file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	f, err := ini.LoadSources(iniOpts, expandEnvVars(data))
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg := &Config{Path: path, Settings: defaults(), Alerts: defaultAlerts(), file: f}

	nms := f.Section("librenms")
	cfg.API.URL = nms.Key("url").String()
	cfg.API.Token = nms.Key("token").String()
	applyEnvOverrides(&cfg.API)

	cfg.loadSettings(f.Section("settings"))
	cfg.loadAlerts(f.Section("alerts"))

	pos := f.Section("positions")
	for _, key := range f.Section("devices").Keys() {
		x := pos.Key(key.Name() + "_x").MustFloat64(0)
		y := pos.Key(key.Name() + "_y").MustFloat64(0)
		cfg.Devices = append(cfg.Devices, model.NewDevice(key.Name(), key.Value(), x, y))
	}

	for _, key := range f.Section("links").Keys() {
		link, err := model.ParseLink(key.Value())
		if err != nil {
			cfg.warn(key.Name(), err.Error())
			continue
		}
		cfg.Links = append(cfg.Links, link)
	}

	return cfg, nil
}

func (c *Config) warn(entity, reason string) {
	slog.Warn("skipping config entry", "entity", entity, "reason", reason)
	c.Warnings = append(c.Warnings, model.Problem{Entity: entity, Reason: reason})
}

func (c *Config) loadSettings(sec *ini.Section) {
	s := &c.Settings
	s.MinUtil = sec.Key("min_util").MustFloat64(s.MinUtil)
	s.MaxUtil = sec.Key("max_util").MustFloat64(s.MaxUtil)
	s.NodeSize = sec.Key("node_size").MustInt(s.NodeSize)
	s.FigWidth = sec.Key("fig_width").MustFloat64(s.FigWidth)
	s.FigHeight = sec.Key("fig_height").MustFloat64(s.FigHeight)
	s.DPI = sec.Key("dpi").MustInt(s.DPI)
	s.NodeColor = sec.Key("node_color").MustString(s.NodeColor)
	s.CloudNodeColor = sec.Key("cloud_node_color").MustString(s.CloudNodeColor)
	s.PseudoNodeColor = sec.Key("pseudo_node_color").MustString(s.PseudoNodeColor)
	s.HistoryDB = sec.Key("history_db").MustString(s.HistoryDB)
	s.HistoryDays = sec.Key("history_days").MustInt(s.HistoryDays)
}

func (c *Config) loadAlerts(sec *ini.Section) {
	a := &c.Alerts
	a.ThresholdMbps = sec.Key("threshold_mbps").MustFloat64(a.ThresholdMbps)
	a.Severity = sec.Key("severity").MustString(a.Severity)
	a.WebhookURL = sec.Key("webhook_url").MustString(a.WebhookURL)
	a.WebhookMethod = sec.Key("webhook_method").MustString(a.WebhookMethod)
	a.NtfyURL = sec.Key("ntfy_url").MustString(a.NtfyURL)
	a.NtfyTopic = sec.Key("ntfy_topic").MustString(a.NtfyTopic)
	a.MapURL = sec.Key("map_url").MustString(a.MapURL)

	if raw := sec.Key("cooldown").String(); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			c.warn("alerts.cooldown", fmt.Sprintf("bad duration %q: %v", raw, err))
		} else {
			a.Cooldown = d
		}
	}
}

// Validate checks that API credentials are present. Everything else has a
// usable default.
func (c *Config) Validate() error {
	if c.API.URL == "" || c.API.Token == "" {
		return ErrMissingCredentials
	}
	return nil
}

// SetSetting writes one raw [settings] key, persisted on the next Save.
func (c *Config) SetSetting(key, value string) {
	c.file.Section("settings").Key(key).SetValue(value)
	c.loadSettings(c.file.Section("settings"))
}

// SetAPI writes the [librenms] section.
func (c *Config) SetAPI(api API) {
	c.API = api
	sec := c.file.Section("librenms")
	sec.Key("url").SetValue(api.URL)
	sec.Key("token").SetValue(api.Token)
}

// Save writes the configuration back to its path. The [devices],
// [positions] and [links] sections are rebuilt from scratch on every
// save; link keys are renumbered link1..linkN in order.
func (c *Config) Save() error {
	for _, name := range []string{"devices", "positions", "links"} {
		c.file.DeleteSection(name)
	}

	devSec := c.file.Section("devices")
	posSec := c.file.Section("positions")
	for _, d := range c.Devices {
		devSec.Key(d.Key).SetValue(d.HostField())
		posSec.Key(d.Key + "_x").SetValue(strconv.FormatFloat(d.X, 'f', -1, 64))
		posSec.Key(d.Key + "_y").SetValue(strconv.FormatFloat(d.Y, 'f', -1, 64))
	}

	linkSec := c.file.Section("links")
	for i, l := range c.Links {
		linkSec.Key(fmt.Sprintf("link%d", i+1)).SetValue(l.String())
	}

	if err := c.file.SaveTo(c.Path); err != nil {
		return fmt.Errorf("saving config %s: %w", c.Path, err)
	}
	return nil
}

// expandEnvVars replaces ${VAR_NAME} placeholders with environment
// variable values, so tokens can live outside the file.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		key := string(match[2 : len(match)-1])
		return []byte(os.Getenv(key))
	})
}

func applyEnvOverrides(api *API) {
	if v := os.Getenv("WEATHERMAP_URL"); v != "" {
		api.URL = v
	}
	if v := os.Getenv("WEATHERMAP_TOKEN"); v != "" {
		api.Token = v
	}
}
