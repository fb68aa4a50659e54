// Package alert evaluates rules against each render's results and sends
// notifications.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"weathermap/internal/config"
	"weathermap/internal/model"
	"weathermap/internal/notify"
	"weathermap/internal/utilization"
)

// Alerter checks link saturation and device reachability after each
// render pass. Fired alerts are deduplicated per subject with a cooldown.
type Alerter struct {
	providers []notify.Provider
	cfg       config.Alerts

	// lastFired maps alert key to the time it last fired.
	lastFired map[string]time.Time
}

// New creates an alerter from the [alerts] config. Returns nil when no
// provider is configured; a nil *Alerter is safe to call.
func New(cfg config.Alerts) *Alerter {
	var providers []notify.Provider
	if cfg.WebhookURL != "" {
		providers = append(providers, notify.NewWebhook(cfg.WebhookURL, cfg.WebhookMethod, cfg.MapURL, nil))
	}
	if cfg.NtfyURL != "" && cfg.NtfyTopic != "" {
		providers = append(providers, notify.NewNtfy(cfg.NtfyURL, cfg.NtfyTopic, cfg.MapURL))
	}
	if len(providers) == 0 {
		return nil
	}
	return &Alerter{
		providers: providers,
		cfg:       cfg,
		lastFired: make(map[string]time.Time),
	}
}

// Evaluate runs all rules against one render's resolved loads and
// collection problems. Every problem handed in is reported as a device
// outage, so callers pass collection failures only, never link
// resolution warnings.
func (a *Alerter) Evaluate(ctx context.Context, loads []utilization.LinkLoad, problems []model.Problem) {
	if a == nil {
		return
	}
	now := time.Now()
	a.cleanup(now)

	if a.cfg.ThresholdMbps > 0 {
		for _, load := range loads {
			peak := max(load.Out1Mbps, load.Out2Mbps)
			if peak < a.cfg.ThresholdMbps {
				continue
			}
			key := "link_saturated:" + load.Link.String()
			a.fire(ctx, now, key, model.Notification{
				AlertType: "link_saturated",
				Severity:  a.cfg.Severity,
				Title:     fmt.Sprintf("Link Saturated: %s -- %s", load.Link.Dev1, load.Link.Dev2),
				Message:   fmt.Sprintf("%s at %.0f Mbit/s (threshold %.0f)", load.Link, peak, a.cfg.ThresholdMbps),
				Subject:   load.Link.String(),
				Timestamp: now,
				Metadata:  map[string]string{"out_mbps": fmt.Sprintf("%.0f", peak)},
			})
		}
	}

	for _, p := range problems {
		key := "device_problem:" + p.Entity
		a.fire(ctx, now, key, model.Notification{
			AlertType: "device_unreachable",
			Severity:  "critical",
			Title:     "Device Unreachable: " + p.Entity,
			Message:   p.String(),
			Subject:   p.Entity,
			Timestamp: now,
		})
	}
}

// cleanup drops dedup state old enough to be irrelevant, bounding the map.
func (a *Alerter) cleanup(now time.Time) {
	maxAge := 6 * time.Hour
	if a.cfg.Cooldown > maxAge {
		maxAge = a.cfg.Cooldown
	}
	for key, t := range a.lastFired {
		if now.Sub(t) > maxAge {
			delete(a.lastFired, key)
		}
	}
}

func (a *Alerter) fire(ctx context.Context, now time.Time, key string, notif model.Notification) {
	if last, ok := a.lastFired[key]; ok && now.Sub(last) < a.cfg.Cooldown {
		return // still in cooldown
	}
	a.lastFired[key] = now

	for _, p := range a.providers {
		if err := p.Send(ctx, notif); err != nil {
			slog.Error("sending notification", "provider", p.Name(), "alert", notif.AlertType, "error", err)
		}
	}

	slog.Warn("alert fired",
		"type", notif.AlertType,
		"severity", notif.Severity,
		"subject", notif.Subject,
		"title", notif.Title,
	)
}
