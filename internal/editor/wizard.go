// Package editor implements the interactive editing flows as sequential
// wizards over a Prompter, independent of any UI toolkit.
package editor

import (
	"context"
	"fmt"
	"sort"

	"weathermap/internal/librenms"
	"weathermap/internal/model"
	"weathermap/internal/topology"
)

// Wizard runs multi-step editing flows. The client may be nil when every
// device involved is unmanaged.
type Wizard struct {
	prompt Prompter
	client *librenms.Client
}

// NewWizard creates a wizard.
func NewWizard(p Prompter, client *librenms.Client) *Wizard {
	return &Wizard{prompt: p, client: client}
}

// AddLink walks the device → port → device → port chain and appends the
// resulting link to the document. Ports on managed devices are picked
// from the live API port list; cloud and pseudo nodes get a free-text
// virtual port name.
func (w *Wizard) AddLink(ctx context.Context, doc *topology.Document) (model.Link, error) {
	dev1, err := w.pickDevice(doc, "First device:", "")
	if err != nil {
		return model.Link{}, err
	}
	port1, err := w.pickPort(ctx, dev1)
	if err != nil {
		return model.Link{}, err
	}
	dev2, err := w.pickDevice(doc, "Second device:", dev1.Key)
	if err != nil {
		return model.Link{}, err
	}
	port2, err := w.pickPort(ctx, dev2)
	if err != nil {
		return model.Link{}, err
	}

	link := model.Link{Dev1: dev1.Key, Port1: port1, Dev2: dev2.Key, Port2: port2}
	if err := doc.AddLink(link); err != nil {
		return model.Link{}, err
	}
	return link, nil
}

func (w *Wizard) pickDevice(doc *topology.Document, label, exclude string) (model.Device, error) {
	var keys []string
	for _, d := range doc.Devices {
		if d.Key != exclude {
			keys = append(keys, d.Key)
		}
	}
	if len(keys) == 0 {
		return model.Device{}, fmt.Errorf("no devices to pick from")
	}
	sort.Strings(keys)

	key, err := w.prompt.Select(label, keys)
	if err != nil {
		return model.Device{}, err
	}
	dev, ok := doc.Device(key)
	if !ok {
		return model.Device{}, fmt.Errorf("no such device %s", key)
	}
	return dev, nil
}

func (w *Wizard) pickPort(ctx context.Context, dev model.Device) (string, error) {
	switch dev.Kind {
	case model.KindCloud:
		return w.prompt.Input(fmt.Sprintf("Virtual port on %s", dev.Key), "wan")
	case model.KindPseudo:
		return w.prompt.Input(fmt.Sprintf("Virtual port on %s", dev.Key), "link")
	}

	if w.client == nil {
		return "", fmt.Errorf("no API client to list ports for %s", dev.Host)
	}
	ports, err := w.client.Ports(ctx, dev.Host)
	if err != nil {
		return "", fmt.Errorf("fetching ports for %s: %w", dev.Host, err)
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("device %s has no ports", dev.Host)
	}

	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.IfName)
	}
	sort.Strings(names)
	return w.prompt.Select(fmt.Sprintf("Port on %s:", dev.Key), names)
}
