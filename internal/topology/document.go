// Package topology holds the editable device/link document and its
// mutation rules: device keys are unique, links may only reference
// existing devices, renaming a device follows through to its links, and
// deleting a device cascades to every link touching it.
package topology

import (
	"fmt"

	"weathermap/internal/model"
)

// Document is the in-memory device and link set. Both slices keep their
// configuration order, which the renderer relies on for stable parallel
// link curvature.
type Document struct {
	Devices []model.Device
	Links   []model.Link
}

// Device returns the device with the given key, if present.
func (d *Document) Device(key string) (model.Device, bool) {
	if i := d.index(key); i >= 0 {
		return d.Devices[i], true
	}
	return model.Device{}, false
}

func (d *Document) index(key string) int {
	for i, dev := range d.Devices {
		if dev.Key == key {
			return i
		}
	}
	return -1
}

// AddDevice appends a device. The key must be unused.
func (d *Document) AddDevice(dev model.Device) error {
	if dev.Key == "" {
		return fmt.Errorf("device key must not be empty")
	}
	if d.index(dev.Key) >= 0 {
		return fmt.Errorf("device %s already exists", dev.Key)
	}
	d.Devices = append(d.Devices, dev)
	return nil
}

// MoveDevice updates a device's position.
func (d *Document) MoveDevice(key string, x, y float64) error {
	i := d.index(key)
	if i < 0 {
		return fmt.Errorf("no such device %s", key)
	}
	d.Devices[i].X = x
	d.Devices[i].Y = y
	return nil
}

// RenameDevice changes a device key and rewrites every link that
// references it. Links between other devices are untouched.
func (d *Document) RenameDevice(oldKey, newKey string) error {
	i := d.index(oldKey)
	if i < 0 {
		return fmt.Errorf("no such device %s", oldKey)
	}
	if newKey == "" {
		return fmt.Errorf("device key must not be empty")
	}
	if newKey != oldKey && d.index(newKey) >= 0 {
		return fmt.Errorf("device %s already exists", newKey)
	}
	d.Devices[i].Key = newKey
	for j := range d.Links {
		if d.Links[j].Dev1 == oldKey {
			d.Links[j].Dev1 = newKey
		}
		if d.Links[j].Dev2 == oldKey {
			d.Links[j].Dev2 = newKey
		}
	}
	return nil
}

// DeleteDevice removes a device and every link touching it, returning
// how many links were dropped.
func (d *Document) DeleteDevice(key string) (int, error) {
	i := d.index(key)
	if i < 0 {
		return 0, fmt.Errorf("no such device %s", key)
	}
	d.Devices = append(d.Devices[:i], d.Devices[i+1:]...)

	kept := d.Links[:0]
	dropped := 0
	for _, l := range d.Links {
		if l.Touches(key) {
			dropped++
			continue
		}
		kept = append(kept, l)
	}
	d.Links = kept
	return dropped, nil
}

// AddLink appends a link after checking that both device keys exist.
// Parallel links between the same pair are allowed.
func (d *Document) AddLink(l model.Link) error {
	if d.index(l.Dev1) < 0 {
		return fmt.Errorf("link references unknown device %s", l.Dev1)
	}
	if d.index(l.Dev2) < 0 {
		return fmt.Errorf("link references unknown device %s", l.Dev2)
	}
	d.Links = append(d.Links, l)
	return nil
}

// HasLink reports whether an equivalent link exists in either
// orientation.
func (d *Document) HasLink(l model.Link) bool {
	rev := model.Link{Dev1: l.Dev2, Port1: l.Port2, Dev2: l.Dev1, Port2: l.Port1}
	for _, have := range d.Links {
		if have == l || have == rev {
			return true
		}
	}
	return false
}

// DeleteLink removes the first link matching l in either orientation.
func (d *Document) DeleteLink(l model.Link) error {
	rev := model.Link{Dev1: l.Dev2, Port1: l.Port2, Dev2: l.Dev1, Port2: l.Port1}
	for i, have := range d.Links {
		if have == l || have == rev {
			d.Links = append(d.Links[:i], d.Links[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no such link %s", l)
}

// RemoveUnlinked drops every device that no link references and returns
// the removed keys.
func (d *Document) RemoveUnlinked() []string {
	linked := make(map[string]bool, len(d.Devices))
	for _, l := range d.Links {
		linked[l.Dev1] = true
		linked[l.Dev2] = true
	}

	var removed []string
	kept := d.Devices[:0]
	for _, dev := range d.Devices {
		if linked[dev.Key] {
			kept = append(kept, dev)
			continue
		}
		removed = append(removed, dev.Key)
	}
	d.Devices = kept
	return removed
}
