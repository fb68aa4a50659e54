package render

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// scaleStops is the utilization gradient, green (idle) through yellow to
// deep red (saturated), matching the matplotlib RdYlGn_r ramp.
var scaleStops = []string{
	"#006837", "#1a9850", "#66bd63", "#a6d96a", "#d9ef8b", "#ffffbf",
	"#fee08b", "#fdae61", "#f46d43", "#d73027", "#a50026",
}

// Scale maps a rate in Mbit/s onto the utilization gradient, clamped to
// the configured [Min, Max] bounds.
type Scale struct {
	Min, Max float64
	stops    []colorful.Color
}

// NewScale builds a scale between the given bounds. A degenerate range
// (Max <= Min) clamps everything to Min.
func NewScale(min, max float64) *Scale {
	s := &Scale{Min: min, Max: max}
	s.stops = make([]colorful.Color, len(scaleStops))
	for i, hex := range scaleStops {
		c, err := colorful.Hex(hex)
		if err != nil {
			panic("render: bad scale stop " + hex)
		}
		s.stops[i] = c
	}
	return s
}

// Color returns the gradient color for a value, blending adjacent stops
// in Lab space.
func (s *Scale) Color(v float64) colorful.Color {
	t := 0.0
	if s.Max > s.Min {
		t = (v - s.Min) / (s.Max - s.Min)
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	segs := float64(len(s.stops) - 1)
	pos := t * segs
	i := int(pos)
	if i >= len(s.stops)-1 {
		return s.stops[len(s.stops)-1]
	}
	frac := pos - float64(i)
	if frac == 0 {
		return s.stops[i]
	}
	return s.stops[i].BlendLab(s.stops[i+1], frac).Clamped()
}

// namedColors covers the color names the settings section accepts, the
// usual matplotlib/X11 set. Anything else must be given as #rrggbb.
var namedColors = map[string]string{
	"white":       "#ffffff",
	"black":       "#000000",
	"red":         "#ff0000",
	"green":       "#008000",
	"blue":        "#0000ff",
	"yellow":      "#ffff00",
	"orange":      "#ffa500",
	"cyan":        "#00ffff",
	"magenta":     "#ff00ff",
	"gray":        "#808080",
	"grey":        "#808080",
	"pink":        "#ffc0cb",
	"gold":        "#ffd700",
	"violet":      "#ee82ee",
	"salmon":      "#fa8072",
	"skyblue":     "#87ceeb",
	"lightblue":   "#add8e6",
	"lightgreen":  "#90ee90",
	"lightgray":   "#d3d3d3",
	"lightgrey":   "#d3d3d3",
	"lightyellow": "#ffffe0",
	"lightpink":   "#ffb6c1",
	"lightcyan":   "#e0ffff",
}

// ParseColor resolves a settings color value, either a known name or a
// hex string.
func ParseColor(s string) (colorful.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[name]; ok {
		name = hex
	}
	c, err := colorful.Hex(name)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("unknown color %q", s)
	}
	return c, nil
}
