// Package render draws the weathermap image: devices at their configured
// positions, links as two half-segments colored by each side's outbound
// utilization, and a colorbar legend.
package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"

	"github.com/fogleman/gg"
	colorful "github.com/lucasb-eyer/go-colorful"

	"weathermap/internal/model"
	"weathermap/internal/utilization"
)

// Options are the rendering knobs from the [settings] section.
type Options struct {
	MinUtil         float64
	MaxUtil         float64
	NodeSize        int
	FigWidth        float64 // inches
	FigHeight       float64 // inches
	DPI             int
	NodeColor       string
	CloudNodeColor  string
	PseudoNodeColor string
}

// Renderer draws one map per call. Not safe for concurrent use.
type Renderer struct {
	opts  Options
	scale *Scale
}

// New creates a renderer.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts, scale: NewScale(opts.MinUtil, opts.MaxUtil)}
}

type point struct{ x, y float64 }

// Render draws devices and resolved links onto a fresh canvas.
func (r *Renderer) Render(devices []model.Device, loads []utilization.LinkLoad) *gg.Context {
	o := r.opts
	w := int(o.FigWidth * float64(o.DPI))
	h := int(o.FigHeight * float64(o.DPI))
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// px converts dpi-100 reference lengths to this canvas.
	px := func(v float64) float64 { return v * float64(o.DPI) / 100 }

	marginL, marginT := px(60), px(60)
	marginB := px(50)
	barSpace := px(160) // right-hand strip reserved for the colorbar
	pos := layout(devices, float64(w)-marginL-barSpace, float64(h)-marginT-marginB, marginL, marginT)

	r.drawLinks(dc, pos, loads, px)
	r.drawNodes(dc, pos, devices, px)
	r.drawColorbar(dc, float64(w)-barSpace+px(30), marginT, px(30), float64(h)-marginT-marginB, px)

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored("Network Topology Map", float64(w)/2, marginT/2, 0.5, 0.5)

	return dc
}

// WritePNG renders and saves the map.
func (r *Renderer) WritePNG(path string, devices []model.Device, loads []utilization.LinkLoad) error {
	dc := r.Render(devices, loads)
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// EncodePNG renders and returns the encoded image.
func (r *Renderer) EncodePNG(devices []model.Device, loads []utilization.LinkLoad) ([]byte, error) {
	dc := r.Render(devices, loads)
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding map image: %w", err)
	}
	return buf.Bytes(), nil
}

// layout maps configured device positions onto canvas pixels. The
// configured y axis grows downward (editor canvas convention), so its
// sign is inverted before fitting, then flipped back by the top-origin
// pixel mapping; each axis scales independently, as matplotlib does.
func layout(devices []model.Device, plotW, plotH, offX, offY float64) map[string]point {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, d := range devices {
		minX, maxX = math.Min(minX, d.X), math.Max(maxX, d.X)
		minY, maxY = math.Min(minY, -d.Y), math.Max(maxY, -d.Y)
	}

	pos := make(map[string]point, len(devices))
	for _, d := range devices {
		fx, fy := 0.5, 0.5
		if maxX > minX {
			fx = (d.X - minX) / (maxX - minX)
		}
		if maxY > minY {
			fy = (-d.Y - minY) / (maxY - minY)
		}
		pos[d.Key] = point{
			x: offX + fx*plotW,
			y: offY + (1-fy)*plotH,
		}
	}
	return pos
}

func (r *Renderer) drawLinks(dc *gg.Context, pos map[string]point, loads []utilization.LinkLoad, px func(float64) float64) {
	// Parallel links between the same pair get increasing curvature,
	// indexed by occurrence order.
	seen := make(map[[2]string]int)

	for _, load := range loads {
		p1, ok1 := pos[load.Link.Dev1]
		p2, ok2 := pos[load.Link.Dev2]
		if !ok1 || !ok2 {
			continue
		}

		k := seen[load.Link.PairKey()]
		seen[load.Link.PairKey()]++
		rad := 0.1 + 0.1*float64(k)

		dx, dy := p2.x-p1.x, p2.y-p1.y
		dist := math.Hypot(dx, dy)
		mid := point{(p1.x + p2.x) / 2, (p1.y + p2.y) / 2}
		var perp point
		if dist > 0 {
			perp = point{-dy / dist, dx / dist}
			mid.x += perp.x * dist * rad
			mid.y += perp.y * dist * rad
		}

		dc.SetLineWidth(px(3))
		dc.SetLineCapButt()

		dc.SetColor(r.scale.Color(load.Out1Mbps))
		dc.DrawLine(p1.x, p1.y, mid.x, mid.y)
		dc.Stroke()

		dc.SetColor(r.scale.Color(load.Out2Mbps))
		dc.DrawLine(mid.x, mid.y, p2.x, p2.y)
		dc.Stroke()

		if dist > 0 {
			along := dist * 0.15
			curve := dist * rad * 0.3
			l1 := point{
				x: p1.x + dx/dist*along + perp.x*curve,
				y: p1.y + dy/dist*along + perp.y*curve,
			}
			l2 := point{
				x: p2.x - dx/dist*along + perp.x*curve,
				y: p2.y - dy/dist*along + perp.y*curve,
			}
			r.drawPortLabel(dc, l1, load.Link.Port1, px)
			r.drawPortLabel(dc, l2, load.Link.Port2, px)
		}
	}
}

// drawPortLabel draws a port name on a translucent white pill so it
// stays readable over the link line.
func (r *Renderer) drawPortLabel(dc *gg.Context, at point, text string, px func(float64) float64) {
	tw, th := dc.MeasureString(text)
	pad := px(4)
	dc.SetRGBA(1, 1, 1, 0.7)
	dc.DrawRoundedRectangle(at.x-tw/2-pad, at.y-th/2-pad, tw+2*pad, th+2*pad, pad)
	dc.Fill()
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(text, at.x, at.y, 0.5, 0.35)
}

func (r *Renderer) drawNodes(dc *gg.Context, pos map[string]point, devices []model.Device, px func(float64) float64) {
	radius := px(float64(r.opts.NodeSize) / 2.5 * 2)

	for _, d := range devices {
		p, ok := pos[d.Key]
		if !ok {
			continue
		}
		dc.SetColor(r.nodeColor(d.Kind))
		dc.DrawCircle(p.x, p.y, radius)
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(d.Label(), p.x, p.y, 0.5, 0.35)
	}
}

// nodeColor picks the fill for a device's visual class, falling back to
// a neutral gray for unparsable settings values.
func (r *Renderer) nodeColor(kind model.NodeKind) colorful.Color {
	name := r.opts.NodeColor
	switch kind {
	case model.KindCloud:
		name = r.opts.CloudNodeColor
	case model.KindPseudo:
		name = r.opts.PseudoNodeColor
	}
	c, err := ParseColor(name)
	if err != nil {
		slog.Warn("unknown node color, using gray", "color", name, "kind", kind)
		c, _ = ParseColor("gray")
	}
	return c
}

// drawColorbar draws the vertical utilization legend: max at the top,
// min at the bottom, matching the link color scale.
func (r *Renderer) drawColorbar(dc *gg.Context, x, y, w, h float64, px func(float64) float64) {
	for i := 0; i < int(h); i++ {
		frac := float64(i) / h
		v := r.scale.Max - (r.scale.Max-r.scale.Min)*frac
		dc.SetColor(r.scale.Color(v))
		dc.DrawRectangle(x, y+float64(i), w, 1)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(px(1))
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()

	ticks := []struct {
		frac float64
		v    float64
	}{
		{0, r.scale.Max},
		{0.5, (r.scale.Max + r.scale.Min) / 2},
		{1, r.scale.Min},
	}
	for _, t := range ticks {
		dc.DrawStringAnchored(fmt.Sprintf("%g", t.v), x+w+px(8), y+t.frac*h, 0, 0.35)
	}

	dc.Push()
	dc.RotateAbout(-math.Pi/2, x+w+px(55), y+h/2)
	dc.DrawStringAnchored("Utilization (Mbit/s)", x+w+px(55), y+h/2, 0.5, 0.5)
	dc.Pop()
}
