package sink

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/matzehuels/spacetime/pkg/geometry"
	"github.com/matzehuels/spacetime/pkg/render/scene"
)

const (
	forwardConeColor  = "#f2c14e"
	backwardConeColor = "#7aa5d2"
	coneOpacity       = 0.35
	gridStroke        = "#d0d0d0"
	labelColor        = "#ffffff"
)

const cellInteractionCSS = `
    .cell { transition: stroke-width 0.1s ease; }
    .cell:hover { stroke: #333; stroke-width: 2; }
    .point-label { pointer-events: none; user-select: none; }
    .cone, .worldline { pointer-events: none; }`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	interactive bool
	title       string
}

// WithInteractive adds hover styling and data attributes used by the
// browser front-end.
func WithInteractive() SVGOption { return func(r *svgRenderer) { r.interactive = true } }

// WithTitle adds a <title> element.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// RenderSVG draws the scene: the cell grid, the light cones, worldline
// segments and point labels, in that order.
func RenderSVG(s scene.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	pitch := float64(s.Pitch)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		s.Width, s.Height, s.Width, s.Height)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(r.title))
	}

	renderCells(&buf, s)
	if s.Cone != nil {
		renderPolygon(&buf, s.Cone.Backward, pitch, backwardConeColor, "backward")
		renderPolygon(&buf, s.Cone.Forward, pitch, forwardConeColor, "forward")
	}
	for i, l := range s.Lines {
		a, b := l.From.Scale(pitch), l.To.Scale(pitch)
		fmt.Fprintf(&buf, `  <line class="worldline" data-segment="%d" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2" stroke-linecap="round"/>`+"\n",
			i, a.X, a.Y, b.X, b.Y, l.Color)
	}
	renderLabels(&buf, s, pitch)
	if s.Hover != nil {
		fmt.Fprintf(&buf, `  <rect class="hover" x="%d" y="%d" width="%d" height="%d" fill="none" stroke="#333" stroke-width="2"/>`+"\n",
			s.Hover.X*s.Pitch, s.Hover.Y*s.Pitch, s.Pitch, s.Pitch)
	}
	if r.interactive {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", cellInteractionCSS)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderCells(buf *bytes.Buffer, s scene.Scene) {
	filled := make(map[[2]int]string, len(s.Cells))
	for _, c := range s.Cells {
		filled[[2]int{c.X, c.Y}] = string(c.Color)
	}
	buf.WriteString(`  <g class="grid">` + "\n")
	for y := range s.Grid.Rows {
		for x := range s.Grid.Cells {
			color, ok := filled[[2]int{x, y}]
			if !ok {
				color = string(s.DefaultColor)
			}
			fmt.Fprintf(buf, `    <rect class="cell" data-x="%d" data-y="%d" x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="%s" stroke-width="0.5"/>`+"\n",
				x, y, x*s.Pitch, y*s.Pitch, s.Pitch, s.Pitch, color, gridStroke)
		}
	}
	buf.WriteString("  </g>\n")
}

func renderPolygon(buf *bytes.Buffer, p geometry.Polygon, pitch float64, fill, name string) {
	if len(p) < 3 {
		return
	}
	pts := make([]string, len(p))
	for i, v := range p {
		v = v.Scale(pitch)
		pts[i] = fmt.Sprintf("%.1f,%.1f", v.X, v.Y)
	}
	fmt.Fprintf(buf, `  <polygon class="cone cone-%s" points="%s" fill="%s" fill-opacity="%.2f"/>`+"\n",
		name, strings.Join(pts, " "), fill, coneOpacity)
}

func renderLabels(buf *bytes.Buffer, s scene.Scene, pitch float64) {
	size := pitch * 0.6
	for i, l := range s.Labels {
		at := l.At.Scale(pitch)
		fmt.Fprintf(buf, `  <text class="point-label" data-worldline="%d" x="%.1f" y="%.1f" font-family="monospace" font-size="%.1f" fill="%s" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
			s.Points[i].Worldline, at.X, at.Y, size, labelColor, html.EscapeString(l.Text))
	}
}
