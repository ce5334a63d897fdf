package sink

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/matzehuels/spacetime/pkg/geometry"
	"github.com/matzehuels/spacetime/pkg/render/scene"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale float64
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// RenderPNG rasterizes the scene. It draws the same layers as [RenderSVG]
// directly with a 2D context, so no external converter is needed.
func RenderPNG(s scene.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2.0}
	for _, opt := range opts {
		opt(&r)
	}
	pitch := float64(s.Pitch) * r.scale

	dc := gg.NewContext(int(float64(s.Width)*r.scale), int(float64(s.Height)*r.scale))
	dc.SetColor(color.White)
	dc.Clear()

	filled := make(map[[2]int]string, len(s.Cells))
	for _, c := range s.Cells {
		filled[[2]int{c.X, c.Y}] = string(c.Color)
	}
	for y := range s.Grid.Rows {
		for x := range s.Grid.Cells {
			hex, ok := filled[[2]int{x, y}]
			if !ok {
				hex = string(s.DefaultColor)
			}
			dc.DrawRectangle(float64(x)*pitch, float64(y)*pitch, pitch, pitch)
			dc.SetColor(parseHex(hex, 1))
			dc.FillPreserve()
			dc.SetColor(parseHex(gridStroke, 1))
			dc.SetLineWidth(0.5 * r.scale)
			dc.Stroke()
		}
	}

	if s.Cone != nil {
		fillPolygon(dc, s.Cone.Backward, pitch, parseHex(backwardConeColor, coneOpacity))
		fillPolygon(dc, s.Cone.Forward, pitch, parseHex(forwardConeColor, coneOpacity))
	}

	dc.SetLineCapRound()
	dc.SetLineWidth(2 * r.scale)
	for _, l := range s.Lines {
		a, b := l.From.Scale(pitch), l.To.Scale(pitch)
		dc.SetColor(parseHex(string(l.Color), 1))
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		dc.Stroke()
	}

	if len(s.Labels) > 0 {
		face, err := monoFace(pitch * 0.6)
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(face)
		dc.SetColor(parseHex(labelColor, 1))
		for _, l := range s.Labels {
			at := l.At.Scale(pitch)
			dc.DrawStringAnchored(l.Text, at.X, at.Y, 0.5, 0.35)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fillPolygon(dc *gg.Context, p geometry.Polygon, pitch float64, c color.Color) {
	if len(p) < 3 {
		return
	}
	for i, v := range p {
		v = v.Scale(pitch)
		if i == 0 {
			dc.MoveTo(v.X, v.Y)
		} else {
			dc.LineTo(v.X, v.Y)
		}
	}
	dc.ClosePath()
	dc.SetColor(c)
	dc.Fill()
}

func monoFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

// parseHex converts "#rrggbb" to a color with the given opacity. Malformed
// input yields black.
func parseHex(hex string, alpha float64) color.NRGBA {
	c := color.NRGBA{A: uint8(alpha*255 + 0.5)}
	if len(hex) != 7 || hex[0] != '#' {
		return c
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return c
	}
	c.R, c.G, c.B = uint8(v>>16), uint8(v>>8), uint8(v)
	return c
}
