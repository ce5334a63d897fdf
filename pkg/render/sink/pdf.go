package sink

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/matzehuels/spacetime/pkg/geometry"
	"github.com/matzehuels/spacetime/pkg/render/scene"
)

// PDFOption configures PDF rendering.
type PDFOption func(*pdfRenderer)

type pdfRenderer struct {
	report bool
}

// WithReport appends a page with the textual point and worldline lists.
func WithReport() PDFOption {
	return func(r *pdfRenderer) { r.report = true }
}

// RenderPDF draws the scene as vector PDF, one point per pixel of the
// board.
func RenderPDF(s scene.Scene, opts ...PDFOption) ([]byte, error) {
	r := pdfRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	pitch := float64(s.Pitch)

	p := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(s.Width), Ht: float64(s.Height)},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()

	filled := make(map[[2]int]string, len(s.Cells))
	for _, c := range s.Cells {
		filled[[2]int{c.X, c.Y}] = string(c.Color)
	}
	p.SetLineWidth(0.5)
	setDraw(p, gridStroke)
	for y := range s.Grid.Rows {
		for x := range s.Grid.Cells {
			hex, ok := filled[[2]int{x, y}]
			if !ok {
				hex = string(s.DefaultColor)
			}
			setFill(p, hex)
			p.Rect(float64(x)*pitch, float64(y)*pitch, pitch, pitch, "FD")
		}
	}

	if s.Cone != nil {
		p.SetAlpha(coneOpacity, "Normal")
		for _, layer := range []struct {
			poly  []gofpdf.PointType
			color string
		}{
			{toPoints(s.Cone.Backward, pitch), backwardConeColor},
			{toPoints(s.Cone.Forward, pitch), forwardConeColor},
		} {
			if len(layer.poly) < 3 {
				continue
			}
			setFill(p, layer.color)
			p.Polygon(layer.poly, "F")
		}
		p.SetAlpha(1, "Normal")
	}

	p.SetLineWidth(2)
	p.SetLineCapStyle("round")
	for _, l := range s.Lines {
		a, b := l.From.Scale(pitch), l.To.Scale(pitch)
		setDraw(p, string(l.Color))
		p.Line(a.X, a.Y, b.X, b.Y)
	}

	p.SetFont("Courier", "B", pitch*0.6)
	setText(p, labelColor)
	for _, l := range s.Labels {
		at := l.At.Scale(pitch)
		w := p.GetStringWidth(l.Text)
		p.Text(at.X-w/2, at.Y+pitch*0.2, l.Text)
	}

	if r.report {
		p.AddPageFormat("P", gofpdf.SizeType{Wd: 595, Ht: 842})
		p.SetMargins(36, 36, 36)
		p.SetXY(36, 36)
		p.SetFont("Courier", "", 10)
		setText(p, "#000000")
		tr := p.UnicodeTranslatorFromDescriptor("")
		for _, line := range textLines(s) {
			p.CellFormat(0, 12, tr(line), "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func toPoints(poly geometry.Polygon, pitch float64) []gofpdf.PointType {
	pts := make([]gofpdf.PointType, len(poly))
	for i, v := range poly {
		pts[i] = gofpdf.PointType{X: v.X * pitch, Y: v.Y * pitch}
	}
	return pts
}

func setFill(p *gofpdf.Fpdf, hex string) {
	c := parseHex(hex, 1)
	p.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setDraw(p *gofpdf.Fpdf, hex string) {
	c := parseHex(hex, 1)
	p.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setText(p *gofpdf.Fpdf, hex string) {
	c := parseHex(hex, 1)
	p.SetTextColor(int(c.R), int(c.G), int(c.B))
}
