// Package scene builds the view model every renderer draws from.
//
// [Build] recomputes everything derived from a diagram snapshot: cell
// fills, worldline segments, point labels, the light cone and the textual
// lists with speeds and elapsed times. Renderers never look at the diagram
// directly, so a terminal, a browser and a file export always agree.
package scene

import (
	"cmp"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/matzehuels/spacetime/pkg/cache"
	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/geometry"
	"github.com/matzehuels/spacetime/pkg/physics"
)

// DefaultPitch is the cell size in pixels used when no pitch is given.
const DefaultPitch = 16

// Scene is a fully derived, render-ready snapshot of a diagram.
type Scene struct {
	Grid         diagram.Grid    `json:"grid"`
	Pitch        int             `json:"pitch"`
	Width        int             `json:"width"`
	Height       int             `json:"height"`
	DefaultColor diagram.Color   `json:"default_color"`
	Cells        []Fill          `json:"cells"`
	Lines        []geometry.Line `json:"lines"`
	Labels       []Label         `json:"labels"`
	Cone         *geometry.Cone  `json:"cone,omitempty"`
	Hover        *diagram.Cell   `json:"hover,omitempty"`
	Points       []PointRow      `json:"points"`
	Worldlines   []LineSummary   `json:"worldlines"`
	NextLabel    int             `json:"next_label"`
}

// Fill colors one occupied cell.
type Fill struct {
	X     int           `json:"x"`
	Y     int           `json:"y"`
	Color diagram.Color `json:"color"`
}

// Label is the text drawn at a point's cell center.
type Label struct {
	At   geometry.Vec `json:"at"`
	Text string       `json:"text"`
}

// PointRow is one entry of the point list.
type PointRow struct {
	Label     int           `json:"label"`
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Worldline int           `json:"worldline"`
	Color     diagram.Color `json:"color"`
}

// SegmentRow describes the motion between two consecutive events. Values
// are preformatted so degenerate speeds (+Inf, NaN) survive JSON.
type SegmentRow struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	Speed    string `json:"speed"`
	Gamma    string `json:"gamma"`
	Interval string `json:"interval"`
}

// LineSummary lists a worldline's segments and accumulated times.
type LineSummary struct {
	Index          int           `json:"index"`
	Color          diagram.Color `json:"color"`
	Points         int           `json:"points"`
	Segments       []SegmentRow  `json:"segments"`
	Elapsed        string        `json:"elapsed"`
	CoordinateTime string        `json:"coordinate_time"`
}

// Option configures [Build].
type Option func(*builder)

type builder struct {
	pitch int
	hover *diagram.Cell
}

// WithPitch sets the cell size in pixels.
func WithPitch(px int) Option {
	return func(b *builder) {
		if px > 0 {
			b.pitch = px
		}
	}
}

// WithHover marks the cell under the pointer. Cells outside the grid are
// ignored.
func WithHover(c diagram.Cell) Option {
	return func(b *builder) { b.hover = &c }
}

// Build derives a Scene from d.
func Build(d diagram.Diagram, opts ...Option) Scene {
	b := builder{pitch: DefaultPitch}
	for _, opt := range opts {
		opt(&b)
	}

	g := d.Grid()
	s := Scene{
		Grid:         g,
		Pitch:        b.pitch,
		Width:        g.Cells * b.pitch,
		Height:       g.Rows * b.pitch,
		DefaultColor: diagram.DefaultCellColor,
		Lines:        geometry.Lines(d),
		NextLabel:    d.NextLabel(),
	}
	if b.hover != nil && g.Contains(b.hover.X, b.hover.Y) {
		h := *b.hover
		s.Hover = &h
	}
	if c, ok := geometry.LightCone(d); ok {
		s.Cone = &c
	}

	for cell, color := range d.CellColors() {
		s.Cells = append(s.Cells, Fill{X: cell.X, Y: cell.Y, Color: color})
	}
	slices.SortFunc(s.Cells, func(a, b Fill) int {
		return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
	})

	for i, w := range d.Worldlines() {
		for _, p := range w.Points {
			s.Labels = append(s.Labels, Label{At: geometry.Center(p), Text: strconv.Itoa(p.Label)})
			s.Points = append(s.Points, PointRow{Label: p.Label, X: p.X, Y: p.Y, Worldline: i, Color: w.Color})
		}
		s.Worldlines = append(s.Worldlines, summarize(i, w))
	}
	return s
}

func summarize(i int, w diagram.Worldline) LineSummary {
	ls := LineSummary{
		Index:          i,
		Color:          w.Color,
		Points:         len(w.Points),
		Segments:       []SegmentRow{},
		Elapsed:        physics.FormatTime(physics.ElapsedTime(w)),
		CoordinateTime: physics.FormatTime(physics.CoordinateTime(w)),
	}
	for _, seg := range physics.Segments(w) {
		ls.Segments = append(ls.Segments, SegmentRow{
			From:     seg.From.Label,
			To:       seg.To.Label,
			Speed:    physics.FormatSpeed(seg.Speed),
			Gamma:    physics.FormatTime(seg.Gamma),
			Interval: physics.FormatTime(seg.Interval),
		})
	}
	return ls
}

// Hash returns a SHA-256 hex digest of the scene's canonical JSON. Equal
// scenes hash equally, which makes the digest usable as a cache key.
func (s Scene) Hash() string {
	data, _ := json.Marshal(s)
	return cache.Hash(data)
}

// Acausal reports whether the worldline's elapsed time is not a number.
// Only a drag can move an event outside its predecessor's light cone.
func (ls LineSummary) Acausal() bool {
	return ls.Elapsed == "NaN"
}
