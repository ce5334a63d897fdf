// Package geometry derives drawable shapes from a diagram: worldline
// segments between cell centers and the light-cone polygons anchored at the
// current event.
//
// Coordinates are in grid units (one unit per cell). Renderers multiply by
// their cell pitch.
package geometry

import (
	"github.com/matzehuels/spacetime/pkg/diagram"
)

// Vec is a point in grid units.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scale multiplies both components by k.
func (v Vec) Scale(k float64) Vec { return Vec{X: v.X * k, Y: v.Y * k} }

// Center returns the center of the cell holding p.
func Center(p diagram.Point) Vec {
	return Vec{X: float64(p.X) + 0.5, Y: float64(p.Y) + 0.5}
}

// Line is a drawable segment between two consecutive events.
type Line struct {
	From  Vec           `json:"from"`
	To    Vec           `json:"to"`
	Color diagram.Color `json:"color"`
}

// Lines returns one Line per consecutive point pair of every worldline, in
// worldline order.
func Lines(d diagram.Diagram) []Line {
	var out []Line
	for _, w := range d.Worldlines() {
		for i := 0; i+1 < len(w.Points); i++ {
			out = append(out, Line{
				From:  Center(w.Points[i]),
				To:    Center(w.Points[i+1]),
				Color: w.Color,
			})
		}
	}
	return out
}
