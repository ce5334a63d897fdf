// Package physics derives relativistic quantities from worldlines.
//
// Time runs along the grid's y axis and space along x, in units where the
// invariant speed c is one cell per row. All results are recomputed from
// scratch; nothing is cached.
//
// Degenerate inputs are not clamped. Two points at the same time give an
// infinite speed (or NaN when they coincide), and a spacelike pair - only
// reachable through unvalidated drag relocation - gives a NaN interval.
package physics

import (
	"fmt"
	"math"

	"github.com/matzehuels/spacetime/pkg/diagram"
)

// Segment holds the derived quantities between two consecutive events.
type Segment struct {
	From     diagram.Point `json:"from"`
	To       diagram.Point `json:"to"`
	Speed    float64       `json:"speed"`
	Gamma    float64       `json:"gamma"`
	Interval float64       `json:"interval"`
}

func delta(a, b diagram.Point) (dx, dy float64) {
	return float64(b.X - a.X), float64(b.Y - a.Y)
}

// Speed returns |dx/dy| in units of c. When dy is zero the IEEE result is
// kept: +Inf for distinct points, NaN for coincident ones.
func Speed(a, b diagram.Point) float64 {
	dx, dy := delta(a, b)
	return math.Abs(dx / dy)
}

// Interval returns the proper time sqrt(dy² - dx²) between a and b.
func Interval(a, b diagram.Point) float64 {
	dx, dy := delta(a, b)
	return math.Sqrt(dy*dy - dx*dx)
}

// Gamma returns the Lorentz factor 1/sqrt(1 - v²).
func Gamma(v float64) float64 {
	return 1 / math.Sqrt(1-v*v)
}

// Segments derives one Segment per consecutive pair of points.
func Segments(w diagram.Worldline) []Segment {
	if len(w.Points) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(w.Points)-1)
	for i := 0; i+1 < len(w.Points); i++ {
		a, b := w.Points[i], w.Points[i+1]
		v := Speed(a, b)
		segs = append(segs, Segment{
			From:     a,
			To:       b,
			Speed:    v,
			Gamma:    Gamma(v),
			Interval: Interval(a, b),
		})
	}
	return segs
}

// ElapsedTime sums the proper time along the worldline.
func ElapsedTime(w diagram.Worldline) float64 {
	total := 0.0
	for i := 0; i+1 < len(w.Points); i++ {
		total += Interval(w.Points[i], w.Points[i+1])
	}
	return total
}

// CoordinateTime sums |dy| along the worldline, i.e. the time elapsed for an
// observer at rest in the grid frame.
func CoordinateTime(w diagram.Worldline) float64 {
	total := 0.0
	for i := 0; i+1 < len(w.Points); i++ {
		_, dy := delta(w.Points[i], w.Points[i+1])
		total += math.Abs(dy)
	}
	return total
}

// FormatSpeed formats a speed as a fraction of c, e.g. "0.50c".
func FormatSpeed(v float64) string {
	return fmt.Sprintf("%.2fc", v)
}

// FormatTime formats a duration in grid time units.
func FormatTime(t float64) string {
	return fmt.Sprintf("%.2f", t)
}
