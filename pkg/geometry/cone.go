package geometry

import "github.com/matzehuels/spacetime/pkg/diagram"

// Polygon is a closed convex polygon; the last vertex connects to the first.
type Polygon []Vec

// Cone is the pair of light-cone regions through Anchor, clipped to the grid.
type Cone struct {
	Anchor   Vec     `json:"anchor"`
	Event    int     `json:"event"`
	Forward  Polygon `json:"forward"`
	Backward Polygon `json:"backward"`
}

// halfPlane is the region a*x + b*y + c >= 0.
type halfPlane struct{ a, b, c float64 }

func (h halfPlane) eval(v Vec) float64 { return h.a*v.X + h.b*v.Y + h.c }

// LightCone returns the cones anchored at the last point of the current
// worldline. It reports false when the current worldline is empty.
func LightCone(d diagram.Diagram) (Cone, bool) {
	last, ok := d.Current().Last()
	if !ok {
		return Cone{}, false
	}
	g := d.Grid()
	c := Center(last)
	return Cone{
		Anchor:   c,
		Event:    last.Label,
		Forward:  ForwardCone(g, c),
		Backward: BackwardCone(g, c),
	}, true
}

// ForwardCone returns the region y-ay >= |x-ax| inside the grid.
func ForwardCone(g diagram.Grid, anchor Vec) Polygon {
	return clip(rect(g),
		halfPlane{a: -1, b: 1, c: anchor.X - anchor.Y},
		halfPlane{a: 1, b: 1, c: -(anchor.X + anchor.Y)},
	)
}

// BackwardCone returns the region ay-y >= |x-ax| inside the grid.
func BackwardCone(g diagram.Grid, anchor Vec) Polygon {
	return clip(rect(g),
		halfPlane{a: -1, b: -1, c: anchor.X + anchor.Y},
		halfPlane{a: 1, b: -1, c: anchor.Y - anchor.X},
	)
}

// InForwardCone reports whether cell c is causally reachable from p.
func InForwardCone(p diagram.Point, c diagram.Cell) bool {
	return diagram.Reachable(p, c.X, c.Y)
}

// InBackwardCone reports whether p is causally reachable from cell c.
func InBackwardCone(p diagram.Point, c diagram.Cell) bool {
	return diagram.Reachable(diagram.Point{X: c.X, Y: c.Y}, p.X, p.Y)
}

func rect(g diagram.Grid) Polygon {
	w, h := float64(g.Cells), float64(g.Rows)
	return Polygon{{0, 0}, {w, 0}, {w, h}, {0, h}}
}

// clip applies Sutherland-Hodgman clipping against each half-plane in turn.
func clip(poly Polygon, planes ...halfPlane) Polygon {
	for _, h := range planes {
		if len(poly) == 0 {
			return nil
		}
		var out Polygon
		prev := poly[len(poly)-1]
		prevIn := h.eval(prev) >= 0
		for _, cur := range poly {
			curIn := h.eval(cur) >= 0
			switch {
			case curIn && !prevIn:
				out = append(out, intersect(h, prev, cur), cur)
			case curIn:
				out = append(out, cur)
			case prevIn:
				out = append(out, intersect(h, prev, cur))
			}
			prev, prevIn = cur, curIn
		}
		poly = dedupe(out)
	}
	if len(poly) < 3 {
		return nil
	}
	return poly
}

func intersect(h halfPlane, p, q Vec) Vec {
	fp, fq := h.eval(p), h.eval(q)
	t := fp / (fp - fq)
	return Vec{X: p.X + t*(q.X-p.X), Y: p.Y + t*(q.Y-p.Y)}
}

func dedupe(poly Polygon) Polygon {
	if len(poly) < 2 {
		return poly
	}
	out := poly[:0:0]
	for i, v := range poly {
		if i > 0 && v == out[len(out)-1] {
			continue
		}
		out = append(out, v)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// Area returns the polygon's area (shoelace formula).
func (p Polygon) Area() float64 {
	s := 0.0
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		s += a.X*b.Y - b.X*a.Y
	}
	if s < 0 {
		s = -s
	}
	return s / 2
}

// Contains reports whether v lies inside or on the boundary of a convex
// polygon.
func (p Polygon) Contains(v Vec) bool {
	if len(p) < 3 {
		return false
	}
	sign := 0.0
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		cross := (b.X-a.X)*(v.Y-a.Y) - (b.Y-a.Y)*(v.X-a.X)
		if cross == 0 {
			continue
		}
		if sign == 0 {
			sign = cross
		} else if (cross > 0) != (sign > 0) {
			return false
		}
	}
	return true
}
