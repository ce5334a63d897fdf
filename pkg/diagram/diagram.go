package diagram

import (
	"slices"

	"github.com/matzehuels/spacetime/pkg/errors"
)

// Point is an event placed on the grid. Label is its stable identity.
type Point struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Label int `json:"label"`
}

// Worldline is an ordered chain of events, ordered by creation time.
type Worldline struct {
	Points []Point `json:"points"`
	Color  Color   `json:"color"`
}

// Empty reports whether the worldline has no points.
func (w Worldline) Empty() bool { return len(w.Points) == 0 }

// Last returns the most recently appended point.
func (w Worldline) Last() (Point, bool) {
	if len(w.Points) == 0 {
		return Point{}, false
	}
	return w.Points[len(w.Points)-1], true
}

func (w Worldline) find(x, y int) (Point, bool) {
	i := slices.IndexFunc(w.Points, func(p Point) bool { return p.X == x && p.Y == y })
	if i < 0 {
		return Point{}, false
	}
	return w.Points[i], true
}

func (w Worldline) clone() Worldline {
	return Worldline{Points: slices.Clone(w.Points), Color: w.Color}
}

// Ref identifies a point by position rather than label: the index of its
// worldline and its index within that worldline.
type Ref struct {
	Line  int
	Index int
}

// Outcome describes what an accepted placement did.
type Outcome int

const (
	// Appended means the point extended the current worldline.
	Appended Outcome = iota
	// Started means the point is the first of a worldline.
	Started
	// Duplicate means the cell already holds a point of the current
	// worldline; nothing changed.
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Appended:
		return "appended"
	case Started:
		return "started"
	case Duplicate:
		return "duplicate"
	}
	return "unknown"
}

// Placement reports the result of an accepted [Diagram.Place].
type Placement struct {
	Outcome Outcome
	Point   Point
}

// Diagram is an immutable snapshot of the diagram state.
//
// The zero value is not usable - use [New].
type Diagram struct {
	grid    Grid
	lines   []Worldline
	next    int // next label to assign
	created int // worldlines created so far, drives color choice
	palette []Color
}

// New returns a diagram with a single empty worldline.
func New(grid Grid, opts ...Option) Diagram {
	d := Diagram{grid: grid, next: 1, palette: DefaultPalette}
	for _, opt := range opts {
		opt(&d)
	}
	d.lines = []Worldline{d.freshLine()}
	return d
}

func (d *Diagram) freshLine() Worldline {
	w := Worldline{Color: d.colorFor(d.created)}
	d.created++
	return w
}

// clone copies the snapshot deeply enough that mutating the copy's
// worldlines never affects the receiver.
func (d Diagram) clone() Diagram {
	lines := make([]Worldline, len(d.lines))
	for i, w := range d.lines {
		lines[i] = w.clone()
	}
	d.lines = lines
	return d
}

// Place adds the point (x, y).
//
// With fresh set, a new worldline is started with this point. Otherwise the
// point extends the current worldline, provided it lies in the forward light
// cone of that worldline's last point; if not, the unchanged diagram and an
// UNREACHABLE error are returned. A cell already held by the current
// worldline yields [Duplicate] and no change.
func (d Diagram) Place(x, y int, fresh bool) (Diagram, Placement, error) {
	if !d.grid.Contains(x, y) {
		return d, Placement{}, errors.New(errors.ErrCodeInvalidInput,
			"point (%d,%d) is outside the %dx%d grid", x, y, d.grid.Cells, d.grid.Rows)
	}

	cur := d.lines[len(d.lines)-1]

	if fresh {
		out := d.clone()
		if cur.Empty() {
			// recycle the empty slot so only the last worldline is ever empty
			out.lines = out.lines[:len(out.lines)-1]
		}
		w := out.freshLine()
		p := out.label(x, y)
		w.Points = []Point{p}
		out.lines = append(out.lines, w)
		return out, Placement{Outcome: Started, Point: p}, nil
	}

	if last, ok := cur.Last(); ok {
		if !Reachable(last, x, y) {
			return d, Placement{}, errors.New(errors.ErrCodeUnreachable,
				"point (%d,%d) is outside the light cone of point %d at (%d,%d)", x, y, last.Label, last.X, last.Y)
		}
		if p, dup := cur.find(x, y); dup {
			return d, Placement{Outcome: Duplicate, Point: p}, nil
		}
	}

	out := d.clone()
	p := out.label(x, y)
	i := len(out.lines) - 1
	outcome := Appended
	if out.lines[i].Empty() {
		outcome = Started
	}
	out.lines[i].Points = append(out.lines[i].Points, p)
	return out, Placement{Outcome: outcome, Point: p}, nil
}

func (d *Diagram) label(x, y int) Point {
	p := Point{X: x, Y: y, Label: d.next}
	d.next++
	return p
}

// Reachable reports whether (x, y) lies in the forward light cone of p:
// |dx| <= |dy| and y >= p.Y.
func Reachable(p Point, x, y int) bool {
	dx := abs(x - p.X)
	dy := abs(y - p.Y)
	return dx <= dy && y >= p.Y
}

// StartWorldline appends an empty worldline, making it current. It is a
// no-op when the current worldline is already empty.
func (d Diagram) StartWorldline() Diagram {
	if d.lines[len(d.lines)-1].Empty() {
		return d
	}
	out := d.clone()
	out.lines = append(out.lines, out.freshLine())
	return out
}

// Delete removes the point carrying label. A worldline left empty is
// dropped, and if no worldline remains a fresh empty one is created.
// Unknown labels are ignored.
func (d Diagram) Delete(label int) Diagram {
	ref, ok := d.Lookup(label)
	if !ok {
		return d
	}
	out := d.clone()
	w := &out.lines[ref.Line]
	w.Points = slices.Delete(w.Points, ref.Index, ref.Index+1)
	if w.Empty() {
		out.lines = slices.Delete(out.lines, ref.Line, ref.Line+1)
	}
	if len(out.lines) == 0 {
		out.lines = []Worldline{out.freshLine()}
	}
	return out
}

// Move overwrites the coordinates of the referenced point, keeping its
// label, worldline and position in the sequence. Causality is not
// re-validated. Invalid refs and targets outside the grid are ignored.
func (d Diagram) Move(ref Ref, x, y int) Diagram {
	if !d.valid(ref) || !d.grid.Contains(x, y) {
		return d
	}
	out := d.clone()
	p := &out.lines[ref.Line].Points[ref.Index]
	p.X, p.Y = x, y
	return out
}

func (d Diagram) valid(r Ref) bool {
	return r.Line >= 0 && r.Line < len(d.lines) &&
		r.Index >= 0 && r.Index < len(d.lines[r.Line].Points)
}

// Grid returns the diagram's coordinate domain.
func (d Diagram) Grid() Grid { return d.grid }

// Worldlines returns a copy of all worldlines in creation order.
func (d Diagram) Worldlines() []Worldline { return d.clone().lines }

// Current returns a copy of the worldline being extended.
func (d Diagram) Current() Worldline { return d.lines[len(d.lines)-1].clone() }

// Len returns the number of worldlines, including an empty current one.
func (d Diagram) Len() int { return len(d.lines) }

// NextLabel returns the label the next accepted point will receive.
func (d Diagram) NextLabel() int { return d.next }

// PointCount returns the total number of points.
func (d Diagram) PointCount() int {
	n := 0
	for _, w := range d.lines {
		n += len(w.Points)
	}
	return n
}

// Points returns all points in worldline order.
func (d Diagram) Points() []Point {
	pts := make([]Point, 0, d.PointCount())
	for _, w := range d.lines {
		pts = append(pts, w.Points...)
	}
	return pts
}

// At returns the referenced point.
func (d Diagram) At(r Ref) (Point, bool) {
	if !d.valid(r) {
		return Point{}, false
	}
	return d.lines[r.Line].Points[r.Index], true
}

// Lookup finds the point carrying label.
func (d Diagram) Lookup(label int) (Ref, bool) {
	for i, w := range d.lines {
		for j, p := range w.Points {
			if p.Label == label {
				return Ref{Line: i, Index: j}, true
			}
		}
	}
	return Ref{}, false
}

// Locate finds a point at (x, y), preferring the most recent worldline and
// the latest point within it.
func (d Diagram) Locate(x, y int) (Ref, bool) {
	for i := len(d.lines) - 1; i >= 0; i-- {
		pts := d.lines[i].Points
		for j := len(pts) - 1; j >= 0; j-- {
			if pts[j].X == x && pts[j].Y == y {
				return Ref{Line: i, Index: j}, true
			}
		}
	}
	return Ref{}, false
}

// CellColors maps every occupied cell to the color of the worldline holding
// it. Later worldlines win when cells are shared.
func (d Diagram) CellColors() map[Cell]Color {
	m := make(map[Cell]Color, d.PointCount())
	for _, w := range d.lines {
		for _, p := range w.Points {
			m[Cell{X: p.X, Y: p.Y}] = w.Color
		}
	}
	return m
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
