package diagram

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/matzehuels/spacetime/pkg/errors"
)

func mustGrid(t *testing.T, cells, rows int) Grid {
	t.Helper()
	g, err := NewGrid(cells, rows)
	if err != nil {
		t.Fatalf("NewGrid(%d, %d): %v", cells, rows, err)
	}
	return g
}

func mustPlace(t *testing.T, d Diagram, x, y int, fresh bool) Diagram {
	t.Helper()
	out, _, err := d.Place(x, y, fresh)
	if err != nil {
		t.Fatalf("Place(%d, %d, %v): %v", x, y, fresh, err)
	}
	return out
}

// checkShape verifies that at least one worldline exists and only the last
// one may be empty.
func checkShape(t *testing.T, d Diagram) {
	t.Helper()
	lines := d.Worldlines()
	if len(lines) == 0 {
		t.Fatal("diagram has no worldlines")
	}
	for i, w := range lines[:len(lines)-1] {
		if w.Empty() {
			t.Errorf("worldline %d is empty but not last", i)
		}
	}
}

func TestNewGrid(t *testing.T) {
	tests := []struct {
		name    string
		cells   int
		rows    int
		wantErr bool
	}{
		{"square", 8, 8, false},
		{"original size", 75, 75, false},
		{"zero", 0, 8, true},
		{"negative rows", 8, -2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.cells, tt.rows)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewGrid() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (g.Cells != tt.cells || g.Rows != tt.rows) {
				t.Errorf("NewGrid() = %+v", g)
			}
		})
	}
}

func TestGridContains(t *testing.T) {
	g := Grid{Cells: 4, Rows: 3}
	tests := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{3, 2, true},
		{4, 0, false},
		{0, 3, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		if got := g.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
	if !d.Current().Empty() {
		t.Error("new diagram should have an empty current worldline")
	}
	if d.NextLabel() != 1 {
		t.Errorf("NextLabel() = %d, want 1", d.NextLabel())
	}
	if d.Current().Color != DefaultPalette[0] {
		t.Errorf("Color = %s, want %s", d.Current().Color, DefaultPalette[0])
	}
}

func TestReachable(t *testing.T) {
	origin := Point{X: 3, Y: 3}
	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"same cell", 3, 3, true},
		{"straight up in time", 3, 6, true},
		{"light speed right", 5, 5, true},
		{"light speed left", 1, 5, true},
		{"slower than light", 4, 6, true},
		{"faster than light", 6, 4, false},
		{"simultaneous elsewhere", 4, 3, false},
		{"past", 3, 2, false},
		{"past light cone", 2, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reachable(origin, tt.x, tt.y); got != tt.want {
				t.Errorf("Reachable(%v, %d, %d) = %v, want %v", origin, tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestPlaceRejectsOutsideLightCone(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	d = mustPlace(t, d, 0, 0, false)
	d = mustPlace(t, d, 1, 1, false)

	unreachable := 0
	next, _, err := d.Place(3, 1, false)
	if errors.IsUnreachable(err) {
		unreachable++
	}

	if unreachable != 1 {
		t.Fatalf("expected one unreachable signal, got err = %v", err)
	}
	if next.Len() != 1 {
		t.Errorf("Len() = %d, want 1", next.Len())
	}
	if next.PointCount() != 2 {
		t.Errorf("PointCount() = %d, want 2", next.PointCount())
	}
	if !reflect.DeepEqual(next.Worldlines(), d.Worldlines()) || next.NextLabel() != d.NextLabel() {
		t.Error("rejected placement changed the diagram")
	}
}

func TestPlaceNewWorldline(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	d = mustPlace(t, d, 2, 2, false)
	d = mustPlace(t, d, 0, 0, true)
	d = mustPlace(t, d, 0, 1, false)

	lines := d.Worldlines()
	if len(lines) != 2 {
		t.Fatalf("len(Worldlines()) = %d, want 2", len(lines))
	}
	if len(lines[0].Points) != 1 || len(lines[1].Points) != 2 {
		t.Errorf("point counts = %d, %d; want 1, 2", len(lines[0].Points), len(lines[1].Points))
	}
	if lines[0].Color == lines[1].Color {
		t.Errorf("worldlines share color %s", lines[0].Color)
	}
	checkShape(t, d)
}

func TestPlaceFreshIgnoresLightCone(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	d = mustPlace(t, d, 4, 4, false)

	// (0,0) is in the past of (4,4) but a new worldline is unconstrained.
	d, pl, err := d.Place(0, 0, true)
	if err != nil {
		t.Fatalf("Place fresh: %v", err)
	}
	if pl.Outcome != Started {
		t.Errorf("Outcome = %v, want started", pl.Outcome)
	}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
}

func TestPlaceFreshOnEmptyCurrentRecyclesSlot(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	d = mustPlace(t, d, 0, 0, true)
	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
	d = mustPlace(t, d, 1, 1, false)
	d = d.StartWorldline()
	if d.Len() != 2 {
		t.Fatalf("Len() after StartWorldline = %d, want 2", d.Len())
	}
	d = mustPlace(t, d, 5, 0, true)
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (empty slot recycled)", d.Len())
	}
	checkShape(t, d)
}

func TestPlaceDuplicate(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	d = mustPlace(t, d, 2, 2, false)

	next, pl, err := d.Place(2, 2, false)
	if err != nil {
		t.Fatalf("duplicate placement returned error: %v", err)
	}
	if pl.Outcome != Duplicate {
		t.Errorf("Outcome = %v, want duplicate", pl.Outcome)
	}
	if pl.Point.Label != 1 {
		t.Errorf("duplicate should report the existing point, got label %d", pl.Point.Label)
	}
	if next.PointCount() != 1 || next.NextLabel() != 2 {
		t.Errorf("duplicate consumed state: points=%d next=%d", next.PointCount(), next.NextLabel())
	}
}

func TestPlaceOutsideGrid(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	_, _, err := d.Place(8, 0, false)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestLabelsNeverReused(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	d = mustPlace(t, d, 0, 0, false)
	d = mustPlace(t, d, 0, 1, false)
	d = d.Delete(2)
	d, pl, err := d.Place(0, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if pl.Point.Label != 3 {
		t.Errorf("label = %d, want 3", pl.Point.Label)
	}
}

func TestLabelsGlobalAcrossWorldlines(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	d = mustPlace(t, d, 0, 0, false)
	d = mustPlace(t, d, 5, 0, true)
	d = mustPlace(t, d, 5, 1, false)
	d = mustPlace(t, d, 0, 1, true)

	var got []int
	for _, p := range d.Points() {
		got = append(got, p.Label)
	}
	want := []int{1, 2, 3, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name      string
		build     func(Diagram) Diagram
		label     int
		wantLines int
		wantPts   int
	}{
		{
			name:      "sole point of sole worldline",
			build:     func(d Diagram) Diagram { d, _, _ = d.Place(3, 3, false); return d },
			label:     1,
			wantLines: 1,
			wantPts:   0,
		},
		{
			name: "sole point of first worldline",
			build: func(d Diagram) Diagram {
				d, _, _ = d.Place(3, 3, false)
				d, _, _ = d.Place(0, 0, true)
				d, _, _ = d.Place(0, 1, false)
				return d
			},
			label:     1,
			wantLines: 1,
			wantPts:   2,
		},
		{
			name: "middle of worldline",
			build: func(d Diagram) Diagram {
				d, _, _ = d.Place(0, 0, false)
				d, _, _ = d.Place(0, 1, false)
				d, _, _ = d.Place(0, 2, false)
				return d
			},
			label:     2,
			wantLines: 1,
			wantPts:   2,
		},
		{
			name:      "unknown label",
			build:     func(d Diagram) Diagram { d, _, _ = d.Place(3, 3, false); return d },
			label:     42,
			wantLines: 1,
			wantPts:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.build(New(Grid{Cells: 8, Rows: 8})).Delete(tt.label)
			if d.Len() != tt.wantLines {
				t.Errorf("Len() = %d, want %d", d.Len(), tt.wantLines)
			}
			if d.PointCount() != tt.wantPts {
				t.Errorf("PointCount() = %d, want %d", d.PointCount(), tt.wantPts)
			}
			if _, ok := d.Lookup(tt.label); ok {
				t.Errorf("label %d still present", tt.label)
			}
			checkShape(t, d)
		})
	}
}

func TestDeleteSoleThenPlaceAnywhere(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	d = mustPlace(t, d, 4, 4, false)
	d = d.Delete(1)

	if d.Len() != 1 || !d.Current().Empty() {
		t.Fatalf("expected one empty worldline, got %d lines", d.Len())
	}
	// (0,0) is in the past of the deleted point; nothing constrains it now.
	if _, _, err := d.Place(0, 0, false); err != nil {
		t.Errorf("placement after reset failed: %v", err)
	}
}

func TestMoveBypassesCausality(t *testing.T) {
	// Relocation is not re-validated. This keeps free drag repositioning and
	// may leave a worldline that placement would have rejected.
	d := New(mustGrid(t, 8, 8))
	d = mustPlace(t, d, 0, 0, false)
	d = mustPlace(t, d, 0, 2, false)

	ref, ok := d.Locate(0, 2)
	if !ok {
		t.Fatal("Locate(0, 2) failed")
	}
	moved := d.Move(ref, 6, 0)

	p, _ := moved.At(ref)
	if p.X != 6 || p.Y != 0 || p.Label != 2 {
		t.Errorf("moved point = %+v, want {6 0 2}", p)
	}
	if Reachable(Point{}, p.X, p.Y) {
		t.Error("test setup: target should be outside the light cone")
	}
	if orig, _ := d.At(ref); orig.X != 0 || orig.Y != 2 {
		t.Errorf("Move mutated the receiver: %+v", orig)
	}
}

func TestMoveIgnoresInvalid(t *testing.T) {
	d := New(mustGrid(t, 4, 4))
	d = mustPlace(t, d, 1, 1, false)
	ref, _ := d.Locate(1, 1)

	if got := d.Move(ref, 9, 9); !reflect.DeepEqual(got.Points(), d.Points()) {
		t.Error("out-of-grid move changed the diagram")
	}
	if got := d.Move(Ref{Line: 3, Index: 0}, 0, 0); !reflect.DeepEqual(got.Points(), d.Points()) {
		t.Error("invalid ref changed the diagram")
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	d1 := mustPlace(t, d, 0, 0, false)
	d2 := mustPlace(t, d1, 0, 1, false)

	if d.PointCount() != 0 || d1.PointCount() != 1 || d2.PointCount() != 2 {
		t.Errorf("counts = %d, %d, %d", d.PointCount(), d1.PointCount(), d2.PointCount())
	}

	lines := d2.Worldlines()
	lines[0].Points[0].X = 7
	if p, _ := d2.At(Ref{}); p.X != 0 {
		t.Error("Worldlines() exposed internal state")
	}
}

func TestLocatePrefersLatest(t *testing.T) {
	d := New(mustGrid(t, 8, 8))
	d = mustPlace(t, d, 2, 2, false)
	d = mustPlace(t, d, 2, 2, true)

	ref, ok := d.Locate(2, 2)
	if !ok || ref.Line != 1 {
		t.Errorf("Locate = %+v, %v; want line 1", ref, ok)
	}
	if _, ok := d.Locate(5, 5); ok {
		t.Error("Locate found a point in an empty cell")
	}
}

func TestCellColors(t *testing.T) {
	d := New(mustGrid(t, 8, 8), WithPalette([]Color{"#000001", "#000002"}))
	d = mustPlace(t, d, 1, 1, false)
	d = mustPlace(t, d, 3, 3, true)

	colors := d.CellColors()
	if colors[Cell{X: 1, Y: 1}] != "#000001" || colors[Cell{X: 3, Y: 3}] != "#000002" {
		t.Errorf("CellColors() = %v", colors)
	}
	if _, ok := colors[Cell{X: 0, Y: 0}]; ok {
		t.Error("empty cell should not be colored")
	}
}

func TestRandomPlacementsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	d := New(mustGrid(t, 12, 12))
	lastLabel := 0

	for i := 0; i < 500; i++ {
		x, y := rng.IntN(12), rng.IntN(12)
		fresh := rng.IntN(10) == 0
		prev, hadPrev := d.Current().Last()

		next, pl, err := d.Place(x, y, fresh)
		switch {
		case err != nil:
			if !errors.IsUnreachable(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(next.Worldlines(), d.Worldlines()) || next.NextLabel() != d.NextLabel() {
				t.Fatal("rejection changed state")
			}
		case pl.Outcome == Duplicate:
			if next.NextLabel() != d.NextLabel() {
				t.Fatal("duplicate consumed a label")
			}
		default:
			if pl.Point.Label <= lastLabel {
				t.Fatalf("label %d not greater than %d", pl.Point.Label, lastLabel)
			}
			lastLabel = pl.Point.Label
			if !fresh && hadPrev && !Reachable(prev, x, y) {
				t.Fatalf("accepted (%d,%d) outside cone of %+v", x, y, prev)
			}
		}
		d = next

		if rng.IntN(8) == 0 && d.PointCount() > 0 {
			pts := d.Points()
			d = d.Delete(pts[rng.IntN(len(pts))].Label)
		}
		checkShape(t, d)
	}
}
