package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/interaction"
)

func newModel() Model {
	return New(diagram.New(diagram.Grid{Cells: 8, Rows: 8}), WithHoldDelay(time.Millisecond))
}

func mouse(m Model, action tea.MouseAction, c interaction.Cell, alt bool) (Model, tea.Cmd) {
	out, cmd := m.Update(tea.MouseMsg{
		X:      boardX + c.X*cellWidth,
		Y:      boardY + c.Y,
		Action: action,
		Button: tea.MouseButtonLeft,
		Alt:    alt,
	})
	return out.(Model), cmd
}

func click(m Model, x, y int) Model {
	c := interaction.Cell{X: x, Y: y}
	m, _ = mouse(m, tea.MouseActionPress, c, false)
	m, _ = mouse(m, tea.MouseActionRelease, c, false)
	return m
}

func press(m Model, keyName string) Model {
	var msg tea.KeyMsg
	switch keyName {
	case "delete":
		msg = tea.KeyMsg{Type: tea.KeyDelete}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keyName)}
	}
	out, _ := m.Update(msg)
	return out.(Model)
}

func TestClickPlaces(t *testing.T) {
	m := click(newModel(), 0, 0)
	m = click(m, 1, 1)
	if got := m.Diagram().PointCount(); got != 2 {
		t.Fatalf("points = %d, want 2", got)
	}
	if m.notice != "" {
		t.Errorf("unexpected notice %q", m.notice)
	}
}

func TestUnreachableShowsModal(t *testing.T) {
	m := click(newModel(), 0, 0)
	m = click(m, 1, 1)
	m = click(m, 3, 1)

	if m.notice == "" {
		t.Fatal("expected a notice")
	}
	if got := m.Diagram().PointCount(); got != 2 {
		t.Errorf("points = %d, want 2", got)
	}
	if !strings.Contains(m.View(), "Unreachable") {
		t.Error("view does not show the modal")
	}

	// clicks are swallowed while the modal is up
	m = click(m, 1, 2)
	if m.notice != "" {
		t.Error("press did not dismiss the modal")
	}

	m = click(m, 3, 1)
	m = press(m, "j")
	if m.notice != "" {
		t.Error("key did not dismiss the modal")
	}
	if got := m.Diagram().PointCount(); got != 2 {
		t.Errorf("points = %d after dismissals, want 2", got)
	}
}

func TestFreshToggle(t *testing.T) {
	m := click(newModel(), 2, 2)
	m = press(m, "n")
	if !m.fresh {
		t.Fatal("n did not arm a new worldline")
	}
	m = click(m, 0, 0)
	m = click(m, 0, 1)

	d := m.Diagram()
	if d.Len() != 2 {
		t.Fatalf("worldlines = %d, want 2", d.Len())
	}
	if m.fresh {
		t.Error("fresh flag survived a placement")
	}
	lines := d.Worldlines()
	if len(lines[0].Points) != 1 || len(lines[1].Points) != 2 {
		t.Errorf("worldline sizes = %d, %d", len(lines[0].Points), len(lines[1].Points))
	}
}

func TestAltClickStartsWorldline(t *testing.T) {
	m := click(newModel(), 2, 2)
	c := interaction.Cell{X: 7, Y: 0}
	m, _ = mouse(m, tea.MouseActionPress, c, true)
	m, _ = mouse(m, tea.MouseActionRelease, c, false)
	if got := m.Diagram().Len(); got != 2 {
		t.Errorf("worldlines = %d, want 2", got)
	}
}

func TestHoldDrags(t *testing.T) {
	m := click(newModel(), 2, 2)

	m, cmd := mouse(m, tea.MouseActionPress, interaction.Cell{X: 2, Y: 2}, false)
	if cmd == nil {
		t.Fatal("press did not schedule a hold")
	}
	out, _ := m.Update(cmd())
	m = out.(Model)
	if !m.ctrl.Dragging() {
		t.Fatal("hold did not grab the point")
	}

	// drag ignores the light cone
	m, _ = mouse(m, tea.MouseActionMotion, interaction.Cell{X: 6, Y: 0}, false)
	m, _ = mouse(m, tea.MouseActionRelease, interaction.Cell{X: 6, Y: 0}, false)

	pts := m.Diagram().Points()
	if len(pts) != 1 || pts[0].X != 6 || pts[0].Y != 0 {
		t.Errorf("points = %+v, want one at (6,0)", pts)
	}
	if m.ctrl.Dragging() {
		t.Error("release did not end the drag")
	}
}

func TestStaleHoldIgnored(t *testing.T) {
	m := click(newModel(), 2, 2)
	c := interaction.Cell{X: 2, Y: 2}
	m, cmd := mouse(m, tea.MouseActionPress, c, false)
	m, _ = mouse(m, tea.MouseActionRelease, c, false)

	out, _ := m.Update(cmd())
	m = out.(Model)
	if m.ctrl.Dragging() {
		t.Error("hold fired after release")
	}
}

func TestDeleteSelected(t *testing.T) {
	m := click(newModel(), 0, 0)
	m = click(m, 0, 2)
	m = click(m, 1, 4)
	if m.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", m.cursor)
	}

	m = press(m, "k")
	m = press(m, "x")
	pts := m.Diagram().Points()
	if len(pts) != 2 || pts[1].Label != 2 {
		t.Fatalf("points after delete = %+v", pts)
	}

	m = press(m, "delete")
	m = press(m, "delete")
	if got := m.Diagram().PointCount(); got != 0 {
		t.Errorf("points = %d, want 0", got)
	}
	m = press(m, "x")
	if m.cursor != 0 {
		t.Errorf("cursor = %d on empty list", m.cursor)
	}
}

func TestMotionOffBoardLeaves(t *testing.T) {
	m := newModel()
	m, _ = mouse(m, tea.MouseActionMotion, interaction.Cell{X: 3, Y: 3}, false)
	if _, ok := m.ctrl.Hover(); !ok {
		t.Fatal("motion on the board did not hover")
	}
	out, _ := m.Update(tea.MouseMsg{X: 100, Y: 1, Action: tea.MouseActionMotion})
	m = out.(Model)
	if _, ok := m.ctrl.Hover(); ok {
		t.Error("still hovering after leaving the board")
	}
}

func TestView(t *testing.T) {
	m := click(newModel(), 0, 0)
	m = click(m, 0, 2)
	v := m.View()
	for _, want := range []string{"spacetime", "Points", "Worldlines", "(0,2)", "0.00c"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRaster(t *testing.T) {
	d := diagram.New(diagram.Grid{Cells: 8, Rows: 8})
	d, _, _ = d.Place(0, 0, false)
	d, _, _ = d.Place(2, 4, false)
	m := New(d)
	s := m.scene()
	cells := raster(s.Lines[0])
	seen := map[diagram.Cell]bool{}
	for _, c := range cells {
		seen[c] = true
	}
	for _, want := range []diagram.Cell{{X: 0, Y: 0}, {X: 1, Y: 2}, {X: 2, Y: 4}} {
		if !seen[want] {
			t.Errorf("raster misses %+v", want)
		}
	}
}
