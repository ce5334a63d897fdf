package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/geometry"
	"github.com/matzehuels/spacetime/pkg/render/scene"
)

func (m Model) View() string {
	if m.notice != "" {
		return m.viewNotice()
	}

	s := m.scene()
	var b strings.Builder

	b.WriteString(styleTitle.Render("spacetime"))
	if m.fresh {
		b.WriteString("  " + styleWarning.Render("next click starts a new worldline"))
	}
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewBoard(s),
		"    ",
		m.viewPanel(s),
	))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) viewNotice() string {
	box := styleModal.Render(
		styleWarning.Render("Unreachable") + "\n\n" +
			styleValue.Render(m.notice) + "\n\n" +
			styleDim.Render("press any key"),
	)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// viewBoard draws the grid. Points win over worldline paths, which win over
// the light cones.
func (m Model) viewBoard(s scene.Scene) string {
	d := m.Diagram()

	labels := make(map[diagram.Cell]string, len(s.Labels))
	for _, l := range s.Labels {
		labels[cellOf(l.At)] = l.Text
	}
	fills := make(map[diagram.Cell]diagram.Color, len(s.Cells))
	for _, f := range s.Cells {
		fills[diagram.Cell{X: f.X, Y: f.Y}] = f.Color
	}
	paths := make(map[diagram.Cell]diagram.Color)
	for _, ln := range s.Lines {
		for _, c := range raster(ln) {
			paths[c] = ln.Color
		}
	}
	last, anchored := d.Current().Last()

	var b strings.Builder
	for y := range s.Grid.Rows {
		for x := range s.Grid.Cells {
			c := diagram.Cell{X: x, Y: y}
			text, st := " .", styleEmpty
			switch color, ok := fills[c]; {
			case ok:
				text, st = fmt.Sprintf("%2s", lastDigits(labels[c])), pointStyle(color)
			case paths[c] != "":
				text, st = " •", pathStyle(paths[c])
			case anchored && geometry.InForwardCone(last, c):
				text, st = " ·", styleForward
			case anchored && geometry.InBackwardCone(last, c):
				text, st = " ·", styleBackward
			}
			if s.Hover != nil && *s.Hover == c {
				st = st.Reverse(true)
			}
			b.WriteString(st.Render(text))
		}
		if y < s.Grid.Rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) viewPanel(s scene.Scene) string {
	var b strings.Builder

	b.WriteString(styleHeading.Render("Points"))
	b.WriteByte('\n')
	if len(s.Points) == 0 {
		b.WriteString(styleDim.Render("  click a cell to place an event"))
		b.WriteByte('\n')
	}
	for i, p := range s.Points {
		cursor := "  "
		line := fmt.Sprintf("%3d  (%d,%d)", p.Label, p.X, p.Y)
		if i == m.cursor {
			cursor = "▸ "
			line = styleSelected.Render(line)
		}
		b.WriteString(cursor + pathStyle(p.Color).Render("■") + " " + line + "\n")
	}

	b.WriteByte('\n')
	b.WriteString(styleHeading.Render("Worldlines"))
	b.WriteByte('\n')
	for _, w := range s.Worldlines {
		if w.Points == 0 {
			continue
		}
		head := fmt.Sprintf("τ = %s  t = %s", w.Elapsed, w.CoordinateTime)
		if w.Acausal() {
			head += "  " + styleWarning.Render("acausal")
		}
		b.WriteString(pathStyle(w.Color).Render("■") + " " + styleValue.Render(head) + "\n")
		for _, seg := range w.Segments {
			b.WriteString(styleDim.Render(fmt.Sprintf("  %d → %d  v = %s  γ = %s", seg.From, seg.To, seg.Speed, seg.Gamma)))
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func cellOf(v geometry.Vec) diagram.Cell {
	return diagram.Cell{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y))}
}

// raster returns the cells a segment passes through, sampled twice per
// cell along its longer axis.
func raster(ln geometry.Line) []diagram.Cell {
	dx, dy := ln.To.X-ln.From.X, ln.To.Y-ln.From.Y
	steps := int(2 * math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		return nil
	}
	out := make([]diagram.Cell, 0, steps+1)
	for k := 0; k <= steps; k++ {
		f := float64(k) / float64(steps)
		out = append(out, cellOf(geometry.Vec{X: ln.From.X + dx*f, Y: ln.From.Y + dy*f}))
	}
	return out
}

// lastDigits keeps labels within a two-column cell.
func lastDigits(label string) string {
	n, err := strconv.Atoi(label)
	if err != nil || n < 100 {
		return label
	}
	return fmt.Sprintf("%02d", n%100)
}
