package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/spacetime/pkg/render/scene"
)

// RenderText writes the point list followed by one block per worldline
// with its segment speeds and elapsed time.
func RenderText(s scene.Scene) []byte {
	var buf bytes.Buffer
	for _, line := range textLines(s) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func textLines(s scene.Scene) []string {
	lines := []string{fmt.Sprintf("Grid %dx%d, next label %d", s.Grid.Cells, s.Grid.Rows, s.NextLabel), "", "Points"}
	if len(s.Points) == 0 {
		lines = append(lines, "  (none)")
	}
	for _, p := range s.Points {
		lines = append(lines, fmt.Sprintf("  %3d  (%d,%d)  worldline %d", p.Label, p.X, p.Y, p.Worldline))
	}

	lines = append(lines, "", "Worldlines")
	for _, w := range s.Worldlines {
		lines = append(lines, fmt.Sprintf("  #%d %s  %d points  elapsed %s  coordinate %s",
			w.Index, w.Color, w.Points, w.Elapsed, w.CoordinateTime))
		for _, seg := range w.Segments {
			lines = append(lines, fmt.Sprintf("      %d -> %d  v=%s  γ=%s  τ=%s",
				seg.From, seg.To, seg.Speed, seg.Gamma, seg.Interval))
		}
	}
	return lines
}
