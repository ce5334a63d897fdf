package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/spacetime/pkg/render/scene"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the Lorentz factor and proper time to edge labels.
	// When false, edges carry only the speed.
	Detailed bool
}

// ToDOT converts a scene to Graphviz DOT format. Every event becomes a
// node filled with its worldline's color; consecutive events of a
// worldline are joined by an edge labeled with the speed between them.
// Events on the same grid row share a rank, so time runs top to bottom.
func ToDOT(s scene.Scene, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	rows := make(map[int][]int)
	for _, p := range s.Points {
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(p.Label), strings.Join(fmtAttrs(p), ", "))
		rows[p.Y] = append(rows[p.Y], p.Label)
	}

	for _, y := range slices.Sorted(maps.Keys(rows)) {
		ids := make([]string, 0, len(rows[y]))
		for _, l := range rows[y] {
			ids = append(ids, strconv.Quote(nodeID(l)))
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
	}

	buf.WriteString("\n")
	for _, w := range s.Worldlines {
		for _, seg := range w.Segments {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q, color=%q];\n",
				nodeID(seg.From), nodeID(seg.To), fmtEdgeLabel(seg, opts.Detailed), string(w.Color))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(label int) string { return "e" + strconv.Itoa(label) }

func fmtAttrs(p scene.PointRow) []string {
	return []string{
		fmt.Sprintf("label=%q", fmt.Sprintf("%d\n(%d,%d)", p.Label, p.X, p.Y)),
		fmt.Sprintf("fillcolor=%q", string(p.Color)),
	}
}

func fmtEdgeLabel(seg scene.SegmentRow, detailed bool) string {
	if !detailed {
		return seg.Speed
	}
	return strings.Join([]string{
		seg.Speed,
		"γ " + seg.Gamma,
		"τ " + seg.Interval,
	}, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one whose
// viewBox starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
