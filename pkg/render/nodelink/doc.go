// Package nodelink renders a diagram's events as a causal graph.
//
// # Overview
//
// Where the board shows events on a grid, the node-link view shows only
// their ordering: each event is a node, and each worldline link is a
// directed edge labeled with the speed between its endpoints. Events on
// the same grid row are ranked together, so time runs top to bottom.
//
// # Usage
//
//	dot := nodelink.ToDOT(s, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// The [ToDOT] output can be rendered directly via [RenderSVG], or saved
// and processed with external Graphviz tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
