// Package sink writes a [scene.Scene] in its output formats.
//
// # Overview
//
// A "sink" transforms a computed scene into a final artifact:
//
//   - SVG: the board with cells, light cones, worldlines and labels
//   - PNG: the same layers rasterized in-process with fogleman/gg
//   - PDF: the same layers as vector PDF via gofpdf, optionally followed
//     by a report page
//   - JSON: the scene itself, for clients that draw on their own
//   - txt: the point list and per-worldline speeds and elapsed times
//   - dot and graph: the causal node-link view (see [nodelink])
//
// Basic usage:
//
//	s := scene.Build(d)
//	svg := sink.RenderSVG(s, sink.WithInteractive(), sink.WithTitle("demo"))
//	png, err := sink.RenderPNG(s, sink.WithScale(2))
//
// [Render] dispatches on a format name and reports each artifact to the
// observability render hooks.
//
// [scene.Scene]: github.com/matzehuels/spacetime/pkg/render/scene.Scene
// [nodelink]: github.com/matzehuels/spacetime/pkg/render/nodelink
package sink
