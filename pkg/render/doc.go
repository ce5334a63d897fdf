// Package render groups the diagram renderers.
//
// # Overview
//
// Rendering is split in two steps. [scene] derives a format-independent
// view model from a diagram: colored cells, worldline segments, the light
// cones of the current event, labels, and the per-segment physics table.
// Renderers only ever see a scene, so every front-end draws exactly the
// same thing.
//
//   - [sink]: SVG, PNG, PDF, JSON and text writers, plus the format registry
//   - [nodelink]: the events as a causal graph, via Graphviz
//
// # Example
//
//	s := scene.Build(d, scene.WithPitch(24))
//	png, err := sink.Render(ctx, s, sink.FormatPNG, sink.Options{
//	    PNG: []sink.PNGOption{sink.WithScale(3)},
//	})
//
//	dot := nodelink.ToDOT(s, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [scene]: github.com/matzehuels/spacetime/pkg/render/scene
// [sink]: github.com/matzehuels/spacetime/pkg/render/sink
// [nodelink]: github.com/matzehuels/spacetime/pkg/render/nodelink
package render
