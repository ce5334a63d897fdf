// Package pkg provides the core libraries for spacetime, an editor for
// Minkowski diagrams.
//
// # Overview
//
// A diagram is a grid of cells in which a user places events and chains
// them into worldlines. Each new event must lie inside the forward light
// cone of the previous one. Everything drawn on screen is derived from that
// model after every change. The pkg directory is organized into three
// areas:
//
//  1. Model - [diagram], [physics], [geometry]
//  2. Interaction - [gesture], [interaction], [scenario]
//  3. Output and infrastructure - [render], [cache], [config], [errors],
//     [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	pointer events / scenario steps
//	         ↓
//	    [interaction] (press, hold, drag, release)
//	         ↓
//	    [diagram] (light-cone validated state transitions)
//	         ↓
//	    [render/scene] (cells, lines, cones, speeds, proper times)
//	         ↓
//	    SVG/PNG/PDF/JSON/text/DOT output
//
// # Quick Start
//
//	d := diagram.New(diagram.Grid{Cells: 16, Rows: 16})
//	d, _, _ = d.Place(8, 0, false)
//	d, _, err := d.Place(12, 4, false) // on the light cone: v = 1.00c
//	if errors.IsUnreachable(err) {
//	    // outside the light cone, d is unchanged
//	}
//
//	s := scene.Build(d)
//	svg, _ := sink.Render(ctx, s, sink.FormatSVG, sink.Options{})
//
// [diagram]: github.com/matzehuels/spacetime/pkg/diagram
// [physics]: github.com/matzehuels/spacetime/pkg/physics
// [geometry]: github.com/matzehuels/spacetime/pkg/geometry
// [gesture]: github.com/matzehuels/spacetime/pkg/gesture
// [interaction]: github.com/matzehuels/spacetime/pkg/interaction
// [scenario]: github.com/matzehuels/spacetime/pkg/scenario
// [render]: github.com/matzehuels/spacetime/pkg/render
// [render/scene]: github.com/matzehuels/spacetime/pkg/render/scene
// [cache]: github.com/matzehuels/spacetime/pkg/cache
// [config]: github.com/matzehuels/spacetime/pkg/config
// [errors]: github.com/matzehuels/spacetime/pkg/errors
// [observability]: github.com/matzehuels/spacetime/pkg/observability
// [buildinfo]: github.com/matzehuels/spacetime/pkg/buildinfo
package pkg
