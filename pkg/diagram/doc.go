// Package diagram holds the state of a Minkowski (spacetime) diagram: the
// points a user placed on a grid and the worldlines connecting them.
//
// # Overview
//
// A [Diagram] is an immutable snapshot. Every operation returns a new value
// and leaves the receiver untouched, so front-ends can keep the previous
// snapshot around and simply redraw from the latest one. Slices handed out by
// accessors are copies.
//
// The vertical axis is time: row 0 is the earliest instant and rows grow
// towards the future. The horizontal axis is space.
//
// # Placement
//
// [Diagram.Place] extends the current (last) worldline. A point is accepted
// only if it lies inside the forward light cone of the previous point:
//
//	dx := |x - last.X|
//	dy := |y - last.Y|
//	accepted := dx <= dy && y >= last.Y
//
// Rejections return an [errors.ErrCodeUnreachable] error and leave the
// diagram unchanged. Setting the fresh flag starts a new worldline instead.
//
// # Labels
//
// Every accepted point gets the next global label. Labels are never reused,
// even after deletion, and the counter lives inside the snapshot.
//
// # Basic Usage
//
//	grid, _ := diagram.NewGrid(8, 8)
//	d := diagram.New(grid)
//	d, _, _ = d.Place(0, 0, false)
//	d, _, _ = d.Place(1, 1, false)
//	_, _, err := d.Place(3, 1, false) // errors.IsUnreachable(err) == true
//
// [Diagram.Move] relocates a point without re-validating causality. This
// mirrors free drag-and-drop repositioning and is deliberately asymmetric
// with placement.
package diagram
