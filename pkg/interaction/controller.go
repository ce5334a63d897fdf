// Package interaction turns discrete pointer events into diagram
// transitions.
//
// A [Controller] owns one diagram snapshot and the hold gesture that
// separates a click (place a point) from a press-and-hold (drag an existing
// point). Front-ends translate their native events into calls on the
// controller and redraw from [Controller.Snapshot] afterwards.
//
// The controller is not safe for concurrent use. Callers serialize access,
// the way a single-threaded event loop would.
package interaction

import (
	"context"
	"time"

	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/errors"
	"github.com/matzehuels/spacetime/pkg/gesture"
	"github.com/matzehuels/spacetime/pkg/observability"
)

// DefaultPitch is the edge length of one grid cell in pixels.
const DefaultPitch = 16

// Cell is a grid position derived from a pointer location.
type Cell = diagram.Cell

// CellAt maps a pixel position to the cell under it. Negative pixels map to
// negative cells, which lie outside every grid.
func CellAt(px, py, pitch int) Cell {
	if pitch <= 0 {
		pitch = DefaultPitch
	}
	return Cell{X: floorDiv(px, pitch), Y: floorDiv(py, pitch)}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

type press struct {
	seq   uint64
	cell  Cell
	fresh bool
	label int
	onPt  bool
}

// Controller is the pointer state machine for one diagram.
type Controller struct {
	ctx   context.Context
	d     diagram.Diagram
	hold  gesture.Hold
	press *press
	drag  *diagram.Ref
	seq   uint64

	hover    Cell
	hovering bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithContext sets the context passed to observability hooks.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// New returns a controller owning d.
func New(d diagram.Diagram, opts ...Option) *Controller {
	c := &Controller{ctx: context.Background(), d: d}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Press records a pointer press on cell and arms the hold gesture. The
// returned ticket is handed back through [Controller.HoldElapsed] once the
// hold delay has passed.
func (c *Controller) Press(cell Cell, fresh bool) gesture.Ticket {
	c.record(cell, fresh)
	return c.hold.Arm()
}

// PressTimed is Press driven by a timer: after delay, the grab is handed to
// serialize, which must run it under the same lock that guards every other
// call on the controller. The grab does nothing if the press it was
// scheduled for has since been released or replaced.
func (c *Controller) PressTimed(cell Cell, fresh bool, delay time.Duration, serialize func(grab func() bool)) gesture.Ticket {
	seq := c.record(cell, fresh)
	return c.hold.Schedule(delay, func(gesture.Ticket) {
		serialize(func() bool {
			if c.press == nil || c.press.seq != seq {
				return false
			}
			return c.grab()
		})
	})
}

func (c *Controller) record(cell Cell, fresh bool) uint64 {
	c.seq++
	c.drag = nil
	c.press = &press{seq: c.seq, cell: cell, fresh: fresh}
	if ref, ok := c.d.Locate(cell.X, cell.Y); ok {
		if p, ok := c.d.At(ref); ok {
			c.press.label, c.press.onPt = p.Label, true
		}
	}
	return c.seq
}

// HoldElapsed reports the hold delay passing for ticket. If the ticket is
// still armed and the press landed on a point, that point is grabbed for
// dragging. It reports whether a drag began.
func (c *Controller) HoldElapsed(t gesture.Ticket) bool {
	if !c.hold.Claim(t) {
		return false
	}
	return c.grab()
}

// grab resolves the pressed point by label; its index may have shifted.
func (c *Controller) grab() bool {
	if c.press == nil || !c.press.onPt {
		return false
	}
	ref, ok := c.d.Lookup(c.press.label)
	if !ok {
		return false
	}
	c.drag = &ref
	return true
}

// Move tracks the pointer. While dragging, the grabbed point follows it
// without causality checks.
func (c *Controller) Move(cell Cell) {
	c.hover, c.hovering = cell, c.d.Grid().Contains(cell.X, cell.Y)
	if c.drag == nil {
		return
	}
	before, _ := c.d.At(*c.drag)
	c.d = c.d.Move(*c.drag, cell.X, cell.Y)
	if after, ok := c.d.At(*c.drag); ok && after != before {
		observability.Interaction().OnMove(c.ctx, after.Label)
	}
}

// Release ends the gesture. A release before the hold fired is a click and
// places a point at the pressed cell; a release while dragging drops the
// point where it is. An UNREACHABLE error reports a rejected placement.
func (c *Controller) Release(cell Cell) error {
	c.hold.Cancel()
	p := c.press
	c.press = nil
	if c.drag != nil {
		c.drag = nil
		return nil
	}
	if p == nil {
		return nil
	}
	return c.place(p.cell, p.fresh)
}

func (c *Controller) place(cell Cell, fresh bool) error {
	next, pl, err := c.d.Place(cell.X, cell.Y, fresh)
	if err != nil {
		if errors.IsUnreachable(err) {
			observability.Interaction().OnReject(c.ctx, cell.X, cell.Y)
		}
		return err
	}
	c.d = next
	observability.Interaction().OnPlace(c.ctx, pl.Outcome.String(), pl.Point.Label)
	return nil
}

// Leave reports the pointer leaving the board. Any pending hold is
// canceled, a drag in progress ends, and the press is forgotten.
func (c *Controller) Leave() {
	c.hold.Cancel()
	c.press = nil
	c.drag = nil
	c.hovering = false
}

// Delete removes the point carrying label. Unknown labels are ignored.
// A drag in progress ends; a pending press keeps its hold and grabs its
// point by label if that point survives.
func (c *Controller) Delete(label int) {
	if _, ok := c.d.Lookup(label); !ok {
		return
	}
	c.d = c.d.Delete(label)
	c.drag = nil
	observability.Interaction().OnDelete(c.ctx, label)
}

// StartWorldline makes the next placement begin a new worldline.
func (c *Controller) StartWorldline() {
	c.d = c.d.StartWorldline()
}

// Snapshot returns the current diagram.
func (c *Controller) Snapshot() diagram.Diagram { return c.d }

// Dragging reports whether a point is grabbed.
func (c *Controller) Dragging() bool { return c.drag != nil }

// Pending reports whether a press is waiting for the hold delay.
func (c *Controller) Pending() bool { return c.hold.Pending() }

// Hover returns the cell under the pointer, if it is on the board.
func (c *Controller) Hover() (Cell, bool) { return c.hover, c.hovering }
