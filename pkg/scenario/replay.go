package scenario

import (
	"context"

	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/errors"
	"github.com/matzehuels/spacetime/pkg/interaction"
)

// Rejection records a placement the light cone refused.
type Rejection struct {
	Index int // 1-based
	Step  Step
	Err   error
}

// Result is the outcome of a replay.
type Result struct {
	Diagram  diagram.Diagram
	Rejected []Rejection
}

// Replay runs every step against a fresh diagram. Unreachable placements
// are collected in Result.Rejected and replay continues, the way a user
// dismisses the notice and keeps clicking. Any other failure stops the
// replay.
func Replay(ctx context.Context, s *Scenario) (Result, error) {
	c := interaction.New(s.Diagram(), interaction.WithContext(ctx))
	var res Result

	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		err := apply(c, st)
		switch {
		case err == nil:
		case errors.IsUnreachable(err):
			res.Rejected = append(res.Rejected, Rejection{Index: i + 1, Step: st, Err: err})
		default:
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			return Result{}, errors.Wrap(code, err, "step %d (%s)", i+1, st)
		}
	}

	res.Diagram = c.Snapshot()
	return res, nil
}

func apply(c *interaction.Controller, st Step) error {
	switch st.Op {
	case OpPlace:
		cell := interaction.Cell{X: st.X, Y: st.Y}
		c.Press(cell, st.New)
		return c.Release(cell)
	case OpNew:
		c.StartWorldline()
	case OpDelete:
		c.Delete(st.Label)
	case OpMove:
		from := interaction.Cell{X: st.From[0], Y: st.From[1]}
		to := interaction.Cell{X: st.To[0], Y: st.To[1]}
		if !c.HoldElapsed(c.Press(from, false)) {
			c.Leave()
			return errors.New(errors.ErrCodeInvalidScenario, "no point at (%d,%d)", from.X, from.Y)
		}
		c.Move(to)
		return c.Release(to)
	}
	return nil
}
