package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/spacetime/internal/tui"
	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/errors"
)

// tuiCommand creates the interactive terminal command.
func (c *CLI) tuiCommand() *cobra.Command {
	var cells, rows int

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit a diagram in the terminal",
		Long: `Open an interactive diagram in the terminal.

Click a cell to place an event. Alt- or Ctrl-click (or press n first) to
start a new worldline. Press and hold an event to drag it. Select events
with j/k and delete them with x.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("cells") {
				c.cfg.Cells = cells
			}
			if cmd.Flags().Changed("rows") {
				c.cfg.Rows = rows
			}
			if err := errors.ValidateGrid(c.cfg.Cells, c.cfg.Rows); err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			logger.Debug("Starting terminal UI", "cells", c.cfg.Cells, "rows", c.cfg.Rows)

			d := diagram.New(c.cfg.Grid(), c.cfg.DiagramOptions()...)
			m := tui.New(d, tui.WithHoldDelay(c.cfg.HoldDelay), tui.WithContext(ctx))
			final, err := tui.Run(ctx, m)
			if err != nil {
				return err
			}

			printSuccess("Session ended")
			printStats(final.PointCount(), nonEmptyLines(final), 0)
			return nil
		},
	}

	cmd.Flags().IntVar(&cells, "cells", 0, "grid width in cells (default from config)")
	cmd.Flags().IntVar(&rows, "rows", 0, "grid height in cells (default from config)")

	return cmd
}

func nonEmptyLines(d diagram.Diagram) int {
	n := 0
	for _, w := range d.Worldlines() {
		if !w.Empty() {
			n++
		}
	}
	return n
}
