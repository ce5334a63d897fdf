package diagram

import "github.com/matzehuels/spacetime/pkg/errors"

// Grid is the immutable coordinate domain of a diagram:
// 0 <= x < Cells and 0 <= y < Rows.
type Grid struct {
	Cells int `json:"cells"`
	Rows  int `json:"rows"`
}

// NewGrid validates the dimensions and returns a Grid.
func NewGrid(cells, rows int) (Grid, error) {
	if err := errors.ValidateGrid(cells, rows); err != nil {
		return Grid{}, err
	}
	return Grid{Cells: cells, Rows: rows}, nil
}

// Contains reports whether (x, y) lies inside the grid.
func (g Grid) Contains(x, y int) bool {
	return x >= 0 && x < g.Cells && y >= 0 && y < g.Rows
}

// Cell is a grid coordinate without identity.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}
