// Package scenario loads and replays scripted diagram sessions.
//
// A scenario is a grid plus an ordered list of steps, written in TOML or
// YAML:
//
//	name = "twin paradox"
//
//	[grid]
//	cells = 16
//	rows = 16
//
//	[[steps]]
//	op = "place"
//	x = 8
//	y = 0
//
//	[[steps]]
//	op = "place"
//	x = 12
//	y = 4
//
// Steps run through the same pointer state machine the interactive
// front-ends use, so a replayed scenario ends in exactly the state a user
// clicking the same cells would see. Scenarios are input only; diagrams
// are never written back.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/errors"
)

// Step operations.
const (
	OpPlace  = "place"
	OpNew    = "new"
	OpDelete = "delete"
	OpMove   = "move"
)

// Input formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// Scenario is a replayable script.
type Scenario struct {
	Name    string   `toml:"name" yaml:"name"`
	Grid    GridSpec `toml:"grid" yaml:"grid"`
	Palette []string `toml:"palette" yaml:"palette"`
	Steps   []Step   `toml:"steps" yaml:"steps"`
}

// GridSpec sizes the diagram.
type GridSpec struct {
	Cells int `toml:"cells" yaml:"cells"`
	Rows  int `toml:"rows" yaml:"rows"`
}

// Step is one user action.
//
//   - place: click cell (X, Y); New starts a new worldline
//   - new: start a new worldline without placing
//   - delete: delete the point carrying Label
//   - move: press and hold the point at From, drag it to To
type Step struct {
	Op    string `toml:"op" yaml:"op"`
	X     int    `toml:"x" yaml:"x"`
	Y     int    `toml:"y" yaml:"y"`
	New   bool   `toml:"new" yaml:"new"`
	Label int    `toml:"label" yaml:"label"`
	From  []int  `toml:"from" yaml:"from"`
	To    []int  `toml:"to" yaml:"to"`
}

func (s Step) String() string {
	switch s.Op {
	case OpPlace:
		if s.New {
			return fmt.Sprintf("place (%d,%d) new", s.X, s.Y)
		}
		return fmt.Sprintf("place (%d,%d)", s.X, s.Y)
	case OpDelete:
		return fmt.Sprintf("delete %d", s.Label)
	case OpMove:
		return fmt.Sprintf("move %v -> %v", s.From, s.To)
	}
	return s.Op
}

// Load reads a scenario file. The format follows the extension: .toml,
// or .yaml/.yml.
func Load(path string) (*Scenario, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scenario %s not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data, format)
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat,
		"unsupported scenario file %s (want .toml, .yaml or .yml)", filepath.Base(path))
}

// Parse decodes and validates a scenario.
func Parse(data []byte, format string) (*Scenario, error) {
	var s Scenario
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "decode scenario")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidScenario, "unknown key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "decode scenario")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported scenario format: %s", format)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the grid, the palette and every step.
func (s *Scenario) Validate() error {
	if err := errors.ValidateGrid(s.Grid.Cells, s.Grid.Rows); err != nil {
		return err
	}
	for _, c := range s.Palette {
		if err := errors.ValidateColor(c); err != nil {
			return err
		}
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return errors.New(errors.ErrCodeInvalidScenario, "step %d: %s", i+1, err.Error())
		}
	}
	return nil
}

func (s Step) validate() error {
	switch s.Op {
	case OpPlace, OpNew, OpDelete:
		return nil
	case OpMove:
		if len(s.From) != 2 || len(s.To) != 2 {
			return fmt.Errorf("move needs from = [x, y] and to = [x, y]")
		}
		return nil
	case "":
		return fmt.Errorf("missing op")
	}
	return fmt.Errorf("unknown op %q", s.Op)
}

// Diagram returns the empty diagram the scenario starts from.
func (s *Scenario) Diagram() diagram.Diagram {
	g := diagram.Grid{Cells: s.Grid.Cells, Rows: s.Grid.Rows}
	if len(s.Palette) == 0 {
		return diagram.New(g)
	}
	pal := make([]diagram.Color, len(s.Palette))
	for i, c := range s.Palette {
		pal[i] = diagram.Color(c)
	}
	return diagram.New(g, diagram.WithPalette(pal))
}
