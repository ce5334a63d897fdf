// Package tui is the terminal front-end: a bubbletea program that draws the
// board with one terminal row per grid row and two columns per cell, and
// feeds mouse events into an interaction controller.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/errors"
	"github.com/matzehuels/spacetime/pkg/gesture"
	"github.com/matzehuels/spacetime/pkg/interaction"
	"github.com/matzehuels/spacetime/pkg/render/scene"
)

// Board placement inside the view: a title line and a blank line sit above
// it, and every cell is cellWidth columns wide.
const (
	boardX    = 0
	boardY    = 2
	cellWidth = 2
)

// holdMsg reports a hold delay elapsing for the press that armed ticket.
type holdMsg struct{ ticket gesture.Ticket }

// Option configures a Model.
type Option func(*Model)

// WithHoldDelay sets how long a press must last to grab a point.
func WithHoldDelay(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.holdDelay = d
		}
	}
}

// WithContext sets the context passed to interaction hooks.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// Model is the bubbletea model for one diagram.
type Model struct {
	ctx       context.Context
	ctrl      *interaction.Controller
	help      help.Model
	holdDelay time.Duration

	fresh  bool   // next placement starts a worldline
	cursor int    // selected row in the points list
	notice string // blocking rejection message
	width  int
	height int
}

// New creates a model editing d.
func New(d diagram.Diagram, opts ...Option) Model {
	m := Model{
		ctx:       context.Background(),
		help:      help.New(),
		holdDelay: gesture.DefaultDelay,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.ctrl = interaction.New(d, interaction.WithContext(m.ctx))
	return m
}

// Run starts the program on the alternate screen and blocks until the user
// quits or ctx is canceled. It returns the final diagram.
func Run(ctx context.Context, m Model) (diagram.Diagram, error) {
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	final, err := p.Run()
	if err != nil {
		return m.Diagram(), err
	}
	return final.(Model).Diagram(), nil
}

// Diagram returns the current diagram.
func (m Model) Diagram() diagram.Diagram { return m.ctrl.Snapshot() }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
	case tea.KeyMsg:
		return m.updateKey(msg)
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case holdMsg:
		m.ctrl.HoldElapsed(msg.ticket)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.notice != "" {
		m.notice = ""
		return m, nil
	}

	points := m.Diagram().Points()
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Fresh):
		m.fresh = !m.fresh
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(points)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Delete):
		if m.cursor < len(points) {
			m.ctrl.Delete(points[m.cursor].Label)
			m.clampCursor()
		}
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	cell, inside := m.cellAt(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if m.notice != "" {
			m.notice = ""
			return m, nil
		}
		if !inside {
			return m, nil
		}
		t := m.ctrl.Press(cell, m.fresh || msg.Alt || msg.Ctrl)
		delay := m.holdDelay
		return m, tea.Tick(delay, func(time.Time) tea.Msg { return holdMsg{ticket: t} })

	case tea.MouseActionRelease:
		before := m.Diagram().NextLabel()
		if err := m.ctrl.Release(cell); err != nil {
			m.notice = errors.UserMessage(err)
			return m, nil
		}
		if m.Diagram().NextLabel() != before {
			m.fresh = false
			m.cursor = len(m.Diagram().Points()) - 1
		}

	case tea.MouseActionMotion:
		if inside {
			m.ctrl.Move(cell)
		} else if _, hovering := m.ctrl.Hover(); hovering || m.ctrl.Dragging() {
			m.ctrl.Leave()
		}
	}
	return m, nil
}

// cellAt maps a terminal position to a board cell and reports whether it
// lies on the board.
func (m Model) cellAt(x, y int) (interaction.Cell, bool) {
	if x < boardX || y < boardY {
		return interaction.Cell{}, false
	}
	c := interaction.Cell{X: (x - boardX) / cellWidth, Y: y - boardY}
	return c, m.Diagram().Grid().Contains(c.X, c.Y)
}

func (m *Model) clampCursor() {
	n := len(m.Diagram().Points())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) scene() scene.Scene {
	var opts []scene.Option
	if c, ok := m.ctrl.Hover(); ok {
		opts = append(opts, scene.WithHover(c))
	}
	return scene.Build(m.Diagram(), opts...)
}
