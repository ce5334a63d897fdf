package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/spacetime/pkg/diagram"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHeading  = lipgloss.NewStyle().Bold(true).Foreground(colorGray)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleValue    = lipgloss.NewStyle().Foreground(colorWhite)
	styleWarning  = lipgloss.NewStyle().Foreground(colorYellow)
	styleSelected = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	styleEmpty    = lipgloss.NewStyle().Foreground(colorDim)
	styleForward  = lipgloss.NewStyle().Foreground(colorYellow)
	styleBackward = lipgloss.NewStyle().Foreground(colorBlue)

	styleModal = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Padding(1, 3)
)

func pointStyle(c diagram.Color) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color(string(c)))
}

func pathStyle(c diagram.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(string(c)))
}
