package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit   key.Binding
	Fresh  key.Binding
	Up     key.Binding
	Down   key.Binding
	Delete key.Binding
	Help   key.Binding
}

var keys = keyMap{
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Fresh:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new worldline")),
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "previous point")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "next point")),
	Delete: key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete point")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Fresh, k.Delete, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Delete},
		{k.Fresh, k.Help, k.Quit},
	}
}
