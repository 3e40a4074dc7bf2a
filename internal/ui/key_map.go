package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the queue inspector.
type keyMap struct {
	up   key.Binding
	down key.Binding
	next key.Binding
	prev key.Binding
	mode key.Binding
	star key.Binding
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		next: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next track")),
		prev: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous track")),
		mode: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "cycle mode")),
		star: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "star current")),
		quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.prev, k.mode, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.next, k.prev, k.mode},
		{k.star, k.quit},
	}
}
