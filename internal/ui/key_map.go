package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	left       key.Binding
	right      key.Binding
	commit     key.Binding
	revert     key.Binding
	play       key.Binding
	stop       key.Binding
	connect    key.Binding
	disconnect key.Binding
	dismiss    key.Binding
	help       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "lower")),
		right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "raise")),
		commit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		revert:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "revert")),
		play:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play")),
		stop:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		connect:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
		disconnect: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disconnect")),
		dismiss:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
		help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.commit, k.play, k.stop, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.left, k.right},
		{k.commit, k.revert, k.play, k.stop},
		{k.connect, k.disconnect, k.dismiss},
		{k.help, k.quit},
	}
}
