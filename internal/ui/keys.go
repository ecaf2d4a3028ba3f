package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard shortcuts
type KeyMap struct {
	Back      key.Binding
	NextPage  key.Binding
	Open      key.Binding
	PrevPage  key.Binding
	Quit      key.Binding
	Refresh   key.Binding
	RefreshPR key.Binding
	Select    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]", "right"),
			key.WithHelp("]", "next page"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "left"),
			key.WithHelp("[", "prev page"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		RefreshPR: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "refresh selected PR"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
	}
}
