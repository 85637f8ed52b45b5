package session

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the search session. Printable input that
// matches no binding is appended to the query.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Backspace key.Binding
	Quit      key.Binding
}

// DefaultKeys is the binding set used by New.
var DefaultKeys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "previous"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "next"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "edit"),
	),
	Backspace: key.NewBinding(
		key.WithKeys("backspace", "ctrl+h"),
		key.WithHelp("⌫", "delete"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}
