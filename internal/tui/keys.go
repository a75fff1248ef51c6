package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard keybindings.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	Refresh    key.Binding
	RefreshAll key.Binding
	Edit       key.Binding
	Input      key.Binding
	Kind       key.Binding
	AddRich    key.Binding
	AddChat    key.Binding
	Remove     key.Binding
	Quit       key.Binding

	// Prompt editor
	Submit key.Binding
	Cancel key.Binding
}

// DefaultKeyMap provides the default keybindings.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	MoveUp: key.NewBinding(
		key.WithKeys("K", "shift+up"),
		key.WithHelp("K", "move up"),
	),
	MoveDown: key.NewBinding(
		key.WithKeys("J", "shift+down"),
		key.WithHelp("J", "move down"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	RefreshAll: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "refresh all"),
	),
	Edit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "prompt"),
	),
	Input: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "input"),
	),
	Kind: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "kind"),
	),
	AddRich: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add panel"),
	),
	AddChat: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "add chat"),
	),
	Remove: key.NewBinding(
		key.WithKeys("x", "delete"),
		key.WithHelp("x", "remove"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "submit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

func (k KeyMap) listHints() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.MoveDown, k.MoveUp, k.Refresh, k.RefreshAll, k.Edit, k.Input, k.Kind, k.AddRich, k.AddChat, k.Remove, k.Quit}
}

func (k KeyMap) editHints() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel}
}
