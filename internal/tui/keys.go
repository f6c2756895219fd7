package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the review screen bindings. It satisfies help.KeyMap.
type keyMap struct {
	Prev        key.Binding
	Next        key.Binding
	Label       key.Binding
	Remove      key.Binding
	ToggleDef   key.Binding
	LoadMore    key.Binding
	Rename      key.Binding
	Organize    key.Binding
	Purge       key.Binding
	Help        key.Binding
	Quit        key.Binding
	Cancel      key.Binding
	Confirm     key.Binding
	Acknowledge key.Binding
}

var keys = keyMap{
	Prev: key.NewBinding(
		key.WithKeys("a", "left", "h"),
		key.WithHelp("a/←", "prev"),
	),
	Next: key.NewBinding(
		key.WithKeys("d", "right", "l"),
		key.WithHelp("d/→", "next"),
	),
	Label: key.NewBinding(
		key.WithKeys("enter", "i"),
		key.WithHelp("enter", "add label"),
	),
	Remove: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "remove label"),
	),
	ToggleDef: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "toggle default"),
	),
	LoadMore: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "load more"),
	),
	Rename: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rename"),
	),
	Organize: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "organize"),
	),
	Purge: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "purge unlabeled"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Acknowledge: key.NewBinding(
		key.WithKeys("enter", "esc", " "),
		key.WithHelp("enter", "back"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Label, k.ToggleDef, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.LoadMore},
		{k.Label, k.Remove, k.ToggleDef},
		{k.Rename, k.Organize, k.Purge},
		{k.Help, k.Quit},
	}
}
