package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Panel   key.Binding
	Down    key.Binding
	Up      key.Binding
	Open    key.Binding
	ReadAll key.Binding
	More    key.Binding
	Dismiss key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Panel:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
	Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "move")),
	Up:      key.NewBinding(key.WithKeys("k", "up")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	ReadAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "mark all read")),
	More:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
	Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss toast")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Panel, k.Down, k.Open, k.ReadAll, k.More, k.Dismiss, k.Quit}
}
