package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	next     key.Binding
	submit   key.Binding
	register key.Binding
	refresh  key.Binding
	request  key.Binding
	events   key.Binding
	logout   key.Binding
	back     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:     key.NewBinding(key.WithKeys("tab", "shift+tab", "up", "down"), key.WithHelp("tab", "next field")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		register: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "login/register")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		request:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "get protected")),
		events:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "events")),
		logout:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "logout")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.submit, k.register},
		{k.refresh, k.request, k.events, k.logout},
		{k.back, k.quit},
	}
}
