package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	search  key.Binding
	submit  key.Binding
	cancel  key.Binding
	watched key.Binding
	liked   key.Binding
	signIn  key.Binding
	signOut key.Binding
	dismiss key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		watched: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "watched")),
		liked:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		signIn:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "sign in")),
		signOut: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sign out")),
		dismiss: key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "dismiss")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.search, k.submit},
		{k.watched, k.liked},
		{k.signIn, k.signOut, k.quit},
	}
}
