package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	tab       key.Binding
	prev      key.Binding
	left      key.Binding
	right     key.Binding
	watch     key.Binding
	toggle    key.Binding
	watchlist key.Binding
	account   key.Binding
	logout    key.Binding
	remove    key.Binding
	pick      key.Binding
	mode      key.Binding
	reload    key.Binding
	exit      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch")),
		prev:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous")),
		left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
		right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		watch:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play")),
		toggle:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "watchlist +/-")),
		watchlist: key.NewBinding(key.WithKeys("W"), key.WithHelp("W", "my watchlist")),
		account:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "sign in")),
		logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "sign out")),
		remove:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		pick:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		mode:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "login/signup")),
		reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		exit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.exit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.watch, k.toggle, k.watchlist},
		{k.account, k.logout, k.exit},
	}
}
