package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Toggle     key.Binding
	Search     key.Binding
	Facet      key.Binding
	PrevColumn key.Binding
	NextColumn key.Binding
	Sort       key.Binding
	Reset      key.Binding
	Copy       key.Binding
	Close      key.Binding
	Confirm    key.Binding
	ClearFacet key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:     key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:        key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:     key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Toggle:     key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "select")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Facet:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter column")),
		PrevColumn: key.NewBinding(key.WithKeys("[", "left", "h"), key.WithHelp("[", "prev column")),
		NextColumn: key.NewBinding(key.WithKeys("]", "right", "l"), key.WithHelp("]", "next column")),
		Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Reset:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset view")),
		Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy export")),
		Close:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Confirm:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		ClearFacet: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear column")),
	}
}

func (k keyMap) tableHelp() []key.Binding {
	return []key.Binding{k.Down, k.Toggle, k.Search, k.Facet, k.PrevColumn, k.NextColumn, k.Sort, k.Reset, k.Copy, k.Quit}
}

func (k keyMap) facetHelp() []key.Binding {
	return []key.Binding{k.Down, k.Toggle, k.ClearFacet, k.Close}
}

func (k keyMap) searchHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Close}
}
