package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Select     key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Home       key.Binding
	End        key.Binding
	ClearQuery key.Binding
	DeleteWord key.Binding
}

var defaultKeys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("esc", "ctrl+c")),
	Select:     key.NewBinding(key.WithKeys("enter")),
	Up:         key.NewBinding(key.WithKeys("up")),
	Down:       key.NewBinding(key.WithKeys("down")),
	PageUp:     key.NewBinding(key.WithKeys("pgup")),
	PageDown:   key.NewBinding(key.WithKeys("pgdown")),
	Home:       key.NewBinding(key.WithKeys("home")),
	End:        key.NewBinding(key.WithKeys("end")),
	ClearQuery: key.NewBinding(key.WithKeys("ctrl+u")),
	DeleteWord: key.NewBinding(key.WithKeys("ctrl+w")),
}
