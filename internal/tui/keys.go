package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/cj3636/gcontains/internal/config"
)

type keyMap struct {
	Quit     key.Binding
	Help     key.Binding
	Variants key.Binding
	Reverse  key.Binding
	Detail   key.Binding
	Close    key.Binding
	Down     key.Binding
	Up       key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

func newKeyMap(kb config.Keybindings) keyMap {
	kb = config.MergeKeybindings(kb)
	bind := func(action, desc string) key.Binding {
		keys := kb[action]
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(strings.Join(keys, "/"), desc))
	}
	return keyMap{
		Quit:     bind("quit", "quit"),
		Help:     bind("toggle_help", "help"),
		Variants: bind("toggle_variants", "variants"),
		Reverse:  bind("toggle_reverse", "reverse"),
		Detail:   bind("show_detail", "compare variants"),
		Close:    bind("close_detail", "close panel"),
		Down:     bind("scroll_down", "down"),
		Up:       bind("scroll_up", "up"),
		PageDown: bind("page_down", "half page down"),
		PageUp:   bind("page_up", "half page up"),
		Top:      bind("go_top", "top"),
		Bottom:   bind("go_bottom", "bottom"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Variants, k.Reverse, k.Detail, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.PageDown, k.PageUp},
		{k.Top, k.Bottom},
		{k.Variants, k.Reverse, k.Detail, k.Close},
		{k.Help, k.Quit},
	}
}
