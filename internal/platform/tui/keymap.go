package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/multisnake/internal/games/snake"
)

// KeyMap defines the board's key bindings. Direction keys press the centre
// of the matching touch zone, so they go through the same mapper as the
// mouse does.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Tap        key.Binding
	Screenshot key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Tap, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Tap, k.Screenshot, k.Quit},
	}
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "w", "k"),
			key.WithHelp("↑/w", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "s", "j"),
			key.WithHelp("↓/s", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "a", "h"),
			key.WithHelp("←/a", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d", "l"),
			key.WithHelp("→/d", "right"),
		),
		Tap: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "tap / restart"),
		),
		Screenshot: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "screenshot"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Direction returns the heading a key asks for.
func (k KeyMap) Direction(msg tea.KeyMsg) (snake.Direction, bool) {
	switch {
	case key.Matches(msg, k.Up):
		return snake.DirUp, true
	case key.Matches(msg, k.Down):
		return snake.DirDown, true
	case key.Matches(msg, k.Left):
		return snake.DirLeft, true
	case key.Matches(msg, k.Right):
		return snake.DirRight, true
	}
	return 0, false
}
