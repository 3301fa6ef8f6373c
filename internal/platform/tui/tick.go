// Package tui hosts a board in the terminal: the screen buffer is the
// display, the mouse and arrow keys are the touch panel, and Bubble Tea's
// tick drives the game loop.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to trigger a game loop tick.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends a tick after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
