package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/multisnake/internal/core"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorBlack: lipgloss.NewStyle(),
	core.ColorRed:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorBlue:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	core.ColorWhite: lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorGray:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

var (
	hudStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	hudValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	peerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	gameOverStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	frameStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorBlack]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}
