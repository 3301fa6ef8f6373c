package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/multisnake/internal/games/snake"
	"github.com/vovakirdan/multisnake/internal/input"
	"github.com/vovakirdan/multisnake/internal/loop"
	"github.com/vovakirdan/multisnake/internal/storage"
)

// boardOffset is where the board's first character sits on the terminal,
// inside the frame border.
const boardOffset = 1

// Model is the Bubble Tea model hosting one board.
type Model struct {
	loop    *loop.Loop
	surface *ScreenSurface
	touch   *TouchPanel
	store   *storage.Store
	logger  *log.Logger
	keys    KeyMap
	help    help.Model

	frame    loop.Frame
	best     int
	quitting bool
}

// NewModel creates a model around a loop whose surface and touch source are
// the given ScreenSurface and TouchPanel. store may be nil.
func NewModel(l *loop.Loop, surface *ScreenSurface, touch *TouchPanel, store *storage.Store, logger *log.Logger) Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return Model{
		loop:    l,
		surface: surface,
		touch:   touch,
		store:   store,
		logger:  logger,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("multisnake"),
		tickCmd(m.loop.Interval()),
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey turns keys into taps on the touch panel.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Screenshot):
		m.saveScreenshot()
		return m, nil
	case key.Matches(msg, m.keys.Tap):
		m.touch.Tap(m.centre())
		return m, nil
	}

	if d, ok := m.keys.Direction(msg); ok {
		if p, ok := m.loop.Mapper().Target(d); ok {
			m.touch.Tap(p)
		}
	}
	return m, nil
}

// handleMouse treats the left button as a finger on the panel.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress, tea.MouseActionMotion:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if p, ok := m.surface.PixelAt(msg.X-boardOffset, msg.Y-boardOffset); ok {
			m.touch.Press(p)
		}
	case tea.MouseActionRelease:
		m.touch.Release()
	}
	return m, nil
}

// handleTick runs one loop iteration.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.frame = m.loop.Tick()

	if m.frame.Outcome == snake.OutcomeCollided && m.store != nil {
		best, err := m.store.BestLength()
		if err != nil {
			m.logger.Warn("could not read best length", "error", err)
		} else {
			m.best = best
		}
	}

	return m, tickCmd(m.loop.Interval())
}

// centre returns the middle of the panel, which belongs to no zone.
func (m Model) centre() input.TouchPoint {
	w := m.loop.World()
	bs := m.surface.blockSize
	return input.TouchPoint{X: w.Width() * bs / 2, Y: w.Height() * bs / 2}
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	dir := filepath.Join(os.Getenv("HOME"), ".multisnake", "screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.logger.Warn("screenshot failed", "error", err)
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("multisnake_%s.txt", timestamp))

	if err := os.WriteFile(path, []byte(m.surface.Screen().String()), 0o600); err != nil {
		m.logger.Warn("screenshot failed", "error", err)
		return
	}
	m.logger.Info("screenshot saved", "path", path)
}

// View renders the board, the status line and the key help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(frameStyle.Render(RenderScreen(m.surface.Screen())))
	sb.WriteRune('\n')
	sb.WriteString(m.statusLine())
	sb.WriteRune('\n')
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) statusLine() string {
	w := m.loop.World()

	parts := []string{
		hudStyle.Render("length ") + hudValueStyle.Render(fmt.Sprint(w.Len())),
		hudStyle.Render("apples ") + hudValueStyle.Render(fmt.Sprint(w.Eaten())),
		hudStyle.Render("best ") + hudValueStyle.Render(fmt.Sprint(m.best)),
	}

	if m.loop.Solo() {
		parts = append(parts, hudStyle.Render("solo"))
	} else if remote, ok := m.loop.Remote(); ok {
		parts = append(parts, peerStyle.Render(fmt.Sprintf("peer #%d at (%d,%d) %s",
			remote.ID, remote.Head.X, remote.Head.Y, remote.Dir)))
	} else {
		parts = append(parts, hudStyle.Render("waiting for peer"))
	}

	if w.State() == snake.StateGameOver {
		parts = append(parts, gameOverStyle.Render("GAME OVER, tap to restart"))
	}
	return strings.Join(parts, "   ")
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(l *loop.Loop, surface *ScreenSurface, touch *TouchPanel, store *storage.Store, logger *log.Logger) error {
	model := NewModel(l, surface, touch, store, logger)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Mouse presses and drags are touches
	)

	_, err := p.Run()
	return err
}
