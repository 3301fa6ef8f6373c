package tui

import (
	"fmt"

	"github.com/vovakirdan/multisnake/internal/core"
	"github.com/vovakirdan/multisnake/internal/input"
)

// cellCols is the number of terminal columns per board cell; terminal
// characters are roughly twice as tall as they are wide.
const cellCols = 2

// ScreenSurface is a render.Surface that draws pixel rectangles into a
// character Screen, one board cell per cellCols x 1 characters.
type ScreenSurface struct {
	screen    *core.Screen
	blockSize int
}

// NewScreenSurface creates a screen sized for a gridW x gridH board.
func NewScreenSurface(gridW, gridH, blockSize int) *ScreenSurface {
	if blockSize <= 0 {
		blockSize = 1
	}
	return &ScreenSurface{
		screen:    core.NewScreen(gridW*cellCols, gridH),
		blockSize: blockSize,
	}
}

// PaintRect fills the characters covering the pixel rectangle.
func (s *ScreenSurface) PaintRect(x, y, w, h int, c core.Color) {
	cx, cy := x/s.blockSize, y/s.blockSize
	cw, ch := max(1, w/s.blockSize), max(1, h/s.blockSize)

	fill := '█'
	if c == core.ColorBlack {
		fill = ' '
	}
	s.screen.FillRect(core.NewRect(cx*cellCols, cy, cw*cellCols, ch), fill, c)
}

// Screen returns the character buffer.
func (s *ScreenSurface) Screen() *core.Screen {
	return s.screen
}

// PixelAt converts a terminal position relative to the board's top-left
// character to the pixel at the centre of that board cell.
func (s *ScreenSurface) PixelAt(col, row int) (input.TouchPoint, bool) {
	if col < 0 || row < 0 || col >= s.screen.Width() || row >= s.screen.Height() {
		return input.TouchPoint{}, false
	}
	half := s.blockSize / 2
	return input.TouchPoint{
		X: (col/cellCols)*s.blockSize + half,
		Y: row*s.blockSize + half,
	}, true
}

// CheckFits reports whether a cols x rows terminal can show the board, its
// frame and the status lines.
func (s *ScreenSurface) CheckFits(cols, rows int) error {
	needW, needH := s.screen.Width()+2, s.screen.Height()+4
	if cols < needW || rows < needH {
		return fmt.Errorf("terminal is %dx%d, the board needs at least %dx%d", cols, rows, needW, needH)
	}
	return nil
}
