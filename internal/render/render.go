// Package render projects the snake board onto a drawing surface.
package render

import (
	"github.com/vovakirdan/multisnake/internal/core"
	"github.com/vovakirdan/multisnake/internal/games/snake"
)

// Surface is the drawing capability of the display.
type Surface interface {
	// PaintRect fills a w x h pixel rectangle whose top-left corner is (x, y).
	PaintRect(x, y, w, h int, c core.Color)
}

// TileColor maps a tile kind to its paint color.
func TileColor(t snake.Tile) core.Color {
	switch t {
	case snake.TileApple:
		return core.ColorGreen
	case snake.TileSnakeHead, snake.TileSnakeBody, snake.TileSnakeTail:
		return core.ColorRed
	default:
		return core.ColorBlack
	}
}

// PeerColor is used for the remote player's head.
const PeerColor = core.ColorBlue

// Draw paints every cell of the board as a blockSize square.
func Draw(tiles snake.Tiles, blockSize int, dst Surface) {
	for y := 0; y < tiles.Height(); y++ {
		for x := 0; x < tiles.Width(); x++ {
			dst.PaintRect(x*blockSize, y*blockSize, blockSize, blockSize, TileColor(tiles.At(x, y)))
		}
	}
}

// DrawPeer paints the remote head on top of the board.
// Coordinates outside the board are ignored.
func DrawPeer(head snake.Point, tiles snake.Tiles, blockSize int, dst Surface) {
	if head.X < 0 || head.X >= tiles.Width() || head.Y < 0 || head.Y >= tiles.Height() {
		return
	}
	dst.PaintRect(head.X*blockSize, head.Y*blockSize, blockSize, blockSize, PeerColor)
}

// Discard is a Surface that paints nothing, for boards without a display.
var Discard Surface = discard{}

type discard struct{}

func (discard) PaintRect(int, int, int, int, core.Color) {}
