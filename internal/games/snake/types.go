package snake

// Tile is the content of one board cell.
type Tile uint8

const (
	TileEmpty Tile = iota
	TileSnakeHead
	TileSnakeBody
	TileSnakeTail
	TileApple
)

func (t Tile) String() string {
	switch t {
	case TileEmpty:
		return "empty"
	case TileSnakeHead:
		return "head"
	case TileSnakeBody:
		return "body"
	case TileSnakeTail:
		return "tail"
	case TileApple:
		return "apple"
	default:
		return "unknown"
	}
}

// IsSnake reports whether the tile is part of the snake.
func (t Tile) IsSnake() bool {
	return t == TileSnakeHead || t == TileSnakeBody || t == TileSnakeTail
}

// Direction is a movement command. The numeric values are the wire codes.
type Direction uint8

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	return d <= DirRight
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	default:
		return DirLeft
	}
}

// Delta returns the cell offset of one step in this direction.
// Y grows downwards, matching screen coordinates.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	default:
		return 0, 0
	}
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "unknown"
	}
}

// ParseDirection converts a name produced by String back to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	case "left":
		return DirLeft, true
	case "right":
		return DirRight, true
	}
	return 0, false
}

// Point represents a board coordinate.
type Point struct {
	X, Y int
}

// Tiles is a read-only view of the board.
type Tiles struct {
	width  int
	height int
	cells  []Tile
}

// Width returns the board width in cells.
func (t Tiles) Width() int {
	return t.width
}

// Height returns the board height in cells.
func (t Tiles) Height() int {
	return t.height
}

// At returns the tile at (x, y); out-of-range coordinates read as Empty.
func (t Tiles) At(x, y int) Tile {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return TileEmpty
	}
	return t.cells[y*t.width+x]
}

// Count returns how many cells hold the given tile.
func (t Tiles) Count(kind Tile) int {
	n := 0
	for _, c := range t.cells {
		if c == kind {
			n++
		}
	}
	return n
}
