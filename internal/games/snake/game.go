// Package snake implements the tile-grid snake world: the dense board, the
// snake's segment chain, apple placement and the Running/GameOver machine.
// It performs no I/O.
package snake

import (
	"errors"
	"math/rand"
	"slices"
	"time"

	"github.com/vovakirdan/multisnake/internal/core"
)

// ErrEmptyGrid is returned by New when a board dimension is zero.
var ErrEmptyGrid = errors.New("snake: grid width and height must be positive")

// DefaultStart is the head position of a fresh board.
var DefaultStart = Point{X: 25, Y: 10}

// State is the world's lifecycle state.
type State uint8

const (
	StateRunning State = iota
	StateGameOver
)

func (s State) String() string {
	if s == StateGameOver {
		return "game_over"
	}
	return "running"
}

// Outcome describes what a single Step did.
type Outcome uint8

const (
	OutcomeIdle     Outcome = iota // world is in GameOver, nothing happened
	OutcomeMoved                   // plain shift
	OutcomeAte                     // apple consumed, snake grew
	OutcomeHalted                  // requested and last direction both leave the board
	OutcomeCollided                // head ran into its own body
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeMoved:
		return "moved"
	case OutcomeAte:
		return "ate"
	case OutcomeHalted:
		return "halted"
	case OutcomeCollided:
		return "collided"
	default:
		return "unknown"
	}
}

// Rand is the uniform generator used for apple placement.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Option customizes a World at construction time.
type Option func(*World)

// WithStart overrides the head position used by New and Reset.
func WithStart(p Point) Option {
	return func(w *World) { w.start = p }
}

// WithDirection overrides the heading used by New and Reset.
func WithDirection(d Direction) Option {
	return func(w *World) { w.startDir = d }
}

// WithRand injects the apple placement generator.
func WithRand(r Rand) Option {
	return func(w *World) { w.rng = r }
}

// World owns the board and the snake. It is mutated only through Step and Reset.
type World struct {
	width  int
	height int
	cells  []Tile // row-major, width*height

	snake     []Point // head at index 0
	direction Direction
	state     State

	apple    Point
	hasApple bool
	eaten    int
	ticks    uint64

	start    Point
	startDir Direction
	rng      Rand
}

// New creates a board of width x height cells with a single head at the start
// position. The start is clamped into the board for boards smaller than it.
func New(width, height int, opts ...Option) (*World, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyGrid
	}

	w := &World{
		width:    width,
		height:   height,
		cells:    make([]Tile, width*height),
		start:    DefaultStart,
		startDir: DirRight,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		w.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // gameplay randomness
	}
	if !w.startDir.Valid() {
		w.startDir = DirRight
	}
	w.start = Point{
		X: core.Clamp(w.start.X, 0, width-1),
		Y: core.Clamp(w.start.Y, 0, height-1),
	}

	w.Reset()
	return w, nil
}

// Reset returns the world to its initial board: one head at the start
// position, every other cell Empty, Running. Calling it twice is harmless.
func (w *World) Reset() {
	for i := range w.cells {
		w.cells[i] = TileEmpty
	}
	w.snake = append(w.snake[:0], w.start)
	w.direction = w.startDir
	w.state = StateRunning
	w.hasApple = false
	w.eaten = 0
	w.ticks = 0
	w.set(w.start, TileSnakeHead)
}

// Step advances the snake by one cell.
//
// A direction that would leave the board is ignored and the snake keeps its
// last direction; when that is blocked too the snake stays where it is.
func (w *World) Step(dir Direction) Outcome {
	if w.state == StateGameOver {
		return OutcomeIdle
	}
	w.ticks++

	applied := dir
	next, ok := w.neighbor(dir)
	if !ok {
		applied = w.direction
		next, ok = w.neighbor(w.direction)
	}
	if !ok {
		return OutcomeHalted
	}
	w.direction = applied

	switch w.at(next) {
	case TileSnakeBody, TileSnakeTail:
		w.state = StateGameOver
		return OutcomeCollided
	case TileApple:
		w.grow(next)
		w.eaten++
		w.hasApple = false
		w.placeApple()
		return OutcomeAte
	}

	vacated := w.snake[len(w.snake)-1]
	w.shift(next)
	if !w.hasApple {
		w.placeApple(vacated)
	}
	return OutcomeMoved
}

// shift moves every segment one position toward the head and frees the old tail cell.
func (w *World) shift(next Point) {
	tail := w.snake[len(w.snake)-1]
	w.set(tail, TileEmpty)

	copy(w.snake[1:], w.snake[:len(w.snake)-1])
	w.snake[0] = next
	w.paintEnds()
}

// grow prepends the new head and keeps the tail where it is.
func (w *World) grow(next Point) {
	w.snake = append(w.snake, Point{})
	copy(w.snake[1:], w.snake[:len(w.snake)-1])
	w.snake[0] = next
	w.paintEnds()
}

// paintEnds repaints the only segments whose role can change in one step:
// the head, the segment right behind it, and the tail.
func (w *World) paintEnds() {
	last := len(w.snake) - 1
	w.set(w.snake[0], TileSnakeHead)
	if last == 0 {
		return
	}
	if last > 1 {
		w.set(w.snake[1], TileSnakeBody)
	}
	w.set(w.snake[last], TileSnakeTail)
}

// placeApple puts an apple on a uniformly chosen Empty cell, skipping the
// cells in avoid unless nothing else is free. With no Empty cell left
// nothing is placed.
func (w *World) placeApple(avoid ...Point) {
	var free, skipped []int
	for i, t := range w.cells {
		if t != TileEmpty {
			continue
		}
		if slices.Contains(avoid, Point{X: i % w.width, Y: i / w.width}) {
			skipped = append(skipped, i)
			continue
		}
		free = append(free, i)
	}
	if len(free) == 0 {
		free = skipped
	}
	if len(free) == 0 {
		w.hasApple = false
		return
	}

	idx := free[w.rng.Intn(len(free))]
	w.apple = Point{X: idx % w.width, Y: idx / w.width}
	w.hasApple = true
	w.cells[idx] = TileApple
}

func (w *World) neighbor(d Direction) (Point, bool) {
	if !d.Valid() {
		return Point{}, false
	}
	dx, dy := d.Delta()
	p := Point{X: w.snake[0].X + dx, Y: w.snake[0].Y + dy}
	return p, w.inBounds(p)
}

func (w *World) inBounds(p Point) bool {
	return p.X >= 0 && p.X < w.width && p.Y >= 0 && p.Y < w.height
}

func (w *World) at(p Point) Tile {
	return w.cells[p.Y*w.width+p.X]
}

func (w *World) set(p Point, t Tile) {
	w.cells[p.Y*w.width+p.X] = t
}

// Tiles returns a read-only view of the board. It does not copy.
func (w *World) Tiles() Tiles {
	return Tiles{width: w.width, height: w.height, cells: w.cells}
}

// Head returns the head coordinate.
func (w *World) Head() Point {
	return w.snake[0]
}

// Len returns the number of snake segments.
func (w *World) Len() int {
	return len(w.snake)
}

// Direction returns the last applied direction.
func (w *World) Direction() Direction {
	return w.direction
}

// State returns Running or GameOver.
func (w *World) State() State {
	return w.state
}

// Apple returns the apple position and whether one is on the board.
func (w *World) Apple() (Point, bool) {
	return w.apple, w.hasApple
}

// Eaten returns the number of apples consumed since the last Reset.
func (w *World) Eaten() int {
	return w.eaten
}

// Width returns the board width in cells.
func (w *World) Width() int {
	return w.width
}

// Height returns the board height in cells.
func (w *World) Height() int {
	return w.height
}
