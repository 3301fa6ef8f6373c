package snake

// Snapshot captures the world state for the HUD, logging and determinism tests.
type Snapshot struct {
	Tick   uint64
	Len    int
	HeadX  int
	HeadY  int
	Dir    Direction
	AppleX int // -1 when no apple is on the board
	AppleY int
	Eaten  int
	State  State
}

// Snapshot returns the current world snapshot.
func (w *World) Snapshot() Snapshot {
	ax, ay := -1, -1
	if w.hasApple {
		ax, ay = w.apple.X, w.apple.Y
	}

	head := w.snake[0]
	return Snapshot{
		Tick:   w.ticks,
		Len:    len(w.snake),
		HeadX:  head.X,
		HeadY:  head.Y,
		Dir:    w.direction,
		AppleX: ax,
		AppleY: ay,
		Eaten:  w.eaten,
		State:  w.state,
	}
}
