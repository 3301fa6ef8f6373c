package tui

import (
	"github.com/vovakirdan/multisnake/internal/input"
)

// TouchPanel emulates the touch controller from terminal events. A held
// mouse button is a finger resting on the panel; a key press is a tap that
// lasts one frame.
type TouchPanel struct {
	pressed  bool
	finger   input.TouchPoint
	unread   bool // press not yet seen by a frame
	released bool
	taps     []input.TouchPoint
}

// NewTouchPanel creates a panel with nothing touching it.
func NewTouchPanel() *TouchPanel {
	return &TouchPanel{}
}

// Press puts a finger down at p, or moves it there.
func (t *TouchPanel) Press(p input.TouchPoint) {
	if !t.pressed {
		t.unread = true
	}
	t.pressed = true
	t.released = false
	t.finger = p
}

// Release lifts the finger. A press that no frame has seen yet is still
// reported once.
func (t *TouchPanel) Release() {
	if !t.pressed {
		return
	}
	t.pressed = false
	t.released = t.unread
}

// Tap touches p for exactly one frame.
func (t *TouchPanel) Tap(p input.TouchPoint) {
	t.taps = append(t.taps, p)
}

// ReadTouches returns the points touching the panel this frame.
func (t *TouchPanel) ReadTouches() ([]input.TouchPoint, error) {
	var out []input.TouchPoint
	if t.pressed || t.released {
		out = append(out, t.finger)
	}
	out = append(out, t.taps...)

	t.taps = t.taps[:0]
	t.unread = false
	t.released = false
	return out, nil
}
