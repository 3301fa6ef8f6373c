// Package input turns raw touch points into snake direction commands.
package input

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/multisnake/internal/core"
	"github.com/vovakirdan/multisnake/internal/games/snake"
)

var (
	// ErrOverlappingZones is returned when two touch zones share a pixel.
	ErrOverlappingZones = errors.New("input: touch zones overlap")
	// ErrEmptyZone is returned for a zone with no area or no valid direction.
	ErrEmptyZone = errors.New("input: invalid touch zone")
)

// TouchPoint is a pixel coordinate reported by the touch controller.
type TouchPoint struct {
	X, Y int
}

// TouchSource reads the touch points of the current frame.
// An error means the read failed, not that nothing was touched.
type TouchSource interface {
	ReadTouches() ([]TouchPoint, error)
}

// Zone is a screen rectangle that selects a direction when touched.
type Zone struct {
	Rect      core.Rect
	Direction snake.Direction
}

// DefaultZones partitions a width x height display into four strips:
// the outer sixths on the left and right, and the top and bottom quarters
// of the remaining middle column. The centre selects nothing.
func DefaultZones(width, height int) []Zone {
	side := width / 6
	band := height / 4
	mid := width - 2*side

	return []Zone{
		{Rect: core.NewRect(0, 0, side, height), Direction: snake.DirLeft},
		{Rect: core.NewRect(width-side, 0, side, height), Direction: snake.DirRight},
		{Rect: core.NewRect(side, 0, mid, band), Direction: snake.DirUp},
		{Rect: core.NewRect(side, height-band, mid, band), Direction: snake.DirDown},
	}
}

// Mapper converts touch frames to directions.
type Mapper struct {
	zones []Zone
	held  int // zone index pressed on the previous frame, -1 if none
}

// NewMapper validates the zone table and returns a mapper for it.
func NewMapper(zones []Zone) (*Mapper, error) {
	for i, z := range zones {
		if z.Rect.Empty() || !z.Direction.Valid() {
			return nil, fmt.Errorf("%w: zone %d", ErrEmptyZone, i)
		}
		for j := i + 1; j < len(zones); j++ {
			if z.Rect.Intersects(zones[j].Rect) {
				return nil, fmt.Errorf("%w: zones %d and %d", ErrOverlappingZones, i, j)
			}
		}
	}

	return &Mapper{
		zones: append([]Zone(nil), zones...),
		held:  -1,
	}, nil
}

// Map returns the direction for this frame.
//
// The first point that lands in a zone decides. With no hit, with the same
// zone still held from the previous frame, or when the hit is the exact
// reverse of last, last is returned unchanged.
func (m *Mapper) Map(points []TouchPoint, last snake.Direction) snake.Direction {
	hit := -1
	for _, p := range points {
		if i := m.zoneAt(p); i >= 0 {
			hit = i
			break
		}
	}

	if hit < 0 {
		m.held = -1
		return last
	}
	if hit == m.held {
		return last
	}
	m.held = hit

	d := m.zones[hit].Direction
	if d == last.Opposite() {
		return last
	}
	return d
}

// Release forgets the held zone, so the next touch counts as a new press.
func (m *Mapper) Release() {
	m.held = -1
}

// Target returns a point inside the zone for d, used by hosts that
// synthesize touches from other devices.
func (m *Mapper) Target(d snake.Direction) (TouchPoint, bool) {
	for _, z := range m.zones {
		if z.Direction == d {
			x, y := z.Rect.Center()
			return TouchPoint{X: x, Y: y}, true
		}
	}
	return TouchPoint{}, false
}

// Zones returns a copy of the zone table.
func (m *Mapper) Zones() []Zone {
	return append([]Zone(nil), m.zones...)
}

func (m *Mapper) zoneAt(p TouchPoint) int {
	for i, z := range m.zones {
		if z.Rect.Contains(p.X, p.Y) {
			return i
		}
	}
	return -1
}

// NoTouch is a TouchSource for boards without a panel.
type NoTouch struct{}

// ReadTouches always reports an untouched panel.
func (NoTouch) ReadTouches() ([]TouchPoint, error) {
	return nil, nil
}
