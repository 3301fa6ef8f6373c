// Package config provides YAML-based configuration loading for multisnake.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/multisnake/internal/core"
	"github.com/vovakirdan/multisnake/internal/games/snake"
	"github.com/vovakirdan/multisnake/internal/input"
	"github.com/vovakirdan/multisnake/internal/link"
	"github.com/vovakirdan/multisnake/internal/peerlink"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config contains all configuration for one board.
type Config struct {
	Display DisplayConfig `yaml:"display"`
	Game    GameConfig    `yaml:"game"`
	Input   InputConfig   `yaml:"input"`
	Peer    PeerConfig    `yaml:"peer"`
	Log     LogConfig     `yaml:"log"`
}

// DisplayConfig describes the panel in pixels.
type DisplayConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	BlockSize int `yaml:"block_size"`
}

// GameConfig defines world and loop parameters.
type GameConfig struct {
	StartX            int    `yaml:"start_x"`
	StartY            int    `yaml:"start_y"`
	Direction         string `yaml:"direction"`
	TickMS            int    `yaml:"tick_ms"`
	RestartDelayTicks int    `yaml:"restart_delay_ticks"` // 0 = wait for a touch
	Seed              int64  `yaml:"seed"`                // 0 = random
}

// InputConfig holds the touch zone table. Empty means the default strips.
type InputConfig struct {
	Zones []ZoneConfig `yaml:"zones"`
}

// ZoneConfig is one touch rectangle in pixels.
type ZoneConfig struct {
	Direction string `yaml:"direction"`
	X         int    `yaml:"x"`
	Y         int    `yaml:"y"`
	W         int    `yaml:"w"`
	H         int    `yaml:"h"`
}

// PeerConfig controls the network link.
type PeerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	PlayerID uint8  `yaml:"player_id"`
	Role     string `yaml:"role"`
	Remote   string `yaml:"remote"` // empty = the other role's fixed endpoint
	BindAny  bool   `yaml:"bind_any"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // used while the terminal UI owns the screen
}

// GridSize returns the board size in cells.
func (c Config) GridSize() (int, int) {
	if c.Display.BlockSize <= 0 {
		return 0, 0
	}
	return c.Display.Width / c.Display.BlockSize, c.Display.Height / c.Display.BlockSize
}

// Interval returns the loop period.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Game.TickMS) * time.Millisecond
}

// Start returns the configured head position.
func (c Config) Start() snake.Point {
	return snake.Point{X: c.Game.StartX, Y: c.Game.StartY}
}

// StartDirection returns the configured initial heading.
func (c Config) StartDirection() (snake.Direction, error) {
	if c.Game.Direction == "" {
		return snake.DirRight, nil
	}
	d, ok := snake.ParseDirection(c.Game.Direction)
	if !ok {
		return 0, fmt.Errorf("%w: game.direction %q", ErrInvalid, c.Game.Direction)
	}
	return d, nil
}

// Zones converts the zone table. An empty table yields the default strips.
func (c Config) Zones() ([]input.Zone, error) {
	if len(c.Input.Zones) == 0 {
		return input.DefaultZones(c.Display.Width, c.Display.Height), nil
	}

	zones := make([]input.Zone, 0, len(c.Input.Zones))
	for i, z := range c.Input.Zones {
		d, ok := snake.ParseDirection(z.Direction)
		if !ok {
			return nil, fmt.Errorf("%w: input.zones[%d].direction %q", ErrInvalid, i, z.Direction)
		}
		zones = append(zones, input.Zone{Rect: core.NewRect(z.X, z.Y, z.W, z.H), Direction: d})
	}
	return zones, nil
}

// Role returns the parsed peer role.
func (c Config) Role() (peerlink.Role, error) {
	role, err := peerlink.ParseRole(c.Peer.Role)
	if err != nil {
		return 0, fmt.Errorf("%w: peer.role: %w", ErrInvalid, err)
	}
	return role, nil
}

// Remote returns the configured remote endpoint and whether one is set.
func (c Config) Remote() (link.Endpoint, bool, error) {
	if c.Peer.Remote == "" {
		return link.Endpoint{}, false, nil
	}
	ep, err := link.ParseEndpoint(c.Peer.Remote)
	if err != nil {
		return link.Endpoint{}, false, fmt.Errorf("%w: peer.remote: %w", ErrInvalid, err)
	}
	return ep, true, nil
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() (log.Level, error) {
	if c.Log.Level == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return 0, fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	return lvl, nil
}

// Validate checks every field a board needs before bring-up.
func (c Config) Validate() error {
	d := c.Display
	if d.Width <= 0 || d.Height <= 0 || d.BlockSize <= 0 {
		return fmt.Errorf("%w: display %dx%d block %d", ErrInvalid, d.Width, d.Height, d.BlockSize)
	}
	// Leftover pixels past the last whole cell stay unused.
	if d.BlockSize > d.Width || d.BlockSize > d.Height {
		return fmt.Errorf("%w: block size %d larger than display %dx%d", ErrInvalid, d.BlockSize, d.Width, d.Height)
	}
	if c.Game.TickMS <= 0 {
		return fmt.Errorf("%w: game.tick_ms must be positive", ErrInvalid)
	}
	if c.Game.RestartDelayTicks < 0 {
		return fmt.Errorf("%w: game.restart_delay_ticks must not be negative", ErrInvalid)
	}
	if _, err := c.StartDirection(); err != nil {
		return err
	}

	zones, err := c.Zones()
	if err != nil {
		return err
	}
	if _, err := input.NewMapper(zones); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if _, err := c.Role(); err != nil {
		return err
	}
	if _, _, err := c.Remote(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}
