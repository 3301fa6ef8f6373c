package config

import (
	_ "embed"
)

//go:embed defaults/multisnake.yaml
var defaultYAML []byte

// Default returns the built-in configuration: a 480x272 panel in 10 pixel
// blocks, a 100 ms tick and the client role.
func Default() Config {
	return Config{
		Display: DisplayConfig{
			Width:     480,
			Height:    272,
			BlockSize: 10,
		},
		Game: GameConfig{
			StartX:    25,
			StartY:    10,
			Direction: "right",
			TickMS:    100,
		},
		Peer: PeerConfig{
			Enabled:  true,
			PlayerID: 1,
			Role:     "client",
		},
		Log: LogConfig{
			Level: "info",
			File:  "~/.multisnake/multisnake.log",
		},
	}
}
