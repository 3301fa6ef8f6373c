package core

// Color is a palette index understood by every drawing surface.
// The host platform maps it to ANSI codes, a device would map it to RGB565.
type Color uint8

// Palette used by the board renderer.
const (
	ColorBlack Color = iota
	ColorRed
	ColorGreen
	ColorBlue
	ColorWhite
	ColorGray
)

// String returns the palette name.
func (c Color) String() string {
	switch c {
	case ColorBlack:
		return "black"
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorWhite:
		return "white"
	case ColorGray:
		return "gray"
	default:
		return "unknown"
	}
}
