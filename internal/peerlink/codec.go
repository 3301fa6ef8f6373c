package peerlink

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vovakirdan/multisnake/internal/games/snake"
)

// PacketSize is the length of an encoded PeerState.
//
// Layout, little-endian:
//
//	offset 0  u8   player id
//	offset 1  u16  head x
//	offset 3  u16  head y
//	offset 5  u8   direction (0 up, 1 down, 2 left, 3 right)
const PacketSize = 6

// PeerState is what one player tells the other every tick.
type PeerState struct {
	ID   uint8
	Head snake.Point
	Dir  snake.Direction
}

// Encode serializes s into a PacketSize byte packet.
func Encode(s PeerState) ([]byte, error) {
	if s.Head.X < 0 || s.Head.X > math.MaxUint16 || s.Head.Y < 0 || s.Head.Y > math.MaxUint16 {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrCoordinateRange, s.Head.X, s.Head.Y)
	}
	if !s.Dir.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrBadDirection, s.Dir)
	}

	buf := make([]byte, 0, PacketSize)
	buf = append(buf, s.ID)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(s.Head.X))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(s.Head.Y))
	buf = append(buf, uint8(s.Dir))
	return buf, nil
}

// Decode parses a packet produced by Encode.
func Decode(b []byte) (PeerState, error) {
	if len(b) != PacketSize {
		return PeerState{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(b))
	}
	dir := snake.Direction(b[5])
	if !dir.Valid() {
		return PeerState{}, fmt.Errorf("%w: %d", ErrBadDirection, b[5])
	}
	return PeerState{
		ID: b[0],
		Head: snake.Point{
			X: int(binary.LittleEndian.Uint16(b[1:3])),
			Y: int(binary.LittleEndian.Uint16(b[3:5])),
		},
		Dir: dir,
	}, nil
}
