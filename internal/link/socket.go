// Package link provides the packet interface the peer layer talks through:
// a bound datagram socket with small fixed transmit and receive queues, and
// interfaces that move packets between those queues and a network when
// polled. Nothing in this package blocks.
package link

import (
	"errors"
	"fmt"
	"net/netip"
)

var (
	// ErrExhausted means a queue is full; the packet was not accepted.
	ErrExhausted = errors.New("link: buffer exhausted")
	// ErrWouldBlock means no packet is ready.
	ErrWouldBlock = errors.New("link: would block")
	// ErrUnrecognized means a frame arrived that no socket wanted.
	ErrUnrecognized = errors.New("link: unrecognized packet")
	// ErrTooLarge means a payload does not fit the transmit buffer.
	ErrTooLarge = errors.New("link: payload too large")
	// ErrUnaddressable means the destination endpoint is not valid.
	ErrUnaddressable = errors.New("link: unaddressable endpoint")
	// ErrAddrInUse means another socket already owns the endpoint.
	ErrAddrInUse = errors.New("link: address in use")
	// ErrClosed means the socket or interface was closed.
	ErrClosed = errors.New("link: closed")
)

// IsIdle reports whether err is one of the normal "nothing to do" outcomes.
func IsIdle(err error) bool {
	return errors.Is(err, ErrExhausted) || errors.Is(err, ErrWouldBlock) || errors.Is(err, ErrUnrecognized)
}

// Endpoint is an IPv4 address and UDP port.
type Endpoint = netip.AddrPort

// ParseEndpoint parses "a.b.c.d:port".
func ParseEndpoint(s string) (Endpoint, error) {
	ep, err := netip.ParseAddrPort(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("link: parse endpoint %q: %w", s, err)
	}
	return ep, nil
}

// Interface is the link capability: it binds sockets and, on each Poll,
// flushes their transmit queues and fills their receive queues.
type Interface interface {
	Bind(local Endpoint) (*Socket, error)
	Poll(nowMillis uint32) (changed bool, err error)
	Close() error
}

// Datagram is one packet with its remote endpoint: the source for received
// packets, the destination for queued ones.
type Datagram struct {
	Payload []byte
	Peer    Endpoint
}

// BufferConfig sizes a socket's queues in packets and payload bytes.
type BufferConfig struct {
	RxPackets int
	RxBytes   int
	TxPackets int
	TxBytes   int
}

// DefaultBuffers holds three received packets in 256 bytes and one outgoing
// packet in 128 bytes.
func DefaultBuffers() BufferConfig {
	return BufferConfig{
		RxPackets: 3,
		RxBytes:   256,
		TxPackets: 1,
		TxBytes:   128,
	}
}

// Socket is a bound datagram endpoint. It is owned by a single caller and is
// not safe for concurrent use.
type Socket struct {
	local  Endpoint
	rx     *packetRing
	tx     *packetRing
	closed bool
}

func newSocket(local Endpoint, cfg BufferConfig) *Socket {
	return &Socket{
		local: local,
		rx:    newPacketRing(cfg.RxPackets, cfg.RxBytes),
		tx:    newPacketRing(cfg.TxPackets, cfg.TxBytes),
	}
}

// LocalEndpoint returns the endpoint the socket is bound to.
func (s *Socket) LocalEndpoint() Endpoint {
	return s.local
}

// Send queues payload for to. It returns ErrExhausted when the transmit
// queue is full; the packet leaves on the next interface Poll.
func (s *Socket) Send(to Endpoint, payload []byte) error {
	if s.closed {
		return ErrClosed
	}
	if !to.IsValid() || to.Port() == 0 {
		return fmt.Errorf("%w: %v", ErrUnaddressable, to)
	}
	if len(payload) > s.tx.maxBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(payload))
	}
	return s.tx.push(Datagram{Payload: append([]byte(nil), payload...), Peer: to})
}

// Receive pops the oldest received datagram, if any.
func (s *Socket) Receive() (Datagram, bool) {
	return s.rx.pop()
}

func (s *Socket) deliver(d Datagram) error {
	return s.rx.push(d)
}

func (s *Socket) dequeue() (Datagram, bool) {
	return s.tx.pop()
}

func (s *Socket) rxFull() bool {
	return s.rx.n == len(s.rx.slots)
}

// packetRing is a FIFO bounded both in packets and in total payload bytes.
type packetRing struct {
	slots    []Datagram
	head     int
	n        int
	bytes    int
	maxBytes int
}

func newPacketRing(packets, maxBytes int) *packetRing {
	if packets < 1 {
		packets = 1
	}
	return &packetRing{
		slots:    make([]Datagram, packets),
		maxBytes: maxBytes,
	}
}

func (r *packetRing) push(d Datagram) error {
	if r.n == len(r.slots) || r.bytes+len(d.Payload) > r.maxBytes {
		return ErrExhausted
	}
	r.slots[(r.head+r.n)%len(r.slots)] = d
	r.n++
	r.bytes += len(d.Payload)
	return nil
}

func (r *packetRing) pop() (Datagram, bool) {
	if r.n == 0 {
		return Datagram{}, false
	}
	d := r.slots[r.head]
	r.slots[r.head] = Datagram{}
	r.head = (r.head + 1) % len(r.slots)
	r.n--
	r.bytes -= len(d.Payload)
	return d, true
}
