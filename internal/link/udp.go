package link

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
)

// UDPOption customizes a UDPInterface.
type UDPOption func(*UDPInterface)

// WithBindAny binds each socket's port on every local address instead of
// the socket's own address. The socket still reports its logical endpoint.
// Useful on hosts that do not own the fixed board addresses.
func WithBindAny() UDPOption {
	return func(u *UDPInterface) { u.bindAny = true }
}

// UDPInterface moves socket traffic over the host's UDP stack.
type UDPInterface struct {
	bindAny bool
	socks   []*udpSocket
	buf     []byte
	closed  bool
}

type udpSocket struct {
	sock *Socket
	conn *net.UDPConn
	raw  syscall.RawConn
}

// NewUDPInterface creates an interface with no sockets.
func NewUDPInterface(opts ...UDPOption) *UDPInterface {
	u := &UDPInterface{
		buf: make([]byte, 1500),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Bind opens a UDP socket on local. Port 0 picks an ephemeral port, which is
// then reported by the socket's LocalEndpoint.
func (u *UDPInterface) Bind(local Endpoint) (*Socket, error) {
	if u.closed {
		return nil, ErrClosed
	}
	if !local.Addr().Is4() {
		return nil, fmt.Errorf("%w: %v", ErrUnaddressable, local)
	}

	addr := local
	if u.bindAny {
		addr = netip.AddrPortFrom(netip.IPv4Unspecified(), local.Port())
	}

	conn, err := net.ListenUDP("udp4", net.UDPAddrFromAddrPort(addr))
	if err != nil {
		return nil, fmt.Errorf("link: bind %v: %w", local, err)
	}
	raw, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("link: bind %v: %w", local, err)
	}

	if bound, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		local = netip.AddrPortFrom(local.Addr(), bound.AddrPort().Port())
	}

	s := &udpSocket{
		sock: newSocket(local, DefaultBuffers()),
		conn: conn,
		raw:  raw,
	}
	u.socks = append(u.socks, s)
	return s.sock, nil
}

// Poll sends every queued datagram and reads whatever the OS has buffered
// until the receive queues are full. It never waits.
func (u *UDPInterface) Poll(_ uint32) (bool, error) {
	if u.closed {
		return false, ErrClosed
	}
	if len(u.socks) == 0 {
		return false, ErrExhausted
	}

	changed := false
	var errs []error
	for _, s := range u.socks {
		for d, ok := s.sock.dequeue(); ok; d, ok = s.sock.dequeue() {
			if _, err := s.conn.WriteToUDPAddrPort(d.Payload, d.Peer); err != nil {
				errs = append(errs, fmt.Errorf("link: send to %v: %w", d.Peer, err))
				continue
			}
			changed = true
		}

		for !s.sock.rxFull() {
			n, from, err := s.recv(u.buf)
			if errors.Is(err, ErrWouldBlock) {
				break
			}
			if err != nil {
				errs = append(errs, err)
				break
			}
			payload := append([]byte(nil), u.buf[:n]...)
			if err := s.sock.deliver(Datagram{Payload: payload, Peer: from}); err != nil {
				break
			}
			changed = true
		}
	}

	if !changed && len(errs) == 0 {
		return false, ErrExhausted
	}
	return changed, errors.Join(errs...)
}

// Close closes every socket.
func (u *UDPInterface) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true

	var errs []error
	for _, s := range u.socks {
		s.sock.closed = true
		if err := s.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
