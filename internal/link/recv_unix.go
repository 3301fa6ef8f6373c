//go:build unix

package link

import (
	"errors"
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

// recv reads one datagram without waiting for one to arrive.
func (s *udpSocket) recv(buf []byte) (int, Endpoint, error) {
	var (
		n    int
		from unix.Sockaddr
		rerr error
	)
	err := s.raw.Read(func(fd uintptr) bool {
		n, from, rerr = unix.Recvfrom(int(fd), buf, unix.MSG_DONTWAIT)
		return true
	})
	if err != nil {
		return 0, Endpoint{}, fmt.Errorf("link: recv: %w", err)
	}
	if errors.Is(rerr, unix.EAGAIN) || errors.Is(rerr, unix.EWOULDBLOCK) {
		return 0, Endpoint{}, ErrWouldBlock
	}
	if rerr != nil {
		return 0, Endpoint{}, fmt.Errorf("link: recv: %w", rerr)
	}

	switch sa := from.(type) {
	case *unix.SockaddrInet4:
		return n, netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port)), nil
	case *unix.SockaddrInet6:
		return n, netip.AddrPortFrom(netip.AddrFrom16(sa.Addr).Unmap(), uint16(sa.Port)), nil
	default:
		return 0, Endpoint{}, ErrUnrecognized
	}
}
