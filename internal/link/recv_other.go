//go:build !unix

package link

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// recvWindow bounds how long a read may wait on platforms without a
// non-blocking receive flag. A deadline already in the past never reads.
const recvWindow = time.Millisecond

// recv reads one datagram, giving up after recvWindow.
func (s *udpSocket) recv(buf []byte) (int, Endpoint, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(recvWindow)); err != nil {
		return 0, Endpoint{}, fmt.Errorf("link: recv: %w", err)
	}
	n, from, err := s.conn.ReadFromUDPAddrPort(buf)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return 0, Endpoint{}, ErrWouldBlock
	}
	if err != nil {
		return 0, Endpoint{}, fmt.Errorf("link: recv: %w", err)
	}
	return n, Endpoint(from), nil
}
