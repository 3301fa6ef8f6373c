package peerlink

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/vovakirdan/multisnake/internal/link"
)

// Role decides which fixed endpoint a board binds.
type Role uint8

const (
	RoleClient Role = iota
	RoleServer
)

var (
	// ClientEndpoint is the address a client board binds.
	ClientEndpoint = netip.AddrPortFrom(netip.AddrFrom4([4]byte{192, 168, 0, 42}), 4242)
	// ServerEndpoint is the address a server board binds.
	ServerEndpoint = netip.AddrPortFrom(netip.AddrFrom4([4]byte{192, 168, 0, 24}), 2424)
)

// ParseRole parses "client" or "server".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client":
		return RoleClient, nil
	case "server":
		return RoleServer, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleServer:
		return "server"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Local returns the endpoint this role binds.
func (r Role) Local() link.Endpoint {
	if r == RoleServer {
		return ServerEndpoint
	}
	return ClientEndpoint
}

// Peer returns the endpoint of the opposite role.
func (r Role) Peer() link.Endpoint {
	if r == RoleServer {
		return ClientEndpoint
	}
	return ServerEndpoint
}
