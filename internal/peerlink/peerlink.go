// Package peerlink exchanges each player's head position and heading with
// the other board over a single datagram socket.
package peerlink

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/multisnake/internal/link"
)

var (
	ErrShortPacket     = errors.New("peerlink: packet is not 6 bytes")
	ErrBadDirection    = errors.New("peerlink: unknown direction code")
	ErrCoordinateRange = errors.New("peerlink: coordinate out of range")
	ErrUnknownRole     = errors.New("peerlink: unknown role")
)

// Stats counts link traffic since New.
type Stats struct {
	Sent        uint64
	SendDropped uint64
	Received    uint64
	Rejected    uint64
}

// Option customizes a PeerLink.
type Option func(*PeerLink)

// WithRemote sends to ep instead of the opposite role's endpoint.
func WithRemote(ep link.Endpoint) Option {
	return func(p *PeerLink) { p.remote = ep }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(p *PeerLink) { p.logger = l }
}

// PeerLink is bound to its role's endpoint and talks to one remote.
// It is driven from a single goroutine.
type PeerLink struct {
	iface  link.Interface
	sock   *link.Socket
	role   Role
	remote link.Endpoint
	logger *log.Logger
	stats  Stats
}

// New binds the role's local endpoint on iface. A bind failure is returned
// as is; callers treat it as fatal.
func New(iface link.Interface, role Role, opts ...Option) (*PeerLink, error) {
	if role != RoleClient && role != RoleServer {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, role)
	}

	p := &PeerLink{
		iface:  iface,
		role:   role,
		remote: role.Peer(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}

	sock, err := iface.Bind(role.Local())
	if err != nil {
		return nil, fmt.Errorf("peerlink: bind %s endpoint: %w", role, err)
	}
	p.sock = sock

	p.logger.Info("peer link up", "role", role, "local", sock.LocalEndpoint(), "remote", p.remote)
	return p, nil
}

// Publish queues s for the remote. A full transmit queue drops the packet
// without error; the next tick sends fresher state anyway.
func (p *PeerLink) Publish(s PeerState) error {
	pkt, err := Encode(s)
	if err != nil {
		return err
	}
	if err := p.sock.Send(p.remote, pkt); err != nil {
		if errors.Is(err, link.ErrExhausted) {
			p.stats.SendDropped++
			p.logger.Debug("publish dropped", "reason", err)
			return nil
		}
		return fmt.Errorf("peerlink: publish: %w", err)
	}
	p.stats.Sent++
	return nil
}

// Poll services the interface once and drains the receive queue. It returns
// the most recent valid state, if any arrived. Malformed packets are skipped
// and reported in the returned error after the drain; idle link conditions
// are not errors.
func (p *PeerLink) Poll(nowMillis uint32) (PeerState, bool, error) {
	var errs []error
	if _, err := p.iface.Poll(nowMillis); err != nil && !link.IsIdle(err) {
		errs = append(errs, fmt.Errorf("peerlink: poll: %w", err))
	}

	var (
		latest PeerState
		ok     bool
	)
	for d, more := p.sock.Receive(); more; d, more = p.sock.Receive() {
		s, err := Decode(d.Payload)
		if err != nil {
			p.stats.Rejected++
			errs = append(errs, fmt.Errorf("from %v: %w", d.Peer, err))
			continue
		}
		p.stats.Received++
		latest, ok = s, true
	}
	return latest, ok, errors.Join(errs...)
}

// Role returns the role the link was created with.
func (p *PeerLink) Role() Role {
	return p.role
}

// Local returns the bound endpoint.
func (p *PeerLink) Local() link.Endpoint {
	return p.sock.LocalEndpoint()
}

// Remote returns the destination of published state.
func (p *PeerLink) Remote() link.Endpoint {
	return p.remote
}

// Stats returns the traffic counters.
func (p *PeerLink) Stats() Stats {
	return p.stats
}

// Close shuts down the underlying interface.
func (p *PeerLink) Close() error {
	return p.iface.Close()
}
