package link

import (
	"fmt"
	"sync"
)

// Hub is an in-process network. Interfaces created from the same hub can
// exchange datagrams by endpoint, which lets two peers run in one process.
// Thread-safe for concurrent access.
type Hub struct {
	mu    sync.RWMutex
	ports map[Endpoint]*port
	queue int
}

// port is the hub side of a bound socket. Its inbox stands in for the OS
// receive buffer and drops the oldest datagram when full.
type port struct {
	inbox    chan Datagram
	done     chan struct{}
	doneOnce sync.Once
}

// NewHub creates a hub whose per-socket backlog holds queue datagrams.
func NewHub(queue int) *Hub {
	if queue < 1 {
		queue = 16
	}
	return &Hub{
		ports: make(map[Endpoint]*port),
		queue: queue,
	}
}

// Interface returns a new interface attached to the hub.
func (h *Hub) Interface() *MemoryInterface {
	return &MemoryInterface{hub: h}
}

func (h *Hub) register(ep Endpoint) (*port, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.ports[ep]; ok {
		return nil, fmt.Errorf("link: bind %v: %w", ep, ErrAddrInUse)
	}
	p := &port{
		inbox: make(chan Datagram, h.queue),
		done:  make(chan struct{}),
	}
	h.ports[ep] = p
	return p, nil
}

func (h *Hub) unregister(ep Endpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.ports[ep]; ok {
		p.close()
		delete(h.ports, ep)
	}
}

// route hands d to the socket bound at to. Unknown destinations swallow the
// datagram, as UDP would.
func (h *Hub) route(to Endpoint, d Datagram) bool {
	h.mu.RLock()
	p, ok := h.ports[to]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	p.send(d)
	return true
}

func (p *port) send(d Datagram) {
	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.inbox <- d:
	default:
		// Backlog full, drop oldest and retry
		select {
		case <-p.inbox:
		default:
		}
		select {
		case p.inbox <- d:
		default:
		}
	}
}

func (p *port) close() {
	p.doneOnce.Do(func() {
		close(p.done)
	})
}

// MemoryInterface is an Interface backed by a Hub.
type MemoryInterface struct {
	hub    *Hub
	socks  []memSocket
	closed bool
}

type memSocket struct {
	sock *Socket
	port *port
}

// Bind registers local on the hub.
func (m *MemoryInterface) Bind(local Endpoint) (*Socket, error) {
	if m.closed {
		return nil, ErrClosed
	}
	if !local.IsValid() || local.Port() == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnaddressable, local)
	}
	p, err := m.hub.register(local)
	if err != nil {
		return nil, err
	}
	s := newSocket(local, DefaultBuffers())
	m.socks = append(m.socks, memSocket{sock: s, port: p})
	return s, nil
}

// Poll routes queued datagrams through the hub and moves backlog into the
// receive queues until they are full.
func (m *MemoryInterface) Poll(_ uint32) (bool, error) {
	if m.closed {
		return false, ErrClosed
	}

	changed := false
	for _, s := range m.socks {
		for d, ok := s.sock.dequeue(); ok; d, ok = s.sock.dequeue() {
			to := d.Peer
			d.Peer = s.sock.local
			m.hub.route(to, d)
			changed = true
		}

	drain:
		for !s.sock.rxFull() {
			select {
			case d := <-s.port.inbox:
				if err := s.sock.deliver(d); err != nil {
					break drain
				}
				changed = true
			default:
				break drain
			}
		}
	}

	if !changed {
		return false, ErrExhausted
	}
	return true, nil
}

// Close releases every endpoint on the hub.
func (m *MemoryInterface) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	for _, s := range m.socks {
		s.sock.closed = true
		m.hub.unregister(s.sock.local)
	}
	return nil
}

var (
	_ Interface = (*UDPInterface)(nil)
	_ Interface = (*MemoryInterface)(nil)
)
