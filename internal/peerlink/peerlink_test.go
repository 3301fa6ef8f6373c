package peerlink

import (
	"bytes"
	"errors"
	"net/netip"
	"testing"

	"github.com/vovakirdan/multisnake/internal/games/snake"
	"github.com/vovakirdan/multisnake/internal/link"
)

func newPair(t *testing.T) (*link.Hub, *PeerLink, *PeerLink) {
	t.Helper()
	hub := link.NewHub(8)

	client, err := New(hub.Interface(), RoleClient)
	if err != nil {
		t.Fatalf("New(client) failed: %v", err)
	}
	server, err := New(hub.Interface(), RoleServer)
	if err != nil {
		t.Fatalf("New(server) failed: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return hub, client, server
}

func TestEncodeLayout(t *testing.T) {
	got, err := Encode(PeerState{ID: 1, Head: snake.Point{X: 5, Y: 5}, Dir: snake.DirLeft})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	want := []byte{1, 5, 0, 5, 0, 2}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode() = %v, expected %v", got, want)
	}

	got, _ = Encode(PeerState{ID: 7, Head: snake.Point{X: 0x0102, Y: 0x0304}, Dir: snake.DirRight})
	want = []byte{7, 0x02, 0x01, 0x04, 0x03, 3}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode() = %v, expected %v", got, want)
	}
	if cap(got) != PacketSize {
		t.Errorf("Encode() capacity = %d, expected %d", cap(got), PacketSize)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	in := PeerState{ID: 2, Head: snake.Point{X: 47, Y: 26}, Dir: snake.DirDown}
	pkt, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	out, err := Decode(pkt)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if out != in {
		t.Errorf("Decode(Encode(%+v)) = %+v", in, out)
	}
}

func TestCodecErrors(t *testing.T) {
	tests := []struct {
		name string
		pkt  []byte
		want error
	}{
		{"empty", nil, ErrShortPacket},
		{"short", []byte{1, 5, 0, 5, 0}, ErrShortPacket},
		{"long", []byte{1, 5, 0, 5, 0, 2, 0}, ErrShortPacket},
		{"bad direction", []byte{1, 5, 0, 5, 0, 4}, ErrBadDirection},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.pkt); !errors.Is(err, tc.want) {
				t.Errorf("Decode(%v) error = %v, expected %v", tc.pkt, err, tc.want)
			}
		})
	}

	if _, err := Encode(PeerState{Head: snake.Point{X: -1}}); !errors.Is(err, ErrCoordinateRange) {
		t.Errorf("Encode negative x error = %v", err)
	}
	if _, err := Encode(PeerState{Dir: snake.Direction(9)}); !errors.Is(err, ErrBadDirection) {
		t.Errorf("Encode bad direction error = %v", err)
	}
}

func TestRoles(t *testing.T) {
	tests := []struct {
		in    string
		role  Role
		local string
		peer  string
	}{
		{"client", RoleClient, "192.168.0.42:4242", "192.168.0.24:2424"},
		{" Server ", RoleServer, "192.168.0.24:2424", "192.168.0.42:4242"},
	}
	for _, tc := range tests {
		role, err := ParseRole(tc.in)
		if err != nil {
			t.Fatalf("ParseRole(%q) failed: %v", tc.in, err)
		}
		if role != tc.role {
			t.Errorf("ParseRole(%q) = %v", tc.in, role)
		}
		if got := role.Local().String(); got != tc.local {
			t.Errorf("%v.Local() = %s, expected %s", role, got, tc.local)
		}
		if got := role.Peer().String(); got != tc.peer {
			t.Errorf("%v.Peer() = %s, expected %s", role, got, tc.peer)
		}
	}
	if _, err := ParseRole("relay"); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("ParseRole(relay) error = %v", err)
	}
}

func TestPublishThenPoll(t *testing.T) {
	_, client, server := newPair(t)

	sent := PeerState{ID: 1, Head: snake.Point{X: 5, Y: 5}, Dir: snake.DirLeft}
	if err := client.Publish(sent); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if _, _, err := client.Poll(0); err != nil {
		t.Fatalf("client Poll() failed: %v", err)
	}

	got, ok, err := server.Poll(0)
	if err != nil {
		t.Fatalf("server Poll() failed: %v", err)
	}
	if !ok || got != sent {
		t.Errorf("server Poll() = (%+v, %v), expected (%+v, true)", got, ok, sent)
	}
	if s := server.Stats(); s.Received != 1 {
		t.Errorf("Received = %d, expected 1", s.Received)
	}
}

func TestPollNothingPending(t *testing.T) {
	_, _, server := newPair(t)

	got, ok, err := server.Poll(0)
	if err != nil {
		t.Errorf("idle Poll() error = %v", err)
	}
	if ok {
		t.Errorf("idle Poll() reported update %+v", got)
	}
}

func TestPollKeepsLatest(t *testing.T) {
	_, client, server := newPair(t)

	for x := 1; x <= 3; x++ {
		client.Publish(PeerState{ID: 1, Head: snake.Point{X: x, Y: 0}, Dir: snake.DirRight})
		client.Poll(uint32(x))
	}

	got, ok, err := server.Poll(10)
	if err != nil || !ok {
		t.Fatalf("Poll() = (%+v, %v, %v)", got, ok, err)
	}
	if got.Head.X != 3 {
		t.Errorf("Poll() head x = %d, expected 3", got.Head.X)
	}

	if _, ok, _ := server.Poll(11); ok {
		t.Error("drained link reported another update")
	}
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	_, client, server := newPair(t)

	first := PeerState{ID: 1, Head: snake.Point{X: 1, Y: 1}, Dir: snake.DirUp}
	second := PeerState{ID: 1, Head: snake.Point{X: 2, Y: 2}, Dir: snake.DirUp}
	if err := client.Publish(first); err != nil {
		t.Fatalf("first Publish() failed: %v", err)
	}
	if err := client.Publish(second); err != nil {
		t.Errorf("Publish() on full queue = %v, expected silent drop", err)
	}
	if s := client.Stats(); s.Sent != 1 || s.SendDropped != 1 {
		t.Errorf("Stats() = %+v", s)
	}

	client.Poll(0)
	got, ok, _ := server.Poll(0)
	if !ok || got != first {
		t.Errorf("server got (%+v, %v), expected first state", got, ok)
	}
}

func TestPollSkipsMalformedPackets(t *testing.T) {
	hub, _, server := newPair(t)

	rogue := hub.Interface()
	defer rogue.Close()
	sock, err := rogue.Bind(netip.MustParseAddrPort("192.168.0.99:9999"))
	if err != nil {
		t.Fatalf("Bind() failed: %v", err)
	}

	valid, _ := Encode(PeerState{ID: 3, Head: snake.Point{X: 9, Y: 9}, Dir: snake.DirDown})
	for _, pkt := range [][]byte{{1, 2, 3}, valid, {1, 5, 0, 5, 0, 8}} {
		if err := sock.Send(ServerEndpoint, pkt); err != nil {
			t.Fatalf("Send() failed: %v", err)
		}
		rogue.Poll(0)
	}

	got, ok, err := server.Poll(0)
	if !ok || got.ID != 3 {
		t.Errorf("Poll() = (%+v, %v), expected the valid packet", got, ok)
	}
	if !errors.Is(err, ErrShortPacket) || !errors.Is(err, ErrBadDirection) {
		t.Errorf("Poll() error = %v, expected both decode errors", err)
	}
	if s := server.Stats(); s.Rejected != 2 || s.Received != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

// faultyLink fails its next Poll with err.
type faultyLink struct {
	link.Interface
	err error
}

func (f *faultyLink) Poll(nowMillis uint32) (bool, error) {
	if f.err != nil {
		err := f.err
		f.err = nil
		return false, err
	}
	return f.Interface.Poll(nowMillis)
}

func TestPollReportsLinkFault(t *testing.T) {
	boom := errors.New("boom")
	iface := &faultyLink{Interface: link.NewHub(4).Interface(), err: boom}
	p, err := New(iface, RoleServer)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer p.Close()

	if _, ok, err := p.Poll(0); ok || !errors.Is(err, boom) {
		t.Errorf("Poll() = (%v, %v), expected link fault", ok, err)
	}
	if _, ok, err := p.Poll(0); ok || err != nil {
		t.Errorf("Poll() after fault = (%v, %v), expected idle", ok, err)
	}
}

func TestBindFailure(t *testing.T) {
	hub := link.NewHub(4)
	if _, err := New(hub.Interface(), RoleServer); err != nil {
		t.Fatalf("first New() failed: %v", err)
	}
	if _, err := New(hub.Interface(), RoleServer); !errors.Is(err, link.ErrAddrInUse) {
		t.Errorf("second New() error = %v, expected ErrAddrInUse", err)
	}
	if _, err := New(hub.Interface(), Role(7)); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("New(Role(7)) error = %v", err)
	}
}

func TestWithRemote(t *testing.T) {
	hub := link.NewHub(4)
	alt := netip.MustParseAddrPort("10.1.1.1:5000")

	p, err := New(hub.Interface(), RoleClient, WithRemote(alt))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer p.Close()

	listener := hub.Interface()
	sock, _ := listener.Bind(alt)

	p.Publish(PeerState{ID: 1, Dir: snake.DirUp})
	p.Poll(0)
	listener.Poll(0)

	d, ok := sock.Receive()
	if !ok {
		t.Fatal("remote override received nothing")
	}
	if d.Peer != ClientEndpoint {
		t.Errorf("source = %v, expected %v", d.Peer, ClientEndpoint)
	}
	if p.Remote() != alt || p.Local() != ClientEndpoint || p.Role() != RoleClient {
		t.Errorf("accessors = %v %v %v", p.Remote(), p.Local(), p.Role())
	}
}
