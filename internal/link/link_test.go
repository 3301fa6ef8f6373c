package link

import (
	"bytes"
	"errors"
	"net/netip"
	"testing"
	"time"
)

func ep(s string) Endpoint {
	return netip.MustParseAddrPort(s)
}

func TestPacketRingLimits(t *testing.T) {
	r := newPacketRing(3, 10)

	if err := r.push(Datagram{Payload: make([]byte, 6)}); err != nil {
		t.Fatalf("push 6 bytes: %v", err)
	}
	if err := r.push(Datagram{Payload: make([]byte, 5)}); !errors.Is(err, ErrExhausted) {
		t.Errorf("push past byte limit = %v, expected ErrExhausted", err)
	}
	if err := r.push(Datagram{Payload: make([]byte, 2)}); err != nil {
		t.Fatalf("push 2 bytes: %v", err)
	}
	if err := r.push(Datagram{Payload: make([]byte, 2)}); err != nil {
		t.Fatalf("push 2 bytes: %v", err)
	}
	if err := r.push(Datagram{}); !errors.Is(err, ErrExhausted) {
		t.Errorf("push past packet limit = %v, expected ErrExhausted", err)
	}

	for i, want := range []int{6, 2, 2} {
		d, ok := r.pop()
		if !ok || len(d.Payload) != want {
			t.Errorf("pop %d = %d bytes (ok=%v), expected %d", i, len(d.Payload), ok, want)
		}
	}
	if _, ok := r.pop(); ok {
		t.Error("pop on empty ring succeeded")
	}
	if r.bytes != 0 {
		t.Errorf("bytes after drain = %d", r.bytes)
	}
}

func TestSocketSendErrors(t *testing.T) {
	s := newSocket(ep("10.0.0.1:1000"), DefaultBuffers())

	if err := s.Send(Endpoint{}, []byte{1}); !errors.Is(err, ErrUnaddressable) {
		t.Errorf("Send to zero endpoint = %v, expected ErrUnaddressable", err)
	}
	if err := s.Send(ep("10.0.0.2:2000"), make([]byte, 129)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Send 129 bytes = %v, expected ErrTooLarge", err)
	}
	if err := s.Send(ep("10.0.0.2:2000"), []byte{1}); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if err := s.Send(ep("10.0.0.2:2000"), []byte{2}); !errors.Is(err, ErrExhausted) {
		t.Errorf("second Send with one tx slot = %v, expected ErrExhausted", err)
	}

	s.closed = true
	if err := s.Send(ep("10.0.0.2:2000"), []byte{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after close = %v, expected ErrClosed", err)
	}
}

func TestSendCopiesPayload(t *testing.T) {
	s := newSocket(ep("10.0.0.1:1000"), DefaultBuffers())
	buf := []byte{1, 2, 3}
	if err := s.Send(ep("10.0.0.2:2000"), buf); err != nil {
		t.Fatalf("Send: %v", err)
	}
	buf[0] = 9

	d, _ := s.dequeue()
	if d.Payload[0] != 1 {
		t.Error("queued payload aliases caller buffer")
	}
}

func TestIsIdle(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrExhausted, true},
		{ErrWouldBlock, true},
		{ErrUnrecognized, true},
		{ErrClosed, false},
		{errors.New("boom"), false},
		{nil, false},
	}
	for _, tc := range tests {
		if got := IsIdle(tc.err); got != tc.want {
			t.Errorf("IsIdle(%v) = %v, expected %v", tc.err, got, tc.want)
		}
	}
}

func TestParseEndpoint(t *testing.T) {
	got, err := ParseEndpoint("192.168.0.42:4242")
	if err != nil {
		t.Fatalf("ParseEndpoint: %v", err)
	}
	if got.Port() != 4242 || got.Addr() != netip.AddrFrom4([4]byte{192, 168, 0, 42}) {
		t.Errorf("ParseEndpoint = %v", got)
	}
	if _, err := ParseEndpoint("nope"); err == nil {
		t.Error("ParseEndpoint(nope) succeeded")
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	hub := NewHub(8)
	a, b := hub.Interface(), hub.Interface()
	defer a.Close()
	defer b.Close()

	sa, err := a.Bind(ep("192.168.0.42:4242"))
	if err != nil {
		t.Fatalf("Bind a: %v", err)
	}
	sb, err := b.Bind(ep("192.168.0.24:2424"))
	if err != nil {
		t.Fatalf("Bind b: %v", err)
	}

	if changed, err := b.Poll(0); changed || !errors.Is(err, ErrExhausted) {
		t.Errorf("idle Poll = (%v, %v), expected (false, ErrExhausted)", changed, err)
	}

	if err := sa.Send(sb.LocalEndpoint(), []byte("hi")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, ok := sb.Receive(); ok {
		t.Fatal("datagram arrived before any Poll")
	}
	if changed, err := a.Poll(0); !changed || err != nil {
		t.Fatalf("sender Poll = (%v, %v)", changed, err)
	}
	if changed, err := b.Poll(0); !changed || err != nil {
		t.Fatalf("receiver Poll = (%v, %v)", changed, err)
	}

	d, ok := sb.Receive()
	if !ok {
		t.Fatal("no datagram received")
	}
	if string(d.Payload) != "hi" || d.Peer != sa.LocalEndpoint() {
		t.Errorf("received %q from %v", d.Payload, d.Peer)
	}
}

func TestMemoryReceiveQueueBounded(t *testing.T) {
	hub := NewHub(8)
	a, b := hub.Interface(), hub.Interface()
	sa, _ := a.Bind(ep("10.0.0.1:1"))
	sb, _ := b.Bind(ep("10.0.0.2:2"))

	for i := 0; i < 5; i++ {
		if err := sa.Send(sb.LocalEndpoint(), []byte{byte(i)}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
		a.Poll(0)
	}

	b.Poll(0)
	if got := drain(sb); !bytes.Equal(got, []byte{0, 1, 2}) {
		t.Fatalf("first poll delivered %v, expected [0 1 2]", got)
	}

	// Remaining backlog moves in on the next poll.
	b.Poll(0)
	if got := drain(sb); !bytes.Equal(got, []byte{3, 4}) {
		t.Errorf("second poll delivered %v, expected [3 4]", got)
	}
}

// drain returns the first payload byte of every queued datagram.
func drain(s *Socket) []byte {
	var got []byte
	for d, ok := s.Receive(); ok; d, ok = s.Receive() {
		got = append(got, d.Payload[0])
	}
	return got
}

func TestHubDropsOldestWhenBacklogFull(t *testing.T) {
	hub := NewHub(2)
	a, b := hub.Interface(), hub.Interface()
	sa, _ := a.Bind(ep("10.0.0.1:1"))
	sb, _ := b.Bind(ep("10.0.0.2:2"))

	for i := 0; i < 4; i++ {
		sa.Send(sb.LocalEndpoint(), []byte{byte(i)})
		a.Poll(0)
	}
	b.Poll(0)

	if got := drain(sb); !bytes.Equal(got, []byte{2, 3}) {
		t.Errorf("received %v, expected [2 3]", got)
	}
}

func TestMemoryBindConflicts(t *testing.T) {
	hub := NewHub(4)
	a, b := hub.Interface(), hub.Interface()

	if _, err := a.Bind(ep("10.0.0.1:1")); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, err := b.Bind(ep("10.0.0.1:1")); !errors.Is(err, ErrAddrInUse) {
		t.Errorf("second Bind = %v, expected ErrAddrInUse", err)
	}

	a.Close()
	if _, err := b.Bind(ep("10.0.0.1:1")); err != nil {
		t.Errorf("Bind after Close: %v", err)
	}
	if _, err := a.Poll(0); !errors.Is(err, ErrClosed) {
		t.Errorf("Poll after Close = %v, expected ErrClosed", err)
	}
}

func TestUDPLoopback(t *testing.T) {
	u := NewUDPInterface()
	defer u.Close()

	a, err := u.Bind(ep("127.0.0.1:0"))
	if err != nil {
		t.Skipf("loopback UDP unavailable: %v", err)
	}
	b, err := u.Bind(ep("127.0.0.1:0"))
	if err != nil {
		t.Skipf("loopback UDP unavailable: %v", err)
	}
	if a.LocalEndpoint().Port() == 0 {
		t.Fatal("ephemeral port not reported")
	}

	if changed, err := u.Poll(0); changed || !IsIdle(err) {
		t.Errorf("idle Poll = (%v, %v)", changed, err)
	}

	if err := a.Send(b.LocalEndpoint(), []byte{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var d Datagram
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := u.Poll(0); err != nil && !IsIdle(err) {
			t.Fatalf("Poll: %v", err)
		}
		var ok bool
		if d, ok = b.Receive(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("datagram never arrived")
		}
		time.Sleep(time.Millisecond)
	}

	if !bytes.Equal(d.Payload, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("payload = %v", d.Payload)
	}
	if d.Peer != a.LocalEndpoint() {
		t.Errorf("source = %v, expected %v", d.Peer, a.LocalEndpoint())
	}
}

func TestUDPRejectsNonIPv4(t *testing.T) {
	u := NewUDPInterface()
	defer u.Close()
	if _, err := u.Bind(ep("[::1]:0")); !errors.Is(err, ErrUnaddressable) {
		t.Errorf("Bind IPv6 = %v, expected ErrUnaddressable", err)
	}
}
