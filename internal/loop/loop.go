// Package loop drives one board: touch in, world step, peer exchange,
// paint out, once per fixed interval.
package loop

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/multisnake/internal/core"
	"github.com/vovakirdan/multisnake/internal/games/snake"
	"github.com/vovakirdan/multisnake/internal/input"
	"github.com/vovakirdan/multisnake/internal/peerlink"
	"github.com/vovakirdan/multisnake/internal/render"
	"github.com/vovakirdan/multisnake/internal/storage"
)

// DefaultInterval is the tick period of the device loop.
const DefaultInterval = 100 * time.Millisecond

// Peer is the part of a PeerLink the loop uses.
type Peer interface {
	Publish(s peerlink.PeerState) error
	Poll(nowMillis uint32) (peerlink.PeerState, bool, error)
	Role() peerlink.Role
}

// RoundRecorder stores finished rounds.
type RoundRecorder interface {
	SaveRound(r storage.Round) (int64, error)
}

// Frame summarizes one tick for the host.
type Frame struct {
	Tick      uint64
	Outcome   snake.Outcome
	State     snake.State
	Restarted bool
	Remote    bool // a fresh peer state arrived this tick
}

// Option customizes a Loop.
type Option func(*Loop)

// WithPeer enables the network exchange. Without it the loop plays solo.
func WithPeer(p Peer) Option {
	return func(l *Loop) { l.peer = p }
}

// WithRecorder stores each finished round.
func WithRecorder(r RoundRecorder) Option {
	return func(l *Loop) { l.recorder = r }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithBlockSize sets the pixel size of one board cell.
func WithBlockSize(px int) Option {
	return func(l *Loop) {
		if px > 0 {
			l.blockSize = px
		}
	}
}

// WithInterval sets the Run period.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithRestartDelay resets the world this many ticks after a game over even
// without a touch. Zero waits for a touch.
func WithRestartDelay(ticks int) Option {
	return func(l *Loop) { l.restartDelay = ticks }
}

// WithPlayerID sets the id carried in published state.
func WithPlayerID(id uint8) Option {
	return func(l *Loop) { l.playerID = id }
}

// Loop owns the world and the capabilities around it. It is driven from a
// single goroutine.
type Loop struct {
	world   *snake.World
	mapper  *input.Mapper
	touch   input.TouchSource
	surface render.Surface
	clock   core.Clock

	peer     Peer
	recorder RoundRecorder
	logger   *log.Logger

	blockSize    int
	interval     time.Duration
	restartDelay int
	playerID     uint8

	frames    uint64
	remote    peerlink.PeerState
	hasRemote bool
	recorded  bool
	overTicks int
	touching  bool // the previous frame had a touch
}

// New assembles a loop. The world, mapper, touch source, surface and clock
// are required.
func New(world *snake.World, mapper *input.Mapper, touch input.TouchSource, surface render.Surface, clock core.Clock, opts ...Option) *Loop {
	l := &Loop{
		world:     world,
		mapper:    mapper,
		touch:     touch,
		surface:   surface,
		clock:     clock,
		logger:    log.New(io.Discard),
		blockSize: 10,
		interval:  DefaultInterval,
		playerID:  1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tick runs one iteration: read touches, map them, step the world, publish
// the local head, poll the peer and paint the board.
func (l *Loop) Tick() Frame {
	l.frames++
	f := Frame{Tick: l.frames}

	points, err := l.touch.ReadTouches()
	if err != nil {
		l.logger.Debug("touch read failed", "error", err)
		points = nil
	}

	pressed := len(points) > 0 && !l.touching
	l.touching = len(points) > 0

	if l.world.State() == snake.StateGameOver {
		l.overTicks++
		// A finger still down from the collision has to lift before it can restart.
		if pressed || (l.restartDelay > 0 && l.overTicks >= l.restartDelay) {
			l.restart(points)
			f.Restarted = true
		}
	} else {
		dir := l.mapper.Map(points, l.world.Direction())
		f.Outcome = l.world.Step(dir)
		if f.Outcome == snake.OutcomeCollided {
			l.finishRound()
		}
	}
	f.State = l.world.State()

	if l.peer != nil {
		f.Remote = l.exchange()
	}

	render.Draw(l.world.Tiles(), l.blockSize, l.surface)
	if l.hasRemote {
		render.DrawPeer(l.remote.Head, l.world.Tiles(), l.blockSize, l.surface)
	}

	return f
}

// Run ticks on a fixed interval until ctx is cancelled. Ticks that overrun
// their slot delay the next one instead of queueing.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.Tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick()
		}
	}
}

func (l *Loop) exchange() bool {
	local := peerlink.PeerState{
		ID:   l.playerID,
		Head: l.world.Head(),
		Dir:  l.world.Direction(),
	}
	if err := l.peer.Publish(local); err != nil {
		l.logger.Warn("publish failed", "error", err)
	}

	state, ok, err := l.peer.Poll(l.clock.NowMillis())
	if err != nil {
		l.logger.Warn("peer poll", "error", err)
	}
	if ok {
		l.remote = state
		l.hasRemote = true
	}
	return ok
}

func (l *Loop) finishRound() {
	if l.recorded {
		return
	}
	l.recorded = true

	snap := l.world.Snapshot()
	round := storage.Round{
		Role:   l.roleLabel(),
		Length: snap.Len,
		Apples: snap.Eaten,
		Ticks:  snap.Tick,
	}
	l.logger.Info("game over",
		"length", round.Length,
		"apples", round.Apples,
		"ticks", round.Ticks,
		"head", fmt.Sprintf("(%d,%d)", snap.HeadX, snap.HeadY),
	)

	if l.recorder == nil {
		return
	}
	if _, err := l.recorder.SaveRound(round); err != nil {
		l.logger.Warn("could not record round", "error", err)
	}
}

func (l *Loop) restart(points []input.TouchPoint) {
	l.world.Reset()
	l.recorded = false
	l.overTicks = 0
	// The restarting touch must not also steer the new round.
	l.mapper.Release()
	l.mapper.Map(points, l.world.Direction())
	l.logger.Info("new round")
}

func (l *Loop) roleLabel() string {
	if l.peer == nil {
		return "solo"
	}
	return l.peer.Role().String()
}

// World returns the board the loop drives.
func (l *Loop) World() *snake.World {
	return l.world
}

// Mapper returns the touch mapper.
func (l *Loop) Mapper() *input.Mapper {
	return l.mapper
}

// Remote returns the last state received from the peer.
func (l *Loop) Remote() (peerlink.PeerState, bool) {
	return l.remote, l.hasRemote
}

// Solo reports whether the loop runs without a peer.
func (l *Loop) Solo() bool {
	return l.peer == nil
}

// Interval returns the Run period.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Frames returns the number of ticks run so far.
func (l *Loop) Frames() uint64 {
	return l.frames
}
