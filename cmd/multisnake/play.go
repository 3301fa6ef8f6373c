package main

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/multisnake/internal/config"
	"github.com/vovakirdan/multisnake/internal/core"
	"github.com/vovakirdan/multisnake/internal/games/snake"
	"github.com/vovakirdan/multisnake/internal/input"
	"github.com/vovakirdan/multisnake/internal/link"
	"github.com/vovakirdan/multisnake/internal/loop"
	"github.com/vovakirdan/multisnake/internal/peerlink"
	"github.com/vovakirdan/multisnake/internal/platform/tui"
	"github.com/vovakirdan/multisnake/internal/render"
	"github.com/vovakirdan/multisnake/internal/storage"
)

var (
	flagRole     string
	flagPeer     string
	flagSolo     bool
	flagBindAny  bool
	flagHeadless bool
	flagSeed     int64
	flagLogFile  string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a board",
	Long: `Start a snake board in the terminal.

The board binds its role's fixed endpoint and sends its head position to
the other role every tick. Hosts that do not own the fixed addresses can
use --bind-any together with --peer.

Controls:
  Arrows/WASD  - Press the matching touch zone
  Mouse        - Touch the panel (left button)
  Space/Enter  - Tap the panel centre (restarts after game over)
  Ctrl+S       - Save a screenshot
  Q/Ctrl+C     - Quit

Examples:
  multisnake play --role client
  multisnake play --role server
  multisnake play --solo --seed 7
  multisnake play --headless --role server --bind-any`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	addBoardFlags(playCmd)
	playCmd.Flags().BoolVar(&flagHeadless, "headless", false, "Run without a display or input, logging to stderr")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Log file used while the terminal UI is active")
}

// addBoardFlags registers the flags every command that brings up a board shares.
func addBoardFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagRole, "role", "", "Peer role: client or server (overrides config)")
	cmd.Flags().StringVar(&flagPeer, "peer", "", "Remote endpoint host:port (default: the other role's endpoint)")
	cmd.Flags().BoolVar(&flagSolo, "solo", false, "Play without the network link")
	cmd.Flags().BoolVar(&flagBindAny, "bind-any", false, "Bind the role's port on all local addresses")
	cmd.Flags().Int64Var(&flagSeed, "seed", 0, "Apple placement seed (0 = random)")
}

func runPlay(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg, !flagHeadless)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	fatal := func(msg string, err error) {
		reportFailure(os.Stderr, logger, msg, err)
		closeLog()
		os.Exit(1)
	}

	gridW, gridH := cfg.GridSize()
	surface := tui.NewScreenSurface(gridW, gridH, cfg.Display.BlockSize)
	if !flagHeadless {
		if err := checkTerminal(surface); err != nil {
			fatal("terminal bring-up failed", err)
		}
	}

	b, err := bringUp(cfg, logger)
	if err != nil {
		fatal("board bring-up failed", err)
	}

	var (
		l      *loop.Loop
		runErr error
	)
	if flagHeadless {
		l = b.newLoop(input.NoTouch{}, render.Discard)
		runErr = runHeadless(l, logger)
	} else {
		touch := tui.NewTouchPanel()
		l = b.newLoop(touch, surface)
		runErr = tui.Run(l, surface, touch, b.store, logger)
	}
	b.shutdown(l, logger)

	if runErr != nil {
		logger.Error("board stopped", "error", runErr)
		fmt.Fprintf(os.Stderr, "Error running board: %v\n", runErr)
		closeLog()
		os.Exit(1)
	}
}

// loadConfig reads the config, layers the command-line overrides on top and
// validates the result once.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Read(flagConfig)
	if err != nil {
		return cfg, err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyFlags layers command-line overrides onto the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if flagRole != "" {
		cfg.Peer.Role = flagRole
	}
	if flagPeer != "" {
		cfg.Peer.Remote = flagPeer
	}
	if flagSolo {
		cfg.Peer.Enabled = false
	}
	if flagBindAny {
		cfg.Peer.BindAny = true
	}
	if f := cmd.Flags().Lookup("seed"); f != nil && f.Changed {
		cfg.Game.Seed = flagSeed
	}
	if flagLogFile != "" {
		cfg.Log.File = flagLogFile
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
}

// reportFailure logs a bring-up failure and repeats it on w, which stays
// visible when the log goes to a file.
func reportFailure(w io.Writer, logger *log.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	fmt.Fprintf(w, "Error: %s: %v\n", msg, err)
	if hint := bindHint(err); hint != "" {
		fmt.Fprintln(w, hint)
	}
}

// bindHint suggests a way out when the role's fixed endpoint cannot be bound.
func bindHint(err error) string {
	if errors.Is(err, syscall.EADDRNOTAVAIL) || errors.Is(err, syscall.EADDRINUSE) || errors.Is(err, link.ErrUnaddressable) {
		return "Hint: hosts that do not own the role's address can use --bind-any with --peer host:port"
	}
	return ""
}

// newLogger writes to the log file when toFile is set, so the terminal UI is
// not corrupted, and to stderr otherwise.
func newLogger(cfg config.Config, toFile bool) (*log.Logger, func(), error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}

	var (
		out     io.Writer = os.Stderr
		closeFn           = func() {}
	)
	if toFile {
		path := config.ExpandHome(cfg.Log.File)
		if path == "" {
			out = io.Discard
		} else {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, nil, fmt.Errorf("cannot create log directory: %w", err)
			}
			f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return nil, nil, fmt.Errorf("cannot open log file: %w", err)
			}
			out = f
			closeFn = func() { f.Close() }
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "multisnake",
		Level:           level,
	})
	return logger, closeFn, nil
}

// checkTerminal makes sure the board, its frame and the status lines fit.
func checkTerminal(surface *tui.ScreenSurface) error {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("stdout is not a terminal; use --headless")
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("cannot read terminal size: %w", err)
	}
	return surface.CheckFits(w, h)
}

// board holds what one running board owns apart from its display and touch.
type board struct {
	world  *snake.World
	mapper *input.Mapper
	peer   *peerlink.PeerLink
	store  *storage.Store
	opts   []loop.Option
}

// bringUp builds the world, the touch mapper, the round log and, unless
// solo, the peer link.
func bringUp(cfg config.Config, logger *log.Logger) (*board, error) {
	world, err := newWorld(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	zones, err := cfg.Zones()
	if err != nil {
		return nil, fmt.Errorf("touch: %w", err)
	}
	mapper, err := input.NewMapper(zones)
	if err != nil {
		return nil, fmt.Errorf("touch: %w", err)
	}

	b := &board{
		world:  world,
		mapper: mapper,
		opts: []loop.Option{
			loop.WithLogger(logger),
			loop.WithBlockSize(cfg.Display.BlockSize),
			loop.WithInterval(cfg.Interval()),
			loop.WithRestartDelay(cfg.Game.RestartDelayTicks),
			loop.WithPlayerID(cfg.Peer.PlayerID),
		},
	}

	// Round log lives in memory only; the board keeps nothing across runs.
	if store, err := storage.OpenMemory(); err != nil {
		logger.Warn("could not open round log", "error", err)
	} else {
		b.store = store
		b.opts = append(b.opts, loop.WithRecorder(store))
	}

	if cfg.Peer.Enabled {
		peer, err := newPeer(cfg, logger)
		if err != nil {
			if b.store != nil {
				b.store.Close()
			}
			return nil, fmt.Errorf("link: %w", err)
		}
		b.peer = peer
		b.opts = append(b.opts, loop.WithPeer(peer))
	}
	return b, nil
}

func (b *board) newLoop(touch input.TouchSource, surface render.Surface) *loop.Loop {
	return loop.New(b.world, b.mapper, touch, surface, core.NewSystemClock(), b.opts...)
}

// shutdown releases the link and the round log and prints the session summary.
func (b *board) shutdown(l *loop.Loop, logger *log.Logger) {
	if b.peer != nil {
		s := b.peer.Stats()
		logger.Info("peer link down", "sent", s.Sent, "dropped", s.SendDropped, "received", s.Received, "rejected", s.Rejected)
		b.peer.Close()
	}
	logger.Info("board stopped", "frames", l.Frames())
	if b.store != nil {
		printSummary(b.store)
		b.store.Close()
	}
}

func newWorld(cfg config.Config, logger *log.Logger) (*snake.World, error) {
	dir, err := cfg.StartDirection()
	if err != nil {
		return nil, err
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = randomSeed()
	}
	logger.Debug("apple placement seeded", "seed", seed)

	gridW, gridH := cfg.GridSize()
	return snake.New(gridW, gridH,
		snake.WithStart(cfg.Start()),
		snake.WithDirection(dir),
		snake.WithRand(rand.New(rand.NewSource(seed))), //nolint:gosec // gameplay randomness
	)
}

func randomSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}

func newPeer(cfg config.Config, logger *log.Logger) (*peerlink.PeerLink, error) {
	role, err := cfg.Role()
	if err != nil {
		return nil, err
	}

	var udpOpts []link.UDPOption
	if cfg.Peer.BindAny {
		udpOpts = append(udpOpts, link.WithBindAny())
	}

	opts := []peerlink.Option{peerlink.WithLogger(logger)}
	remote, ok, err := cfg.Remote()
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, peerlink.WithRemote(remote))
	}

	return peerlink.New(link.NewUDPInterface(udpOpts...), role, opts...)
}

// runHeadless drives the loop until SIGINT or SIGTERM.
func runHeadless(l *loop.Loop, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("headless board running", "interval", l.Interval(), "solo", l.Solo())
	err := l.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// printSummary prints the session's rounds after the board stops.
func printSummary(store *storage.Store) {
	stats, err := store.Stats()
	if err != nil || stats.Rounds == 0 {
		return
	}
	rounds, err := store.TopRounds(5)
	if err != nil {
		return
	}

	fmt.Println("Session rounds")
	fmt.Println()
	fmt.Printf("  %-4s  %-6s  %-6s  %-6s  %s\n", "Rank", "Length", "Apples", "Ticks", "Role")
	fmt.Printf("  %-4s  %-6s  %-6s  %-6s  %s\n", "----", "------", "------", "-----", "----")
	for i, r := range rounds {
		fmt.Printf("  %-4d  %-6d  %-6d  %-6d  %s\n", i+1, r.Length, r.Apples, r.Ticks, r.Role)
	}
	fmt.Println()
	fmt.Printf("Rounds: %d  Best: %d  Average: %.1f\n", stats.Rounds, stats.BestLength, stats.AvgLength)
}
