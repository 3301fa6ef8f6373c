package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/multisnake/internal/loop"
	"github.com/vovakirdan/multisnake/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.multisnake/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		IdleTimeout: 30 * time.Minute,
	}
}

// Board is one loop together with the surface and touch panel it was built
// with. store may be nil.
type Board struct {
	Loop    *loop.Loop
	Surface *ScreenSurface
	Touch   *TouchPanel
	Store   *storage.Store
}

// SSHServer lends a board's display and touch panel to an SSH session. Only
// one session holds them at a time; the loop ticks while it is attached.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	board  Board
	logger *log.Logger
	busy   atomic.Bool
}

// NewSSHServer creates a new SSH server for board.
func NewSSHServer(cfg SSHServerConfig, board Board, logger *log.Logger) (*SSHServer, error) {
	srv := &SSHServer{
		config: cfg,
		board:  board,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".multisnake", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.exclusiveMiddleware,
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler attaches the board to the session's terminal.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		wish.Fatalln(sess, "multisnake needs a terminal; connect with ssh -t")
		return nil, nil
	}
	if err := s.board.Surface.CheckFits(pty.Window.Width, pty.Window.Height); err != nil {
		wish.Fatalln(sess, err)
		return nil, nil
	}

	model := NewModel(s.board.Loop, s.board.Surface, s.board.Touch, s.board.Store, s.logger)
	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
}

// exclusiveMiddleware turns sessions away while another one holds the board.
func (s *SSHServer) exclusiveMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		if !s.busy.CompareAndSwap(false, true) {
			s.logger.Info("board busy", "user", sess.User())
			wish.Fatalln(sess, "The board is in use by another session. Try again later.")
			return
		}
		defer s.busy.Store(false)

		next(sess)
		// A finger still down when the session drops must not carry over.
		s.board.Touch.Release()
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		s.logger.Info("session started",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
		next(sess)
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
	}
}

// ListenAndServe serves sessions until ctx is done, then shuts down.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	errc := make(chan error, 1)
	go func() {
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
