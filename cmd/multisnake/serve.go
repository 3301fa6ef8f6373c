package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/multisnake/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the board's display and touch panel over SSH",
	Long: `Bring up a board whose display and touch panel are an SSH session.

The board, its peer link and its round log live in this process. One SSH
session at a time drives it; further sessions are turned away until the
current one ends. The loop runs while a session is attached.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.multisnake/host_key

Examples:
  multisnake serve --role server --bind-any --peer 10.0.0.5:4242
  multisnake serve --solo --ssh :2222

Connect with:
  ssh -t localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	addBoardFlags(serveCmd)
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	b, err := bringUp(cfg, logger)
	if err != nil {
		reportFailure(os.Stderr, logger, "board bring-up failed", err)
		os.Exit(1)
	}

	gridW, gridH := cfg.GridSize()
	surface := tui.NewScreenSurface(gridW, gridH, cfg.Display.BlockSize)
	touch := tui.NewTouchPanel()
	l := b.newLoop(touch, surface)

	sshCfg := tui.DefaultSSHServerConfig()
	sshCfg.Address = flagSSHAddr
	sshCfg.HostKeyPath = flagHostKey
	sshCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute

	server, err := tui.NewSSHServer(sshCfg, tui.Board{Loop: l, Surface: surface, Touch: touch, Store: b.store}, logger)
	if err != nil {
		b.shutdown(l, logger)
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Serving the board over SSH on %s\n", server.Addr())
	fmt.Println("Connect with: ssh -t localhost -p <port>")
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := server.ListenAndServe(ctx)
	b.shutdown(l, logger)
	if serveErr != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", serveErr)
		os.Exit(1)
	}
}
