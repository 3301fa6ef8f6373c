package main

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/multisnake/internal/config"
	"github.com/vovakirdan/multisnake/internal/input"
	"github.com/vovakirdan/multisnake/internal/render"
)

func TestReportFailureReachesTerminal(t *testing.T) {
	var logBuf, termBuf bytes.Buffer
	logger := log.New(&logBuf)

	bindErr := fmt.Errorf("link: bind 192.168.0.42:4242: %w", &net.OpError{
		Op:  "listen",
		Net: "udp4",
		Err: os.NewSyscallError("bind", syscall.EADDRNOTAVAIL),
	})
	reportFailure(&termBuf, logger, "board bring-up failed", bindErr)

	out := termBuf.String()
	if !strings.Contains(out, "board bring-up failed") || !strings.Contains(out, "192.168.0.42:4242") {
		t.Errorf("terminal output = %q", out)
	}
	if !strings.Contains(out, "--bind-any") {
		t.Errorf("terminal output has no bind hint: %q", out)
	}
	if !strings.Contains(logBuf.String(), "board bring-up failed") {
		t.Errorf("log output = %q", logBuf.String())
	}
}

func TestBindHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"address not available", os.NewSyscallError("bind", syscall.EADDRNOTAVAIL), true},
		{"address in use", os.NewSyscallError("bind", syscall.EADDRINUSE), true},
		{"other", io.ErrUnexpectedEOF, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := bindHint(tc.err) != ""; got != tc.want {
				t.Errorf("bindHint(%v) = %v, expected %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestFlagsOverrideInvalidFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	if err := os.WriteFile(path, []byte("peer:\n  role: relay\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	oldConfig, oldRole := flagConfig, flagRole
	t.Cleanup(func() { flagConfig, flagRole = oldConfig, oldRole })
	flagConfig, flagRole = path, "server"

	cfg, err := loadConfig(playCmd)
	if err != nil {
		t.Fatalf("loadConfig() failed: %v", err)
	}
	if cfg.Peer.Role != "server" {
		t.Errorf("role = %q, expected server", cfg.Peer.Role)
	}

	flagRole = ""
	if _, err := loadConfig(playCmd); err == nil {
		t.Error("loadConfig() accepted role relay without an override")
	}
}

func TestBringUpSolo(t *testing.T) {
	cfg := config.Default()
	cfg.Peer.Enabled = false
	cfg.Game.Seed = 7

	b, err := bringUp(cfg, log.New(io.Discard))
	if err != nil {
		t.Fatalf("bringUp() failed: %v", err)
	}
	if b.peer != nil {
		t.Error("solo board has a peer link")
	}
	if b.store == nil {
		t.Fatal("round log not opened")
	}

	defer b.store.Close()

	l := b.newLoop(input.NoTouch{}, render.Discard)
	l.Tick()
	if !l.Solo() || l.Frames() != 1 {
		t.Errorf("Solo() = %v Frames() = %d", l.Solo(), l.Frames())
	}
}
