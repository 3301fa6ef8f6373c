// multisnake is a two-player snake board: each player steers their own snake
// on a touch panel and sees the other player's head over UDP.
//
// Usage:
//
//	multisnake play          - Play in the terminal (mouse and arrow keys are the panel)
//	multisnake play --solo   - Play without the network link
//	multisnake serve         - Lend the board's display and touch panel to one SSH session
//	multisnake endpoints     - Show the fixed role endpoints and the packet layout
//
// Global flags:
//
//	--config <path>     - Board configuration YAML
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "multisnake",
	Short: "multisnake - two-player snake over UDP",
	Long: `multisnake runs one snake board. Two boards, a client and a server,
exchange their snake heads every tick over UDP so each player sees the
other one's position.

Available commands:
  play       - Start a board
  serve      - Host the board's display and touch panel over SSH
  endpoints  - Show the fixed addressing and packet layout

Examples:
  multisnake play --role client
  multisnake play --role server --bind-any --peer 127.0.0.1:4242
  multisnake play --solo
  multisnake endpoints`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to board config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(endpointsCmd)
}
