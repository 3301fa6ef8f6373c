package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/multisnake/internal/link"
	"github.com/vovakirdan/multisnake/internal/peerlink"
)

var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "Show role endpoints and the packet layout",
	Args:  cobra.NoArgs,
	Run:   runEndpoints,
}

func runEndpoints(cmd *cobra.Command, args []string) {
	fmt.Println("Role endpoints")
	fmt.Println()
	fmt.Printf("  %-8s  %-21s  %s\n", "Role", "Binds", "Sends to")
	fmt.Printf("  %-8s  %-21s  %s\n", "----", "-----", "--------")
	for _, role := range []peerlink.Role{peerlink.RoleClient, peerlink.RoleServer} {
		fmt.Printf("  %-8s  %-21s  %s\n", role, role.Local(), role.Peer())
	}

	bufs := link.DefaultBuffers()
	fmt.Println()
	fmt.Printf("Socket buffers: rx %d packets / %d bytes, tx %d packet / %d bytes\n",
		bufs.RxPackets, bufs.RxBytes, bufs.TxPackets, bufs.TxBytes)

	fmt.Println()
	fmt.Printf("Packet (%d bytes, little-endian)\n", peerlink.PacketSize)
	fmt.Println()
	fmt.Printf("  %-6s  %-4s  %s\n", "Offset", "Type", "Field")
	fmt.Printf("  %-6s  %-4s  %s\n", "------", "----", "-----")
	fmt.Printf("  %-6d  %-4s  %s\n", 0, "u8", "player id")
	fmt.Printf("  %-6d  %-4s  %s\n", 1, "u16", "head x")
	fmt.Printf("  %-6d  %-4s  %s\n", 3, "u16", "head y")
	fmt.Printf("  %-6d  %-4s  %s\n", 5, "u8", "direction: 0 up, 1 down, 2 left, 3 right")
}
