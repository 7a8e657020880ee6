package cmd

import (
	"errors"
	"os"

	"github.com/nfrund/pairchat/internal/chat"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	userID    int
	peerID    int
)

var rootCmd = &cobra.Command{
	Use:   "pairchat-cli",
	Short: "Pairchat CLI tool",
	Long: `Pairchat CLI is a terminal client for a pairchat relay.

Available commands:
  connect    Join the conversation with a peer and chat interactively
  history    Print the stored conversation with a peer

Use "pairchat-cli [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3001", "relay server base URL")
	rootCmd.PersistentFlags().IntVar(&userID, "user", 0, "your user id")
	rootCmd.PersistentFlags().IntVar(&peerID, "peer", 0, "the peer's user id")
}

// resolveRoom turns the --user/--peer pair into a room id, failing the same
// way the server does when either participant is missing.
func resolveRoom() (string, error) {
	room := chat.RoomID(userID, peerID)
	if room == chat.NoRoom {
		return "", errors.New("both --user and --peer are required")
	}
	return room, nil
}
