package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nfrund/pairchat/client"
	"github.com/nfrund/pairchat/internal/chat"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Join the conversation with a peer and chat interactively",
	Long: `Connect opens a live session with the relay, prints the most recent
messages, and then relays every line you type to your peer. The session
survives network drops: the client reconnects with backoff and rejoins
the room automatically.`,
	RunE: runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	room, err := resolveRoom()
	if err != nil {
		return err
	}

	store := client.NewStore()
	history := client.NewHistoryClient(serverURL)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	n, err := history.FetchOlder(ctx, store, room, 0)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if n > 0 {
		renderEntries(os.Stdout, chat.GroupMessages(store.Ordered()))
	}

	manager := client.NewManager(websocketURL(serverURL))
	defer manager.Unbind()

	err = manager.Bind(room, func(msg chat.Message) {
		store.Reconcile(msg)
		if msg.SenderID != userID {
			renderMessage(msg)
		}
	})
	if err != nil {
		return err
	}

	fmt.Printf("Connected to room %s as user %d. Type a message and press enter. Ctrl-D to leave.\n", room, userID)

	go watchConnection(manager)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			fmt.Println("\nLeaving.")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Println("Leaving.")
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			draft := store.RecordOptimistic(chat.Message{
				SenderID:    userID,
				RecipientID: peerID,
				Content:     line,
			})
			if err := manager.Send(draft); err != nil {
				fmt.Printf("  (not sent: %v)\n", err)
			}
		}
	}
}

// watchConnection surfaces connection state changes on the terminal.
func watchConnection(manager *client.Manager) {
	last := manager.State()
	for {
		time.Sleep(200 * time.Millisecond)
		state := manager.State()
		if state == last {
			continue
		}
		switch state {
		case client.StateReconnecting:
			fmt.Printf("  (connection lost, reconnecting, attempt %d)\n", manager.ReconnectAttempts())
		case client.StateConnected:
			fmt.Println("  (connected)")
		case client.StateError:
			fmt.Printf("  (%s)\n", manager.LastError())
			return
		case client.StateDisconnected:
			return
		}
		last = state
	}
}

// renderEntries prints a grouped transcript: date and time headers between
// bursts, sender prefix whenever a message does not continue the previous
// sender's run. A standalone message carries no group-start flag but still
// needs attribution.
func renderEntries(w io.Writer, entries []chat.Entry) {
	var prev *chat.Message
	for _, entry := range entries {
		switch entry.Kind {
		case chat.EntryTimestamp:
			fmt.Fprintf(w, "--- %s %s ---\n", entry.Day, entry.Time)
		case chat.EntryMessage:
			if entry.IsGroupStart || prev == nil || prev.SenderID != entry.Message.SenderID {
				fmt.Fprintf(w, "%s:\n", senderLabel(*entry.Message))
			}
			fmt.Fprintf(w, "  %s\n", entry.Message.Content)
			prev = entry.Message
		}
	}
}

func renderMessage(msg chat.Message) {
	fmt.Printf("%s: %s\n", senderLabel(msg), msg.Content)
}

func senderLabel(msg chat.Message) string {
	if msg.SenderID == userID {
		return "you"
	}
	return fmt.Sprintf("user %d", msg.SenderID)
}

// websocketURL rewrites the relay's HTTP base URL to its websocket endpoint.
func websocketURL(base string) string {
	u := strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}
