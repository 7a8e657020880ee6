package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nfrund/pairchat/client"
	"github.com/nfrund/pairchat/internal/chat"
	"github.com/spf13/cobra"
)

var historyPages int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the stored conversation with a peer",
	RunE: func(cmd *cobra.Command, args []string) error {
		room, err := resolveRoom()
		if err != nil {
			return err
		}

		store := client.NewStore()
		history := client.NewHistoryClient(serverURL)

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		for page := 0; page < historyPages; page++ {
			n, err := history.FetchOlder(ctx, store, room, 0)
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}
			if n == 0 {
				break
			}
		}

		if store.Len() == 0 {
			fmt.Printf("No messages in room %s yet.\n", room)
			return nil
		}
		renderEntries(os.Stdout, chat.GroupMessages(store.Ordered()))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyPages, "pages", 1, "number of history pages to fetch, newest first")
	rootCmd.AddCommand(historyCmd)
}
