package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

var (
	historyClientID string
	historySpace    string
	historyFile     string
	historyJSON     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show conversation history",
	Long: `Lists past questions and answers, oldest first.

Entries are looked up by client id. When the client has none, the entries of
the space are shown, and then those of the file.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyClientID, "client", "", "client id")
	historyCmd.Flags().StringVarP(&historySpace, "space", "s", "", "space to fall back to")
	historyCmd.Flags().StringVarP(&historyFile, "file", "f", "", "file to fall back to")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output entries as JSON")
	rootCmd.AddCommand(historyCmd)
}

// historyEntry is the JSON form of a conversation entry.
type historyEntry struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Space     string `json:"space"`
	File      string `json:"file,omitempty"`
	RelatedID *int64 `json:"related_id,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyClientID == "" && historySpace == "" && historyFile == "" {
		return fmt.Errorf("%w: one of --client, --space or --file is required", domain.ErrInvalidInput)
	}
	if err := loadServices(cmd); err != nil {
		return err
	}
	if conversationService == nil {
		return notConfigured("conversation")
	}

	entries, err := conversationService.History(commandContext(cmd), historyClientID, historySpace, historyFile)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}

	if historyJSON {
		out := make([]historyEntry, len(entries))
		for i, e := range entries {
			out[i] = historyEntry{
				ID:        e.ID,
				Sender:    string(e.Sender),
				Text:      e.Text,
				Timestamp: e.Timestamp.Format(time.RFC3339),
				Space:     e.SpaceName,
				File:      e.FileName,
				RelatedID: e.RelatedID,
				ClientID:  e.ClientID,
			}
		}
		return writeJSON(cmd, out)
	}

	if len(entries) == 0 {
		cmd.Println("No conversation history.")
		return nil
	}
	for _, e := range entries {
		who := sourceStyle.Render("you")
		if e.Sender == domain.SenderAI {
			who = titleStyle.Render("ai")
		}
		cmd.Printf("%s %s %s\n", mutedStyle.Render(e.Timestamp.Format("2006-01-02 15:04")), who,
			mutedStyle.Render("("+scopeLabel(e.SpaceName, e.FileName)+")"))
		cmd.Printf("    %s\n", e.Text)
	}
	return nil
}
