package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

var (
	askSpace    string
	askFile     string
	askClientID string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about a space",
	Long: `Answers a question from the best matching pages in the space.

The answer cites the two highest ranked pages. The question and answer are
stored as a conversation under the client id, so later history lookups can
find them. A new client id is generated when --client is not given.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSpace, "space", "s", "", "space to answer from (required)")
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "restrict to one file")
	askCmd.Flags().StringVar(&askClientID, "client", "", "client id to record the exchange under")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

// askResult is the JSON form of an answer.
type askResult struct {
	Answer     string           `json:"answer"`
	Citations  []citationResult `json:"citations"`
	ClientID   string           `json:"client_id"`
	QuestionID int64            `json:"question_id,omitempty"`
	AnswerID   int64            `json:"answer_id,omitempty"`
	Recorded   bool             `json:"recorded"`
}

type citationResult struct {
	Source    string  `json:"source"`
	Space     string  `json:"space"`
	Page      int     `json:"page"`
	ImagePath string  `json:"image_path,omitempty"`
	Score     float64 `json:"score"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(askSpace) == "" {
		return fmt.Errorf("%w: --space is required", domain.ErrInvalidInput)
	}
	if err := loadServices(cmd); err != nil {
		return err
	}
	if chatService == nil {
		return fmt.Errorf("%w: no answer provider configured", domain.ErrLLMUnavailable)
	}

	clientID := askClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	resp, err := chatService.Ask(commandContext(cmd), domain.ChatRequest{
		Space:    askSpace,
		Filename: askFile,
		Question: args[0],
		ClientID: clientID,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		out := askResult{
			Answer:     resp.Answer,
			Citations:  make([]citationResult, len(resp.Citations)),
			ClientID:   clientID,
			QuestionID: resp.QuestionID,
			AnswerID:   resp.AnswerID,
			Recorded:   resp.Recorded,
		}
		for i, c := range resp.Citations {
			out.Citations[i] = citationResult{
				Source:    c.Source,
				Space:     c.Space,
				Page:      c.PageNo,
				ImagePath: c.ImagePath,
				Score:     c.Score,
			}
		}
		return writeJSON(cmd, out)
	}

	cmd.Println(resp.Answer)
	if len(resp.Citations) > 0 {
		cmd.Println()
		cmd.Println(titleStyle.Render("Sources:"))
		for i, c := range resp.Citations {
			cmd.Printf("[%d] %s %s\n", i+1,
				sourceStyle.Render(fmt.Sprintf("%s p.%d", c.Source, c.PageNo)),
				mutedStyle.Render(c.ImagePath))
		}
	}
	cmd.Println()
	cmd.Println(mutedStyle.Render("Client: " + clientID))
	if !resp.Recorded {
		cmd.Println(warningStyle.Render("Warning: the exchange was not saved to history."))
	}
	return nil
}
