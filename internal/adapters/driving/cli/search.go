package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

var (
	searchSpace         string
	searchFile          string
	searchLimit         int
	searchJSON          bool
	searchConversations bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed pages",
	Long: `Ranks every indexed page in scope against the query.

Scores are cosine similarity boosted by page length. Use --space and --file
to narrow the scope, or --conversations to search past questions and
answers instead of pages.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchSpace, "space", "s", "", "restrict to one space")
	searchCmd.Flags().StringVarP(&searchFile, "file", "f", "", "restrict to one file (requires --space)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchConversations, "conversations", false, "search conversation history")
	rootCmd.AddCommand(searchCmd)
}

// searchResult is the JSON form of a ranked page.
type searchResult struct {
	ID         int64   `json:"id"`
	Space      string  `json:"space"`
	Source     string  `json:"source"`
	Page       int     `json:"page"`
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
	ImagePath  string  `json:"image_path,omitempty"`
	Context    string  `json:"context"`
}

// conversationResult is the JSON form of a ranked conversation entry.
type conversationResult struct {
	ID         int64   `json:"id"`
	Sender     string  `json:"sender"`
	Space      string  `json:"space"`
	File       string  `json:"file,omitempty"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := loadServices(cmd); err != nil {
		return err
	}
	if retrievalService == nil {
		return notConfigured("retrieval")
	}

	scope := domain.Scope{Space: searchSpace, Filename: searchFile}
	if scope.Filename != "" && scope.Space == "" {
		return fmt.Errorf("%w: --file requires --space", domain.ErrInvalidInput)
	}

	if searchConversations {
		results, err := retrievalService.SearchConversations(commandContext(cmd), args[0], scope)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		results = limitResults(results, searchLimit)
		if searchJSON {
			return outputConversationsJSON(cmd, results)
		}
		outputConversationsTable(cmd, results)
		return nil
	}

	results, err := retrievalService.SearchText(commandContext(cmd), args[0], scope)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results = limitResults(results, searchLimit)

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchTable(cmd, results)
	return nil
}

func limitResults[T any](results []T, limit int) []T {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func outputSearchJSON(cmd *cobra.Command, results []domain.ScoredRecord) error {
	out := make([]searchResult, len(results))
	for i, r := range results {
		out[i] = searchResult{
			ID:         r.Record.ID,
			Space:      r.Record.Space(),
			Source:     r.Record.Source,
			Page:       r.Record.PageNo,
			Score:      r.Score,
			Similarity: r.Similarity,
			ImagePath:  r.Record.ImagePath,
			Context:    r.Record.Context,
		}
	}
	return writeJSON(cmd, out)
}

func outputSearchTable(cmd *cobra.Command, results []domain.ScoredRecord) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println(titleStyle.Render("Results:"))
	cmd.Println()
	for i, r := range results {
		// Format: [N] source p.N (space) score
		cmd.Printf("[%d] %s %s %s\n",
			i+1,
			sourceStyle.Render(fmt.Sprintf("%s p.%d", r.Record.Source, r.Record.PageNo)),
			mutedStyle.Render("("+r.Record.Space()+")"),
			mutedStyle.Render(fmt.Sprintf("%.4f", r.Score)))
		if text := snippet(r.Record.Context, 160); text != "" {
			cmd.Printf("    %s\n", text)
		}
	}
}

func outputConversationsJSON(cmd *cobra.Command, results []domain.ScoredConversation) error {
	out := make([]conversationResult, len(results))
	for i, r := range results {
		out[i] = conversationResult{
			ID:         r.Entry.ID,
			Sender:     string(r.Entry.Sender),
			Space:      r.Entry.SpaceName,
			File:       r.Entry.FileName,
			Text:       r.Entry.Text,
			Score:      r.Score,
			Similarity: r.Similarity,
		}
	}
	return writeJSON(cmd, out)
}

func outputConversationsTable(cmd *cobra.Command, results []domain.ScoredConversation) {
	if len(results) == 0 {
		cmd.Println("No conversations found.")
		return
	}

	cmd.Println(titleStyle.Render("Conversations:"))
	cmd.Println()
	for i, r := range results {
		cmd.Printf("[%d] %s %s %s\n",
			i+1,
			sourceStyle.Render(string(r.Entry.Sender)),
			mutedStyle.Render("("+scopeLabel(r.Entry.SpaceName, r.Entry.FileName)+")"),
			mutedStyle.Render(fmt.Sprintf("%.4f", r.Score)))
		cmd.Printf("    %s\n", snippet(r.Entry.Text, 160))
	}
}

func scopeLabel(space, file string) string {
	if file == "" {
		return space
	}
	return space + "/" + file
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
