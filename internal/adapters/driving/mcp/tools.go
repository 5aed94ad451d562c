package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// defaultSearchLimit caps search results when the caller gives no limit.
const defaultSearchLimit = 10

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"what to look for in the indexed pages"`
	Space string `json:"space,omitempty" jsonschema:"restrict the search to one space"`
	File  string `json:"file,omitempty" jsonschema:"restrict the search to one file of the space"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []PageResult `json:"results"`
	Count   int          `json:"count"`
}

// PageResult is a single ranked page.
type PageResult struct {
	Space      string  `json:"space"`
	Source     string  `json:"source"`
	Page       int     `json:"page"`
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
	ImagePath  string  `json:"image_path,omitempty"`
	Content    string  `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer"`
	Space    string `json:"space" jsonschema:"the space whose pages are used to answer"`
	File     string `json:"file,omitempty" jsonschema:"restrict the answer to one file of the space"`
	ClientID string `json:"client_id,omitempty" jsonschema:"conversation id; reuse it to keep related questions together"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string           `json:"answer"`
	Citations []CitationOutput `json:"citations"`
	ClientID  string           `json:"client_id"`
	Recorded  bool             `json:"recorded"`
}

// CitationOutput is a page the answer was drawn from.
type CitationOutput struct {
	Space     string  `json:"space"`
	Source    string  `json:"source"`
	Page      int     `json:"page"`
	ImagePath string  `json:"image_path,omitempty"`
	Score     float64 `json:"score"`
}

// HistoryInput is the input schema for the history tool.
type HistoryInput struct {
	ClientID string `json:"client_id,omitempty" jsonschema:"conversation id"`
	Space    string `json:"space,omitempty" jsonschema:"space to fall back to when the client has no history"`
	File     string `json:"file,omitempty" jsonschema:"file to fall back to when the space has no history"`
}

// HistoryOutput is the output schema for the history tool.
type HistoryOutput struct {
	Entries []HistoryEntry `json:"entries"`
}

// HistoryEntry is one side of a past exchange.
type HistoryEntry struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Space     string `json:"space"`
	File      string `json:"file,omitempty"`
	RelatedID *int64 `json:"related_id,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Rank indexed document pages against a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the pages of a space, with page citations",
	}, s.handleAsk)

	if s.ports.Conversations != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "history",
			Description: "List past questions and answers for a conversation, space or file",
		}, s.handleHistory)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.ports.Retrieval.SearchText(ctx, input.Query, domain.Scope{
		Space:    input.Space,
		Filename: input.File,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if len(results) > limit {
		results = results[:limit]
	}

	output := SearchOutput{
		Results: make([]PageResult, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		output.Results[i] = PageResult{
			Space:      r.Record.Space(),
			Source:     r.Record.Source,
			Page:       r.Record.PageNo,
			Score:      r.Score,
			Similarity: r.Similarity,
			ImagePath:  r.Record.ImagePath,
			Content:    r.Record.Context,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Chat == nil {
		return nil, AskOutput{}, ErrAskUnavailable
	}

	clientID := input.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	resp, err := s.ports.Chat.Ask(ctx, domain.ChatRequest{
		Space:    input.Space,
		Filename: input.File,
		Question: input.Question,
		ClientID: clientID,
	})
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("ask: %w", err)
	}

	output := AskOutput{
		Answer:    resp.Answer,
		Citations: make([]CitationOutput, len(resp.Citations)),
		ClientID:  clientID,
		Recorded:  resp.Recorded,
	}
	for i, c := range resp.Citations {
		output.Citations[i] = CitationOutput{
			Space:     c.Space,
			Source:    c.Source,
			Page:      c.PageNo,
			ImagePath: c.ImagePath,
			Score:     c.Score,
		}
	}

	return nil, output, nil
}

// handleHistory handles the history tool invocation.
func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	entries, err := s.ports.Conversations.History(ctx, input.ClientID, input.Space, input.File)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("history: %w", err)
	}

	output := HistoryOutput{Entries: make([]HistoryEntry, len(entries))}
	for i, e := range entries {
		output.Entries[i] = HistoryEntry{
			ID:        e.ID,
			Sender:    string(e.Sender),
			Text:      e.Text,
			Space:     e.SpaceName,
			File:      e.FileName,
			RelatedID: e.RelatedID,
		}
	}

	return nil, output, nil
}
