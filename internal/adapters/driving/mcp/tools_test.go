package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

func record(space, source string, page int, score float64) domain.ScoredRecord {
	return domain.ScoredRecord{
		Record: domain.EmbeddingRecord{
			PageNo:    page,
			Source:    source,
			Metadata:  domain.PageMetadata(source, page, space),
			Context:   domain.PageContext(source, page, space, "quarterly revenue"),
			ImagePath: space + "/" + source + "/page_1.png",
		},
		Similarity: score,
		Score:      score * 1.02,
	}
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked pages", func(t *testing.T) {
		retrieval := &mockRetrievalService{results: []domain.ScoredRecord{record("finance", "report.pdf", 3, 0.9)}}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "revenue", Space: "finance", File: "report.pdf"})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		got := output.Results[0]
		assert.Equal(t, "finance", got.Space)
		assert.Equal(t, "report.pdf", got.Source)
		assert.Equal(t, 3, got.Page)
		assert.InDelta(t, 0.9, got.Similarity, 1e-9)
		assert.InDelta(t, 0.918, got.Score, 1e-9)
		assert.Contains(t, got.Content, "quarterly revenue")
		assert.Equal(t, "revenue", retrieval.lastQuery)
		assert.Equal(t, domain.Scope{Space: "finance", Filename: "report.pdf"}, retrieval.lastScope)
	})

	t.Run("default limit is 10", func(t *testing.T) {
		results := make([]domain.ScoredRecord, 15)
		for i := range results {
			results[i] = record("hr", "handbook.pdf", i+1, 0.5)
		}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{results: results}})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "leave"})
		require.NoError(t, err)
		assert.Equal(t, 10, output.Count)

		_, output, err = server.handleSearch(ctx, nil, SearchInput{Query: "leave", Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 3, output.Count)
	})

	t.Run("empty results are an empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "nothing"})
		require.NoError(t, err)
		assert.NotNil(t, output.Results)
		assert.Empty(t, output.Results)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		retrieval := &mockRetrievalService{err: domain.ErrEmbeddingUnavailable}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("answers with citations", func(t *testing.T) {
		chat := &mockChatService{resp: &domain.ChatResponse{
			Answer: "Revenue grew 4% [report.pdf p.3].",
			Citations: []domain.Citation{
				{Source: "report.pdf", Space: "finance", PageNo: 3, ImagePath: "finance/report/page_3.png", Score: 0.91},
				{Source: "report.pdf", Space: "finance", PageNo: 4, Score: 0.7},
			},
			Recorded: true,
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "How did revenue do?", Space: "finance", ClientID: "c-1"})

		require.NoError(t, err)
		assert.Equal(t, "Revenue grew 4% [report.pdf p.3].", output.Answer)
		require.Len(t, output.Citations, 2)
		assert.Equal(t, CitationOutput{
			Space: "finance", Source: "report.pdf", Page: 3, ImagePath: "finance/report/page_3.png", Score: 0.91,
		}, output.Citations[0])
		assert.Equal(t, "c-1", output.ClientID)
		assert.True(t, output.Recorded)
		assert.Equal(t, domain.ChatRequest{Space: "finance", Question: "How did revenue do?", ClientID: "c-1"}, chat.lastReq)
	})

	t.Run("generates a client id", func(t *testing.T) {
		chat := &mockChatService{resp: &domain.ChatResponse{Answer: "ok"}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q", Space: "hr"})
		require.NoError(t, err)

		_, parseErr := uuid.Parse(output.ClientID)
		assert.NoError(t, parseErr)
		assert.Equal(t, output.ClientID, chat.lastReq.ClientID)
		assert.NotNil(t, output.Citations)
	})

	t.Run("unavailable without chat", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q", Space: "hr"})
		assert.ErrorIs(t, err, ErrAskUnavailable)
	})

	t.Run("wraps chat errors", func(t *testing.T) {
		chat := &mockChatService{err: errors.New("model overloaded")}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q", Space: "hr"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ask: model overloaded")
	})
}

func TestServer_handleHistory(t *testing.T) {
	ctx := context.Background()
	questionID := int64(7)

	conversations := &mockConversationService{entries: []domain.ConversationEntry{
		{ID: 7, Sender: domain.SenderUser, Text: "How many leave days?", SpaceName: "hr"},
		{ID: 8, Sender: domain.SenderAI, Text: "25 days.", SpaceName: "hr", RelatedID: &questionID},
	}}
	server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Conversations: conversations})
	require.NoError(t, err)

	_, output, err := server.handleHistory(ctx, nil, HistoryInput{ClientID: "c-1", Space: "hr"})

	require.NoError(t, err)
	require.Len(t, output.Entries, 2)
	assert.Equal(t, "user", output.Entries[0].Sender)
	assert.Equal(t, "ai", output.Entries[1].Sender)
	require.NotNil(t, output.Entries[1].RelatedID)
	assert.Equal(t, int64(7), *output.Entries[1].RelatedID)
	assert.Equal(t, [3]string{"c-1", "hr", ""}, conversations.args)

	conversations.err = domain.ErrNotFound
	_, _, err = server.handleHistory(ctx, nil, HistoryInput{ClientID: "c-1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
