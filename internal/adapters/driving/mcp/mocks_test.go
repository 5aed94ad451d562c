package mcp

import (
	"context"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results       []domain.ScoredRecord
	conversations []domain.ScoredConversation
	err           error

	lastQuery string
	lastScope domain.Scope
}

func (m *mockRetrievalService) Search(context.Context, []float32, domain.Scope) ([]domain.ScoredRecord, error) {
	return m.results, m.err
}

func (m *mockRetrievalService) SearchText(_ context.Context, query string, scope domain.Scope) ([]domain.ScoredRecord, error) {
	m.lastQuery, m.lastScope = query, scope
	return m.results, m.err
}

func (m *mockRetrievalService) SearchConversations(
	context.Context, string, domain.Scope,
) ([]domain.ScoredConversation, error) {
	return m.conversations, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	resp    *domain.ChatResponse
	err     error
	lastReq domain.ChatRequest
}

func (m *mockChatService) Ask(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

// mockSpaceService is a mock implementation of driving.SpaceService.
type mockSpaceService struct {
	spaces    []domain.Space
	files     []domain.File
	err       error
	lastSpace string
}

func (m *mockSpaceService) List(context.Context) ([]domain.Space, error) {
	return m.spaces, m.err
}

func (m *mockSpaceService) Files(_ context.Context, space string) ([]domain.File, error) {
	m.lastSpace = space
	return m.files, m.err
}

// mockConversationService is a mock implementation of driving.ConversationService.
type mockConversationService struct {
	entries []domain.ConversationEntry
	err     error
	args    [3]string
}

func (m *mockConversationService) RecordExchange(context.Context, domain.Exchange) (int64, int64, error) {
	return 0, 0, m.err
}

func (m *mockConversationService) Get(context.Context, int64) (*domain.ConversationEntry, error) {
	return nil, m.err
}

func (m *mockConversationService) History(
	_ context.Context, clientID, space, filename string,
) ([]domain.ConversationEntry, error) {
	m.args = [3]string{clientID, space, filename}
	return m.entries, m.err
}
