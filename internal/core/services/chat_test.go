package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spaces/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

func newChatService(store driven.Store, embedder *mockEmbeddingService, answers driven.AnswerProvider) *ChatService {
	policy := domain.DefaultCallPolicy()
	retrieval := NewRetrievalService(store, embedder, domain.DefaultAppSettings().Scoring, policy)
	conversations := NewConversationService(store, embedder, policy)
	return NewChatService(retrieval, conversations, answers, policy)
}

func TestChatService_Ask(t *testing.T) {
	store := memory.NewStore()
	addRecord(t, store, "finance", "q3.pdf", 1, domain.VectorEmbedding([]float32{1, 0}), 10)
	addRecord(t, store, "finance", "q3.pdf", 2, domain.VectorEmbedding([]float32{0.5, 0.5}), 0)
	addRecord(t, store, "finance", "q4.pdf", 1, domain.VectorEmbedding([]float32{0, 1}), 0)
	addRecord(t, store, "legal", "nda.pdf", 1, domain.VectorEmbedding([]float32{1, 0}), 0)

	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	answers := &mockAnswerProvider{answer: "Revenue grew."}
	svc := newChatService(store, embedder, answers)

	resp, err := svc.Ask(context.Background(), domain.ChatRequest{
		Space:    "finance",
		Question: " How did revenue change? ",
		ClientID: "c1",
	})

	require.NoError(t, err)
	assert.Equal(t, "Revenue grew.", resp.Answer)
	assert.Equal(t, "How did revenue change?", answers.question)
	assert.Len(t, answers.passages, 3)
	for _, p := range answers.passages {
		assert.Equal(t, "finance", p.Record.Space())
	}

	require.Len(t, resp.Citations, 2)
	assert.Equal(t, "q3.pdf", resp.Citations[0].Source)
	assert.Equal(t, 1, resp.Citations[0].PageNo)
	assert.Equal(t, 2, resp.Citations[1].PageNo)

	assert.True(t, resp.Recorded)
	answer, err := store.GetConversationEntry(context.Background(), resp.AnswerID)
	require.NoError(t, err)
	require.NotNil(t, answer.RelatedID)
	assert.Equal(t, resp.QuestionID, *answer.RelatedID)
	assert.Equal(t, "finance - Revenue grew.", answer.Text)
}

func TestChatService_Ask_LimitsContextPassages(t *testing.T) {
	store := memory.NewStore()
	for page := 1; page <= DefaultContextPassages+5; page++ {
		addRecord(t, store, "s", "big.pdf", page, domain.VectorEmbedding([]float32{1, float32(page)}), 0)
	}
	answers := &mockAnswerProvider{answer: "ok"}
	svc := newChatService(store, &mockEmbeddingService{embedding: []float32{1, 0}}, answers)

	_, err := svc.Ask(context.Background(), domain.ChatRequest{Space: "s", Question: "q"})

	require.NoError(t, err)
	require.Len(t, answers.passages, DefaultContextPassages)
	assert.Equal(t, 1, answers.passages[0].Record.PageNo)
}

func TestChatService_Ask_FileScope(t *testing.T) {
	store := memory.NewStore()
	addRecord(t, store, "s", "a.pdf", 1, domain.VectorEmbedding([]float32{1, 0}), 0)
	addRecord(t, store, "s", "b.pdf", 1, domain.VectorEmbedding([]float32{1, 0}), 0)
	answers := &mockAnswerProvider{answer: "ok"}
	svc := newChatService(store, &mockEmbeddingService{embedding: []float32{1, 0}}, answers)

	resp, err := svc.Ask(context.Background(), domain.ChatRequest{Space: "s", Filename: "b.pdf", Question: "q"})

	require.NoError(t, err)
	require.Len(t, answers.passages, 1)
	assert.Equal(t, "b.pdf", answers.passages[0].Record.Source)

	question, err := store.GetConversationEntry(context.Background(), resp.QuestionID)
	require.NoError(t, err)
	assert.Equal(t, "s/b.pdf - q", question.Text)
	require.NotNil(t, question.FileID)
}

func TestChatService_Ask_NoAnswerProvider(t *testing.T) {
	svc := newChatService(memory.NewStore(), &mockEmbeddingService{embedding: []float32{1}}, nil)

	_, err := svc.Ask(context.Background(), domain.ChatRequest{Space: "s", Question: "q"})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestChatService_Ask_EmptyQuestion(t *testing.T) {
	svc := newChatService(memory.NewStore(), &mockEmbeddingService{}, &mockAnswerProvider{})

	_, err := svc.Ask(context.Background(), domain.ChatRequest{Space: "s", Question: "  "})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChatService_Ask_AnswerFailure(t *testing.T) {
	store := memory.NewStore()
	addRecord(t, store, "s", "a.pdf", 1, domain.VectorEmbedding([]float32{1, 0}), 0)
	svc := newChatService(store, &mockEmbeddingService{embedding: []float32{1, 0}}, &mockAnswerProvider{err: errBoom})

	resp, err := svc.Ask(context.Background(), domain.ChatRequest{Space: "s", Question: "q"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.ErrorIs(t, err, errBoom)

	history, err := store.FetchConversations(context.Background(), "", "s", "")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChatService_Ask_RetrievalFailure(t *testing.T) {
	store := &faultyStore{Store: memory.NewStore(), fetchErr: errBoom}
	answers := &mockAnswerProvider{answer: "ok"}
	svc := newChatService(store, &mockEmbeddingService{embedding: []float32{1, 0}}, answers)

	_, err := svc.Ask(context.Background(), domain.ChatRequest{Space: "s", Question: "q"})

	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
	assert.Empty(t, answers.question)
}

func TestChatService_Ask_RecordingFailureStillAnswers(t *testing.T) {
	mem := memory.NewStore()
	addRecord(t, mem, "s", "a.pdf", 1, domain.VectorEmbedding([]float32{1, 0}), 0)
	store := &faultyStore{Store: mem, insertErr: fmt.Errorf("disk full")}
	svc := newChatService(store, &mockEmbeddingService{embedding: []float32{1, 0}}, &mockAnswerProvider{answer: "ok"})

	resp, err := svc.Ask(context.Background(), domain.ChatRequest{Space: "s", Question: "q"})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Answer)
	assert.False(t, resp.Recorded)
	assert.Zero(t, resp.QuestionID)
	assert.Len(t, resp.Citations, 1)
}
