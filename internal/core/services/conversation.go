package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
	"github.com/custodia-labs/spaces/internal/core/ports/driving"
	"github.com/custodia-labs/spaces/internal/logger"
)

// Ensure ConversationService implements the interface.
var _ driving.ConversationService = (*ConversationService)(nil)

// ConversationService threads questions to their answers.
type ConversationService struct {
	store    driven.Store
	embedder driven.EmbeddingService
	policy   domain.CallPolicy
}

// NewConversationService creates a conversation service.
func NewConversationService(
	store driven.Store,
	embedder driven.EmbeddingService,
	policy domain.CallPolicy,
) *ConversationService {
	return &ConversationService{
		store:    store,
		embedder: embedder,
		policy:   policy,
	}
}

// RecordExchange stores the question as a user entry and the answer as an
// ai entry pointing at it. Both texts are qualified with the scope and
// embedded before anything is written, so an embedding failure leaves no
// unanswered question behind.
func (s *ConversationService) RecordExchange(
	ctx context.Context, x domain.Exchange,
) (questionID, answerID int64, err error) {
	if strings.TrimSpace(x.Space) == "" {
		return 0, 0, fmt.Errorf("%w: space is required", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return 0, 0, &domain.EmbeddingProviderError{Op: "exchange", Err: errors.New("no embedding service configured")}
	}

	question := x.Qualify(x.Question)
	answer := x.Qualify(x.Answer)

	vecs, err := callWithPolicy(ctx, s.policy, "embed exchange", func(ctx context.Context) ([][]float32, error) {
		return s.embedder.EmbedBatch(ctx, []string{question, answer})
	})
	if err != nil {
		return 0, 0, &domain.EmbeddingProviderError{Op: "exchange", Err: err}
	}
	if len(vecs) != 2 {
		return 0, 0, &domain.EmbeddingProviderError{
			Op:  "exchange",
			Err: fmt.Errorf("expected 2 embeddings, got %d", len(vecs)),
		}
	}

	base := domain.ConversationEntry{
		SpaceName: x.Space,
		FileName:  x.Document,
		ClientID:  x.ClientID,
	}
	if x.Document != "" {
		if f, err := s.store.GetFile(ctx, x.Space, x.Document); err == nil {
			base.FileID = &f.ID
		}
	}

	q := base
	q.Sender = domain.SenderUser
	q.Text = question
	q.Embedding = domain.VectorEmbedding(vecs[0])
	questionID, err = s.store.InsertConversationEntry(ctx, &q)
	if err != nil {
		return 0, 0, fmt.Errorf("insert question: %w", err)
	}

	a := base
	a.Sender = domain.SenderAI
	a.Text = answer
	a.RelatedID = &questionID
	a.Embedding = domain.VectorEmbedding(vecs[1])
	answerID, err = s.store.InsertConversationEntry(ctx, &a)
	if err != nil {
		return questionID, 0, fmt.Errorf("insert answer: %w", err)
	}

	logger.Debug("Recorded exchange %d -> %d", questionID, answerID)
	return questionID, answerID, nil
}

// Get returns a single conversation entry.
func (s *ConversationService) Get(ctx context.Context, id int64) (*domain.ConversationEntry, error) {
	entry, err := s.store.GetConversationEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get conversation entry: %w", err)
	}
	return entry, nil
}

// History returns past entries for a client, falling back to the space and
// then to the file within it when the client has none.
func (s *ConversationService) History(
	ctx context.Context, clientID, space, filename string,
) ([]domain.ConversationEntry, error) {
	entries, err := s.store.FetchConversations(ctx, clientID, space, filename)
	if err != nil {
		return nil, fmt.Errorf("fetch conversations: %w", err)
	}
	return entries, nil
}
