package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
	"github.com/custodia-labs/spaces/internal/core/ports/driving"
	"github.com/custodia-labs/spaces/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// DefaultContextPassages is how many ranked pages are handed to the answer provider.
const DefaultContextPassages = 10

// ChatService answers a question from the pages in scope and records the exchange.
type ChatService struct {
	retrieval     *RetrievalService
	conversations *ConversationService
	answers       driven.AnswerProvider
	policy        domain.CallPolicy
}

// NewChatService creates a chat service.
func NewChatService(
	retrieval *RetrievalService,
	conversations *ConversationService,
	answers driven.AnswerProvider,
	policy domain.CallPolicy,
) *ChatService {
	return &ChatService{
		retrieval:     retrieval,
		conversations: conversations,
		answers:       answers,
		policy:        policy,
	}
}

// Ask retrieves the best pages for the question, asks the answer provider,
// and records the exchange. A failure to record is logged and the answer
// is still returned with Recorded set to false.
func (s *ChatService) Ask(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if s.answers == nil {
		return nil, domain.ErrLLMUnavailable
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	results, err := s.retrieval.SearchText(ctx, req.Question, req.Scope())
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	passages := results
	if len(passages) > DefaultContextPassages {
		passages = passages[:DefaultContextPassages]
	}

	logger.Section("Answer")
	logger.Debug("Provider: %s, passages: %d", s.answers.ModelName(), len(passages))

	answer, err := callWithPolicy(ctx, s.policy, "answer", func(ctx context.Context) (string, error) {
		return s.answers.Answer(ctx, req.Question, passages)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	resp := &domain.ChatResponse{
		Answer:    answer,
		Citations: Citations(results, DefaultCitationCount),
	}

	qID, aID, err := s.conversations.RecordExchange(ctx, domain.Exchange{
		Space:    req.Space,
		Document: req.Filename,
		Question: req.Question,
		Answer:   answer,
		ClientID: req.ClientID,
	})
	if err != nil {
		logger.Warn("Could not record exchange: %v", err)
		return resp, nil
	}
	resp.QuestionID = qID
	resp.AnswerID = aID
	resp.Recorded = true
	return resp, nil
}
