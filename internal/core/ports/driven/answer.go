package driven

import (
	"context"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// AnswerProvider produces a natural-language answer grounded in retrieved
// passages. Providers differ in prompt construction and citation style;
// the caller never branches on which one is configured.
//
// Implementations include:
//   - Ollama (local models)
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
//   - Google (Gemini), which asks for inline page citations
type AnswerProvider interface {
	// Answer responds to question using passages ordered by relevance.
	Answer(ctx context.Context, question string, passages []domain.ScoredRecord) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
