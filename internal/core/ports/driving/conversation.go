package driving

import (
	"context"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// ConversationService records and reads question/answer exchanges.
type ConversationService interface {
	// RecordExchange persists the question then the answer linked to it.
	RecordExchange(ctx context.Context, x domain.Exchange) (questionID, answerID int64, err error)

	// Get returns a single entry.
	Get(ctx context.Context, id int64) (*domain.ConversationEntry, error)

	// History returns past entries for a client, falling back to the space
	// and then the file when the client has none.
	History(ctx context.Context, clientID, space, filename string) ([]domain.ConversationEntry, error)
}

// ChatService answers questions grounded in indexed pages.
type ChatService interface {
	Ask(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
}
