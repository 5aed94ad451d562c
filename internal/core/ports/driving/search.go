package driving

import (
	"context"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// RetrievalService ranks indexed pages against a query.
type RetrievalService interface {
	// Search ranks every record in scope against a query embedding,
	// highest weighted score first.
	Search(ctx context.Context, query []float32, scope domain.Scope) ([]domain.ScoredRecord, error)

	// SearchText embeds query and then behaves like Search.
	SearchText(ctx context.Context, query string, scope domain.Scope) ([]domain.ScoredRecord, error)

	// SearchConversations ranks past conversation entries in scope.
	SearchConversations(ctx context.Context, query string, scope domain.Scope) ([]domain.ScoredConversation, error)
}
