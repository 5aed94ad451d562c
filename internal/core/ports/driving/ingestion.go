package driving

import (
	"context"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// IngestionService indexes documents into spaces.
type IngestionService interface {
	// Ingest indexes one document. Per-page failures are reported in the
	// summary; the returned error is reserved for failures that stop the
	// whole document.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestionSummary, error)

	// IngestSpace indexes every supported document in the space folder.
	IngestSpace(ctx context.Context, space string, force bool) ([]*domain.IngestionSummary, error)
}
