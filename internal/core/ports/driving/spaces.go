package driving

import (
	"context"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// SpaceService lists spaces and their documents.
type SpaceService interface {
	List(ctx context.Context) ([]domain.Space, error)
	Files(ctx context.Context, space string) ([]domain.File, error)
}
