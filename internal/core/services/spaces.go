package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
	"github.com/custodia-labs/spaces/internal/core/ports/driving"
)

// Ensure SpaceService implements the interface.
var _ driving.SpaceService = (*SpaceService)(nil)

// SpaceService lists spaces and the documents inside them.
type SpaceService struct {
	store driven.SpaceStore
}

// NewSpaceService creates a space service.
func NewSpaceService(store driven.SpaceStore) *SpaceService {
	return &SpaceService{store: store}
}

// List returns every space.
func (s *SpaceService) List(ctx context.Context) ([]domain.Space, error) {
	spaces, err := s.store.ListSpaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return spaces, nil
}

// Files returns the documents in a space with their indexed flag.
func (s *SpaceService) Files(ctx context.Context, space string) ([]domain.File, error) {
	files, err := s.store.ListFiles(ctx, space)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}
