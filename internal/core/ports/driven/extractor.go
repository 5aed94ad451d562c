package driven

import (
	"context"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// PageExtractor recognises the text on a rendered page.
//
// Implementations include:
//   - tesseract CLI
//   - Ollama vision models
type PageExtractor interface {
	// ExtractText returns the recognised lines joined by newlines, in the
	// order the backend produced them. A blank page yields "".
	ExtractText(ctx context.Context, page domain.PageImage) (string, error)

	// Name identifies the backend in logs.
	Name() string
}
