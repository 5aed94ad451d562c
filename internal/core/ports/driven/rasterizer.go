package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// Rasterizer renders a document into one image per page.
type Rasterizer interface {
	// PageCount returns the number of pages in the document.
	PageCount(ctx context.Context, path string) (int, error)

	// Pages renders pages lazily into outDir as page_N.png, in page order.
	// A single image passes through as page_1 with its own extension.
	// A per-page error is yielded with the page number set and iteration
	// continues; stopping early leaves later pages unrendered.
	Pages(ctx context.Context, path, outDir string) iter.Seq2[domain.PageImage, error]

	// Supports reports whether the document at path can be rasterized.
	Supports(path string) bool
}
