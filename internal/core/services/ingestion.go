package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
	"github.com/custodia-labs/spaces/internal/core/ports/driving"
	"github.com/custodia-labs/spaces/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// DefaultIngestConcurrency bounds how many documents IngestSpace indexes at once.
const DefaultIngestConcurrency = 2

// IngestionService turns documents into embedding records:
// rasterize, extract, embed and persist, one page at a time.
type IngestionService struct {
	store      driven.Store
	rasterizer driven.Rasterizer
	extractor  driven.PageExtractor
	embedder   driven.EmbeddingService
	assets     driven.AssetStore

	root        string
	costPerWord float64
	policy      domain.CallPolicy
	concurrency int

	locks *keyedMutex
}

// IngestionConfig holds the tunables of an IngestionService.
type IngestionConfig struct {
	// SpacesRoot holds one folder per space. Page images are written to
	// <SpacesRoot>/<space>/<document stem>/page_N.png.
	SpacesRoot  string
	CostPerWord float64
	Policy      domain.CallPolicy

	// Concurrency bounds IngestSpace. Zero means DefaultIngestConcurrency.
	Concurrency int
}

// NewIngestionService creates an ingestion service.
// The assets parameter is optional (can be nil); page images then stay
// where the rasterizer wrote them.
func NewIngestionService(
	store driven.Store,
	rasterizer driven.Rasterizer,
	extractor driven.PageExtractor,
	embedder driven.EmbeddingService,
	assets driven.AssetStore,
	cfg IngestionConfig,
) *IngestionService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultIngestConcurrency
	}
	return &IngestionService{
		store:       store,
		rasterizer:  rasterizer,
		extractor:   extractor,
		embedder:    embedder,
		assets:      assets,
		root:        cfg.SpacesRoot,
		costPerWord: cfg.CostPerWord,
		policy:      cfg.Policy,
		concurrency: cfg.Concurrency,
		locks:       newKeyedMutex(),
	}
}

// Ingest indexes one document into a space.
//
// Pages are processed in order. A failure on one page is recorded in the
// summary and processing moves on; only failures that prevent any page
// from being attempted are returned as errors. Pages already indexed are
// skipped unless req.Force is set. Concurrent calls for the same document
// run one after the other.
func (s *IngestionService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestionSummary, error) {
	req.Space = strings.TrimSpace(req.Space)
	if req.Space == "" || req.Path == "" {
		return nil, fmt.Errorf("%w: space and document path are required", domain.ErrInvalidInput)
	}

	info, err := os.Stat(req.Path)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, req.Path)
	}
	if !s.rasterizer.Supports(req.Path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Base(req.Path))
	}

	filename := filepath.Base(req.Path)
	unlock := s.locks.Lock(req.Space + "/" + filename)
	defer unlock()

	logger.Section("Ingestion")
	logger.Info("Indexing %s into space %q", filename, req.Space)

	space, err := s.store.EnsureSpace(ctx, req.Space)
	if err != nil {
		return nil, fmt.Errorf("ensure space: %w", err)
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)
	file, err := s.store.EnsureFile(ctx, space.ID, filename, sizeMB)
	if err != nil {
		return nil, fmt.Errorf("ensure file: %w", err)
	}

	indexed := map[int]bool{}
	if !req.Force {
		indexed, err = s.store.IndexedPages(ctx, file.ID)
		if err != nil {
			return nil, fmt.Errorf("load indexed pages: %w", err)
		}
		logger.Debug("%d pages already indexed", len(indexed))
	}

	assetFolder := filepath.Join(s.root, space.Name, file.Stem())
	if err := os.MkdirAll(assetFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create asset folder: %w", err)
	}

	summary := &domain.IngestionSummary{
		Space:       space.Name,
		Source:      filename,
		FileID:      file.ID,
		AssetFolder: assetFolder,
	}

	for page, err := range s.rasterizer.Pages(ctx, req.Path, assetFolder) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, fmt.Errorf("ingest %s: %w", filename, ctxErr)
		}
		summary.PagesTotal++

		if err != nil {
			summary.AddFailure(page.PageNo, domain.StageRasterize, err)
			logger.Warn("%s page %d: rasterize: %v", filename, page.PageNo, err)
			continue
		}
		if indexed[page.PageNo] {
			summary.PagesSkipped++
			logger.Debug("%s page %d already indexed", filename, page.PageNo)
			continue
		}

		if stage, err := s.indexPage(ctx, space.Name, file, page); err != nil {
			summary.AddFailure(page.PageNo, stage, err)
			logger.Warn("%s page %d: %s: %v", filename, page.PageNo, stage, err)
			continue
		}
		summary.PagesIndexed++
	}

	logger.Info("%s", summary.Message())
	return summary, nil
}

func (s *IngestionService) indexPage(
	ctx context.Context, space string, file *domain.File, page domain.PageImage,
) (string, error) {
	text, err := callWithPolicy(ctx, s.policy, "extract", func(ctx context.Context) (string, error) {
		return s.extractor.ExtractText(ctx, page)
	})
	if err != nil {
		return domain.StageExtract, &domain.ExtractionProviderError{PageNo: page.PageNo, Err: err}
	}

	content := domain.PageContext(file.Name, page.PageNo, space, text)
	vec, err := callWithPolicy(ctx, s.policy, "embed page", func(ctx context.Context) ([]float32, error) {
		return s.embedder.Embed(ctx, content)
	})
	if err != nil {
		return domain.StageEmbed, &domain.EmbeddingProviderError{Op: fmt.Sprintf("page %d", page.PageNo), Err: err}
	}
	if dims := s.embedder.Dimensions(); dims > 0 && len(vec) != dims {
		return domain.StageEmbed, &domain.DimensionMismatchError{Want: dims, Got: len(vec)}
	}

	imagePath := page.Path
	if s.assets != nil {
		key := filepath.ToSlash(filepath.Join(space, file.Stem(), filepath.Base(page.Path)))
		imagePath, err = callWithPolicy(ctx, s.policy, "publish asset", func(ctx context.Context) (string, error) {
			return s.assets.Put(ctx, key, page.Path)
		})
		if err != nil {
			return domain.StageAsset, fmt.Errorf("publish page image: %w", err)
		}
	}

	rec := &domain.EmbeddingRecord{
		FileID:     file.ID,
		PageNo:     page.PageNo,
		Metadata:   domain.PageMetadata(file.Name, page.PageNo, space),
		Context:    content,
		Embedding:  domain.VectorEmbedding(vec),
		TokenCount: domain.WordCount(text),
		Cost:       float64(domain.WordCount(content)) * s.costPerWord,
		Source:     file.Name,
		ImagePath:  imagePath,
	}
	if _, err := s.store.UpsertEmbeddingRecord(ctx, rec); err != nil {
		return domain.StagePersist, fmt.Errorf("persist record: %w", err)
	}
	return "", nil
}

// IngestSpace indexes every supported document in the space folder.
// Documents are processed concurrently; summaries come back sorted by
// source name. Page failures stay in each summary. The first document that
// fails outright stops the remaining ones, and its error is returned with
// the summaries of the documents that were attempted.
func (s *IngestionService) IngestSpace(ctx context.Context, space string, force bool) ([]*domain.IngestionSummary, error) {
	dir := filepath.Join(s.root, space)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read space folder: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if s.rasterizer.Supports(path) {
			paths = append(paths, path)
		}
	}
	logger.Info("Found %d documents in space %q", len(paths), space)

	summaries := make([]*domain.IngestionSummary, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := s.Ingest(gctx, domain.IngestRequest{Space: space, Path: path, Force: force})
			summaries[i] = sum
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			return nil
		})
	}
	err = g.Wait()

	out := make([]*domain.IngestionSummary, 0, len(paths))
	for _, sum := range summaries {
		if sum != nil {
			out = append(out, sum)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, err
}
