package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/spaces/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// mockEmbeddingService returns vectors from embedFn, or a fixed vector.
type mockEmbeddingService struct {
	mu        sync.Mutex
	embedding []float32
	embedFn   func(text string) ([]float32, error)
	embedErr  error
	dims      int
	calls     []string
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int { return m.dims }
func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error { return nil }

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockRasterizer yields pages 1..pages without touching the filesystem.
type mockRasterizer struct {
	pages       int
	pageErrs    map[int]error
	unsupported bool
}

func (m *mockRasterizer) PageCount(_ context.Context, _ string) (int, error) {
	return m.pages, nil
}

func (m *mockRasterizer) Pages(_ context.Context, _ string, outDir string) iter.Seq2[domain.PageImage, error] {
	return func(yield func(domain.PageImage, error) bool) {
		for n := 1; n <= m.pages; n++ {
			page := domain.PageImage{PageNo: n, Path: filepath.Join(outDir, fmt.Sprintf("page_%d.png", n))}
			if !yield(page, m.pageErrs[n]) {
				return
			}
		}
	}
}

func (m *mockRasterizer) Supports(_ string) bool { return !m.unsupported }

// mockExtractor returns "text of page N" unless a page has an error.
type mockExtractor struct {
	mu    sync.Mutex
	texts map[int]string
	errs  map[int]error
	calls int
}

func (m *mockExtractor) ExtractText(_ context.Context, page domain.PageImage) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if err := m.errs[page.PageNo]; err != nil {
		return "", err
	}
	if text, ok := m.texts[page.PageNo]; ok {
		return text, nil
	}
	return fmt.Sprintf("text of page %d", page.PageNo), nil
}

func (m *mockExtractor) Name() string { return "mock-ocr" }

func (m *mockExtractor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockAnswerProvider records the passages it was given.
type mockAnswerProvider struct {
	answer   string
	err      error
	question string
	passages []domain.ScoredRecord
}

func (m *mockAnswerProvider) Answer(_ context.Context, q string, p []domain.ScoredRecord) (string, error) {
	m.question = q
	m.passages = p
	return m.answer, m.err
}

func (m *mockAnswerProvider) ModelName() string { return "mock-llm" }
func (m *mockAnswerProvider) Ping(_ context.Context) error { return nil }
func (m *mockAnswerProvider) Close() error { return nil }

// mockAssetStore prefixes keys with a bucket URL.
type mockAssetStore struct {
	err  error
	keys []string
}

func (m *mockAssetStore) Put(_ context.Context, key, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return "s3://pages/" + key, nil
}

func (m *mockAssetStore) Name() string { return "mock-assets" }

// faultyStore wraps the memory store and injects failures.
type faultyStore struct {
	*memory.Store
	fetchErr  error
	insertErr error
	upsertErr map[int]error
	fileErr   map[string]error
}

func (f *faultyStore) EnsureFile(ctx context.Context, spaceID int64, name string, sizeMB float64) (*domain.File, error) {
	if err := f.fileErr[name]; err != nil {
		return nil, err
	}
	return f.Store.EnsureFile(ctx, spaceID, name, sizeMB)
}

func (f *faultyStore) FetchCandidates(ctx context.Context, scope domain.Scope) ([]domain.EmbeddingRecord, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.Store.FetchCandidates(ctx, scope)
}

func (f *faultyStore) InsertConversationEntry(ctx context.Context, e *domain.ConversationEntry) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	return f.Store.InsertConversationEntry(ctx, e)
}

func (f *faultyStore) UpsertEmbeddingRecord(ctx context.Context, rec *domain.EmbeddingRecord) (int64, error) {
	if err := f.upsertErr[rec.PageNo]; err != nil {
		return 0, err
	}
	return f.Store.UpsertEmbeddingRecord(ctx, rec)
}

var _ driven.Store = (*faultyStore)(nil)

var errBoom = errors.New("boom")

// wordVector maps text onto a small deterministic vector so that related
// texts score higher than unrelated ones.
func wordVector(text string) ([]float32, error) {
	v := make([]float32, 4)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		v[len(w)%4]++
	}
	return v, nil
}
