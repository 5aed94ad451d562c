package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
	"github.com/custodia-labs/spaces/internal/core/ports/driving"
	"github.com/custodia-labs/spaces/internal/core/vectors"
	"github.com/custodia-labs/spaces/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// DefaultCitationCount is how many top results are returned as citations.
const DefaultCitationCount = 2

// RetrievalService ranks stored pages against a query by an exact scan of
// the candidate set. There is no approximate index.
type RetrievalService struct {
	store     driven.Store
	embedder  driven.EmbeddingService
	weighting vectors.Weighting
	policy    domain.CallPolicy
}

// NewRetrievalService creates a retrieval service.
// The embedder is only needed by SearchText and SearchConversations.
func NewRetrievalService(
	store driven.Store,
	embedder driven.EmbeddingService,
	scoring domain.ScoringSettings,
	policy domain.CallPolicy,
) *RetrievalService {
	return &RetrievalService{
		store:     store,
		embedder:  embedder,
		weighting: vectors.Weighting{TokenWeight: scoring.TokenWeight},
		policy:    policy,
	}
}

// Search ranks every record in scope against query, highest score first.
// Records whose embedding is malformed, zero or of a different length are
// skipped and logged. Equal scores keep the store's order.
func (s *RetrievalService) Search(
	ctx context.Context, query []float32, scope domain.Scope,
) ([]domain.ScoredRecord, error) {
	logger.Section("Retrieval")
	logger.Debug("Scope: space=%q filename=%q", scope.Space, scope.Filename)
	if err := checkScope(scope); err != nil {
		return nil, err
	}

	q, err := vectors.Normalize(query)
	if err != nil {
		return nil, fmt.Errorf("normalise query: %w", err)
	}

	candidates, err := s.store.FetchCandidates(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}
	logger.Debug("Candidates: %d", len(candidates))

	results := make([]domain.ScoredRecord, 0, len(candidates))
	skipped := 0
	for _, rec := range candidates {
		sim, err := s.similarity(q, rec.Embedding)
		if err != nil {
			skipped++
			logger.Warn("Skipping record %d (%s p.%d): %v", rec.ID, rec.Source, rec.PageNo, err)
			continue
		}
		results = append(results, domain.ScoredRecord{
			Record:     rec,
			Similarity: sim,
			Score:      s.weighting.Score(sim, rec.TokenCount),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	logger.Info("Ranked %d records (%d skipped)", len(results), skipped)
	return results, nil
}

// SearchText embeds query and ranks records in scope against it.
// An embedding failure is returned as *domain.EmbeddingProviderError.
func (s *RetrievalService) SearchText(
	ctx context.Context, query string, scope domain.Scope,
) ([]domain.ScoredRecord, error) {
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, vec, scope)
}

// SearchConversations ranks past conversation entries in scope against query.
// Entries carry no token count, so the score equals the similarity.
func (s *RetrievalService) SearchConversations(
	ctx context.Context, query string, scope domain.Scope,
) ([]domain.ScoredConversation, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	q, err := vectors.Normalize(vec)
	if err != nil {
		return nil, fmt.Errorf("normalise query: %w", err)
	}

	entries, err := s.store.FetchConversationCandidates(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}

	results := make([]domain.ScoredConversation, 0, len(entries))
	for _, e := range entries {
		sim, err := s.similarity(q, e.Embedding)
		if err != nil {
			logger.Warn("Skipping conversation entry %d: %v", e.ID, err)
			continue
		}
		results = append(results, domain.ScoredConversation{
			Entry:      e,
			Similarity: sim,
			Score:      s.weighting.Score(sim, 0),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// checkScope rejects a filename without its space. File names are only
// unique within a space. An empty scope searches every space.
func checkScope(scope domain.Scope) error {
	if scope.Filename != "" && scope.Space == "" {
		return fmt.Errorf("%w: a filename scope needs a space", domain.ErrInvalidInput)
	}
	return nil
}

func (s *RetrievalService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, &domain.EmbeddingProviderError{Op: "query", Err: errors.New("no embedding service configured")}
	}
	vec, err := callWithPolicy(ctx, s.policy, "embed query", func(ctx context.Context) ([]float32, error) {
		return s.embedder.Embed(ctx, query)
	})
	if err != nil {
		return nil, &domain.EmbeddingProviderError{Op: "query", Err: err}
	}
	return vec, nil
}

func (s *RetrievalService) similarity(query []float64, stored domain.StoredEmbedding) (float64, error) {
	raw, err := stored.Decode()
	if err != nil {
		return 0, err
	}
	if len(raw) != len(query) {
		return 0, &domain.DimensionMismatchError{Want: len(query), Got: len(raw)}
	}
	v, err := vectors.Normalize(raw)
	if err != nil {
		return 0, err
	}
	return vectors.CosineSimilarity(query, v)
}

// Citations converts the top k results into citations.
func Citations(results []domain.ScoredRecord, k int) []domain.Citation {
	if k <= 0 {
		return []domain.Citation{}
	}
	if k > len(results) {
		k = len(results)
	}
	out := make([]domain.Citation, 0, k)
	for _, r := range results[:k] {
		out = append(out, domain.Citation{
			Source:    r.Record.Source,
			Space:     r.Record.Space(),
			PageNo:    r.Record.PageNo,
			ImagePath: r.Record.ImagePath,
			Score:     r.Score,
		})
	}
	return out
}
