// Package vectors implements the similarity arithmetic used for ranking:
// unit normalisation, cosine similarity and the token-weighted score.
package vectors

import (
	"fmt"
	"math"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// Normalize returns v scaled to unit Euclidean length.
// A vector whose norm is exactly zero (including an empty vector) yields
// domain.ErrZeroVector, so the result never contains NaN.
func Normalize(v []float32) ([]float64, error) {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return nil, domain.ErrZeroVector
	}
	if math.IsInf(norm, 0) || math.IsNaN(norm) {
		return nil, fmt.Errorf("%w: norm is %v", domain.ErrMalformedEmbedding, norm)
	}

	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x) / norm
	}
	return out, nil
}

// CosineSimilarity returns the dot product of two already normalised vectors.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &domain.DimensionMismatchError{Want: len(a), Got: len(b)}
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot, nil
}

// Cosine normalises both raw vectors and returns their cosine similarity.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &domain.DimensionMismatchError{Want: len(a), Got: len(b)}
	}
	na, err := Normalize(a)
	if err != nil {
		return 0, err
	}
	nb, err := Normalize(b)
	if err != nil {
		return 0, err
	}
	return CosineSimilarity(na, nb)
}

// WeightedScore boosts similarity by document length using the default
// token weight: similarity * (1 + 0.01 * tokenCount).
func WeightedScore(similarity float64, tokenCount int) float64 {
	return DefaultWeighting().Score(similarity, tokenCount)
}

// Weighting holds the token weight coefficient used by Score.
type Weighting struct {
	TokenWeight float64
}

// DefaultWeighting returns a Weighting with domain.DefaultTokenWeight.
func DefaultWeighting() Weighting {
	return Weighting{TokenWeight: domain.DefaultTokenWeight}
}

// Score returns similarity * (1 + TokenWeight * tokenCount).
// Negative token counts are treated as zero, so the boost is never
// below one and the sign of the similarity is preserved.
func (w Weighting) Score(similarity float64, tokenCount int) float64 {
	if tokenCount < 0 {
		tokenCount = 0
	}
	weight := w.TokenWeight
	if weight < 0 {
		weight = 0
	}
	return similarity * (1 + weight*float64(tokenCount))
}
