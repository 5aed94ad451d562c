package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or document type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates no answer provider is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding provider failed or is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrExtractionUnavailable indicates the text extraction provider failed.
	ErrExtractionUnavailable = errors.New("extraction service unavailable")

	// ErrRetrievalUnavailable indicates candidates could not be read from the store.
	// No partial results accompany it.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// Vector Errors.

	// ErrZeroVector indicates a vector with zero norm, which has no direction.
	ErrZeroVector = errors.New("zero vector")

	// ErrDimensionMismatch indicates two vectors of different length were compared.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrMalformedEmbedding indicates a stored embedding could not be decoded.
	ErrMalformedEmbedding = errors.New("malformed embedding")
)

// DimensionMismatchError carries the lengths of two incompatible vectors.
// It matches ErrDimensionMismatch with errors.Is.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// EmbeddingProviderError wraps a failure from the embedding provider.
// It matches ErrEmbeddingUnavailable with errors.Is.
type EmbeddingProviderError struct {
	// Op names what was being embedded, e.g. "query" or "page 3".
	Op  string
	Err error
}

func (e *EmbeddingProviderError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("embedding provider: %v", e.Err)
	}
	return fmt.Sprintf("embedding provider (%s): %v", e.Op, e.Err)
}

func (e *EmbeddingProviderError) Unwrap() error { return e.Err }

// Is reports whether target is ErrEmbeddingUnavailable.
func (e *EmbeddingProviderError) Is(target error) bool {
	return target == ErrEmbeddingUnavailable
}

// ExtractionProviderError wraps a text extraction failure for a single page.
// It matches ErrExtractionUnavailable with errors.Is.
type ExtractionProviderError struct {
	PageNo int
	Err    error
}

func (e *ExtractionProviderError) Error() string {
	return fmt.Sprintf("extraction provider (page %d): %v", e.PageNo, e.Err)
}

func (e *ExtractionProviderError) Unwrap() error { return e.Err }

// Is reports whether target is ErrExtractionUnavailable.
func (e *ExtractionProviderError) Is(target error) bool {
	return target == ErrExtractionUnavailable
}
