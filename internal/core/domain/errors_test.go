package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrExtractionUnavailable", ErrExtractionUnavailable},
		{"ErrRetrievalUnavailable", ErrRetrievalUnavailable},
		{"ErrZeroVector", ErrZeroVector},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrMalformedEmbedding", ErrMalformedEmbedding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrNotFound tests ErrNotFound error
func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrInvalidInput))
}

func TestDimensionMismatchError(t *testing.T) {
	var err error = &DimensionMismatchError{Want: 768, Got: 384}

	assert.Equal(t, "dimension mismatch: want 768, got 384", err.Error())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.NotErrorIs(t, err, ErrZeroVector)

	wrapped := fmt.Errorf("score candidate: %w", err)
	var dm *DimensionMismatchError
	assert.True(t, errors.As(wrapped, &dm))
	assert.Equal(t, 384, dm.Got)
}

func TestEmbeddingProviderError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &EmbeddingProviderError{Op: "query", Err: cause}

	assert.Contains(t, err.Error(), "query")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, cause)

	noOp := &EmbeddingProviderError{Err: cause}
	assert.Equal(t, "embedding provider: connection refused", noOp.Error())
}

func TestExtractionProviderError(t *testing.T) {
	cause := errors.New("tesseract crashed")
	err := fmt.Errorf("ingest: %w", &ExtractionProviderError{PageNo: 3, Err: cause})

	assert.ErrorIs(t, err, ErrExtractionUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "page 3")
}
