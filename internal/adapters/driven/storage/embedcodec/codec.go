// Package embedcodec converts between stored column values and domain
// embeddings. Both SQL stores scan their embedding and metadata columns
// through it, so every backend yields the same StoredEmbedding for the
// same data.
package embedcodec

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// FromColumn resolves a scanned embedding column into a StoredEmbedding.
// A NULL column yields an empty embedding.
func FromColumn(v any) (domain.StoredEmbedding, error) {
	switch e := v.(type) {
	case nil:
		return domain.StoredEmbedding{}, nil
	case string:
		return domain.TextEmbedding(e), nil
	case []byte:
		return domain.BytesEmbedding(slices.Clone(e)), nil
	case []float32:
		return domain.VectorEmbedding(slices.Clone(e)), nil
	case []float64:
		out := make([]float32, len(e))
		for i, f := range e {
			out[i] = float32(f)
		}
		return domain.VectorEmbedding(out), nil
	case pgvector.Vector:
		return domain.VectorEmbedding(e.Slice()), nil
	case *pgvector.Vector:
		if e == nil {
			return domain.StoredEmbedding{}, nil
		}
		return domain.VectorEmbedding(e.Slice()), nil
	default:
		return domain.StoredEmbedding{}, fmt.Errorf("%w: unsupported column type %T", domain.ErrMalformedEmbedding, v)
	}
}

// Resolve is FromColumn for read paths that must not fail on one bad row.
// A value of an unsupported type is kept as its text form, whose Decode
// reports ErrMalformedEmbedding, so callers can skip the record.
func Resolve(v any) domain.StoredEmbedding {
	e, err := FromColumn(v)
	if err != nil {
		return domain.TextEmbedding(fmt.Sprint(v))
	}
	return e
}

// ToBlob renders an embedding for a dynamically typed column. Vectors become
// packed float32 blobs; text and bytes are written as they are. An empty
// embedding yields nil, which the driver writes as NULL.
func ToBlob(e domain.StoredEmbedding) any {
	if e.IsEmpty() {
		return nil
	}
	switch e.Encoding {
	case domain.EncodingText:
		return e.Text
	case domain.EncodingBytes:
		return e.Bytes
	default:
		return domain.EncodeFloat32Blob(e.Vector)
	}
}

// ToVector decodes an embedding for a pgvector column.
func ToVector(e domain.StoredEmbedding) (*pgvector.Vector, error) {
	if e.IsEmpty() {
		return nil, nil
	}
	v, err := e.Decode()
	if err != nil {
		return nil, err
	}
	vec := pgvector.NewVector(v)
	return &vec, nil
}

// MarshalMetadata renders record metadata as a JSON object.
func MarshalMetadata(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(b), nil
}

// UnmarshalMetadata parses a JSON object. Whole-number page values come
// back as int so records read from any store compare equal.
func UnmarshalMetadata(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	if f, ok := m[domain.MetadataPage].(float64); ok && f == math.Trunc(f) {
		m[domain.MetadataPage] = int(f)
	}
	return m, nil
}
