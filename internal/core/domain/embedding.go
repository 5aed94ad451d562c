package domain

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Metadata keys written on every EmbeddingRecord.
const (
	MetadataFilename = "filename"
	MetadataPage     = "page"
	MetadataSpace    = "space"
)

// EmbeddingRecord is the indexed form of one page of one document.
// Exactly one record exists per (space, source, page).
type EmbeddingRecord struct {
	ID       int64
	FileID   int64
	PageNo   int
	Metadata map[string]any

	// Context is the metadata prefix followed by the extracted page text.
	Context   string
	Embedding StoredEmbedding

	// TokenCount is the whitespace word count of the extracted text.
	TokenCount int
	Cost       float64

	// Source is the document file name.
	Source    string
	ImagePath string
	CreatedAt time.Time
}

// Space returns the space name recorded in the metadata.
func (r EmbeddingRecord) Space() string {
	s, _ := r.Metadata[MetadataSpace].(string)
	return s
}

// PageMetadata builds the metadata map stored with a page record.
func PageMetadata(filename string, page int, space string) map[string]any {
	return map[string]any{
		MetadataFilename: filename,
		MetadataPage:     page,
		MetadataSpace:    space,
	}
}

// PageContext renders the content string that is embedded for a page:
// a metadata prefix followed by a space and the extracted text.
func PageContext(filename string, page int, space, text string) string {
	return fmt.Sprintf("{filename: %s, page: %d, space: %s} %s", filename, page, space, text)
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// EmbeddingEncoding identifies how a persisted vector is represented.
type EmbeddingEncoding int

// Known encodings.
const (
	// EncodingVector is a native numeric array.
	EncodingVector EmbeddingEncoding = iota

	// EncodingText is a JSON array rendered as text.
	EncodingText

	// EncodingBytes is a JSON array as UTF-8 bytes, or a packed
	// little-endian float32 blob.
	EncodingBytes
)

// String returns the encoding name.
func (e EmbeddingEncoding) String() string {
	switch e {
	case EncodingVector:
		return "vector"
	case EncodingText:
		return "text"
	case EncodingBytes:
		return "bytes"
	default:
		return unknownDescription
	}
}

// StoredEmbedding is a persisted vector in whichever encoding the store
// produced. Decode resolves every encoding to the same numeric vector.
type StoredEmbedding struct {
	Encoding EmbeddingEncoding
	Vector   []float32
	Text     string
	Bytes    []byte
}

// VectorEmbedding wraps a numeric vector.
func VectorEmbedding(v []float32) StoredEmbedding {
	return StoredEmbedding{Encoding: EncodingVector, Vector: v}
}

// TextEmbedding wraps a JSON array string.
func TextEmbedding(s string) StoredEmbedding {
	return StoredEmbedding{Encoding: EncodingText, Text: s}
}

// BytesEmbedding wraps a byte encoded vector.
func BytesEmbedding(b []byte) StoredEmbedding {
	return StoredEmbedding{Encoding: EncodingBytes, Bytes: b}
}

// IsEmpty returns true if no vector data is present.
func (e StoredEmbedding) IsEmpty() bool {
	switch e.Encoding {
	case EncodingText:
		return strings.TrimSpace(e.Text) == ""
	case EncodingBytes:
		return len(e.Bytes) == 0
	default:
		return len(e.Vector) == 0
	}
}

// Decode returns the numeric vector. Failures wrap ErrMalformedEmbedding.
func (e StoredEmbedding) Decode() ([]float32, error) {
	switch e.Encoding {
	case EncodingVector:
		if e.Vector == nil {
			return nil, fmt.Errorf("%w: empty vector", ErrMalformedEmbedding)
		}
		return e.Vector, nil
	case EncodingText:
		return decodeJSONVector([]byte(e.Text))
	case EncodingBytes:
		trimmed := strings.TrimSpace(string(e.Bytes))
		if strings.HasPrefix(trimmed, "[") {
			return decodeJSONVector([]byte(trimmed))
		}
		return decodeFloat32Blob(e.Bytes)
	default:
		return nil, fmt.Errorf("%w: unknown encoding %d", ErrMalformedEmbedding, e.Encoding)
	}
}

func decodeJSONVector(data []byte) ([]float32, error) {
	var v []float32
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEmbedding, err)
	}
	return v, nil
}

func decodeFloat32Blob(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: blob length %d is not a multiple of 4", ErrMalformedEmbedding, len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// EncodeFloat32Blob packs a vector as little-endian float32 values.
func EncodeFloat32Blob(v []float32) []byte {
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

// ScoredRecord is a retrieval result.
type ScoredRecord struct {
	Record     EmbeddingRecord
	Similarity float64
	Score      float64
}

// Citation points back to the page that supported an answer.
type Citation struct {
	Source    string
	Space     string
	PageNo    int
	ImagePath string
	Score     float64
}
